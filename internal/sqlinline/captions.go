package sqlinline

const QUpsertCampaignCaption = `--sql 1b05bf9b-e916-42cd-a97c-824ada177581
insert into campaign_captions (id, campaign_id, position, asset_id, text, tone, hashtags, is_selected, created_at)
values ($1::text, $2::text, $3::int, $4::text, $5::text, $6::text, $7::jsonb, $8::bool, now())
on conflict (id) do update set
    position = excluded.position,
    text = excluded.text,
    tone = excluded.tone,
    hashtags = excluded.hashtags,
    is_selected = excluded.is_selected;
`

const QListCampaignCaptions = `--sql 11b9a5b3-3f71-4429-b160-09831deed71e
select id, asset_id, text, tone, hashtags, is_selected
from campaign_captions
where campaign_id = $1::text
order by position asc, created_at asc;
`
