package sqlinline

const QUpsertCampaignExport = `--sql a073f9bd-860c-4864-bd24-42ce804a1a79
insert into campaign_exports (id, campaign_id, position, platform, asset_ids, download_url, created_at)
values ($1::text, $2::text, $3::int, $4::text, $5::jsonb, $6::text, now())
on conflict (id) do update set
    position = excluded.position,
    asset_ids = excluded.asset_ids,
    download_url = excluded.download_url;
`

const QListCampaignExports = `--sql d6d9a3a9-d382-4068-bd93-f77bf8ae3136
select id, platform, asset_ids, download_url
from campaign_exports
where campaign_id = $1::text
order by position asc, created_at asc;
`
