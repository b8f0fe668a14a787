package sqlinline

const QUpsertCampaignAsset = `--sql e98cd38c-857b-45cb-aafa-6c46ca0e8d7b
insert into campaign_assets (
    id, campaign_id, position, job_id, kind, url,
    is_approved, is_favorite, quality_score, quality_issues, created_at, updated_at
) values (
    $1::text, $2::text, $3::int, $4::text, $5::text, $6::text,
    $7::bool, $8::bool, $9::double precision, $10::jsonb, now(), now()
)
on conflict (id) do update set
    position = excluded.position,
    url = excluded.url,
    is_approved = excluded.is_approved,
    is_favorite = excluded.is_favorite,
    quality_score = excluded.quality_score,
    quality_issues = excluded.quality_issues,
    updated_at = now();
`

const QListCampaignAssets = `--sql 0e5ac0a5-f2fb-47ca-9e0d-2661bd70b34d
select id, job_id, kind, url, is_approved, is_favorite, quality_score, quality_issues
from campaign_assets
where campaign_id = $1::text
order by position asc, created_at asc;
`
