package sqlinline

const QUpsertCampaign = `--sql cdf52667-6005-4329-be80-de408bdc00f3
insert into campaigns (id, user_id, name, stage, brief, selected_strategy_id, strategies, created_at, updated_at)
values ($1::text, $2::text, $3::text, $4::text, $5::jsonb, $6::text, $7::jsonb, $8::timestamptz, $8::timestamptz)
on conflict (id) do update set
    user_id = excluded.user_id,
    name = excluded.name,
    stage = excluded.stage,
    brief = excluded.brief,
    selected_strategy_id = excluded.selected_strategy_id,
    strategies = excluded.strategies,
    updated_at = excluded.updated_at;
`

const QSelectCampaign = `--sql 8aa04ea9-8ed4-4411-8fe9-dfc5fb2ee4f7
select id, user_id, name, stage, brief, selected_strategy_id, strategies, updated_at
from campaigns
where id = $1::text
limit 1;
`
