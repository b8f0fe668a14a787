package sqlinline

const QUpsertGenerationJob = `--sql dcb29331-f515-44ad-95ed-b841bd180420
insert into generation_jobs (
    id, campaign_id, position, job_type, status, prompt, parameters,
    progress, retry_count, max_retries, result_url, error_message,
    created_at, started_at, completed_at
) values (
    $1::text, $2::text, $3::int, $4::text, $5::text, $6::text, $7::jsonb,
    $8::int, $9::int, $10::int, $11::text, $12::text,
    $13::timestamptz, $14::timestamptz, $15::timestamptz
)
on conflict (id) do update set
    position = excluded.position,
    status = excluded.status,
    parameters = excluded.parameters,
    progress = excluded.progress,
    retry_count = excluded.retry_count,
    result_url = excluded.result_url,
    error_message = excluded.error_message,
    started_at = excluded.started_at,
    completed_at = excluded.completed_at;
`

const QListGenerationJobs = `--sql 8370ee2a-38a1-45f2-898b-d3d92bfeefa9
select id, job_type, status, prompt, parameters, progress, retry_count, max_retries,
       result_url, error_message, created_at, started_at, completed_at
from generation_jobs
where campaign_id = $1::text
order by position asc, created_at asc;
`
