package sqlinline

// QCreateSchema creates every table the service uses. It is idempotent.
const QCreateSchema = `--sql b2599693-e6ed-4297-84cc-bfc1eb42f7ad
create extension if not exists pgcrypto;

create table if not exists campaigns (
    id text primary key,
    user_id text not null default '',
    name text not null default '',
    stage text not null default 'brief',
    brief jsonb not null default '{}'::jsonb,
    selected_strategy_id text not null default '',
    strategies jsonb not null default '[]'::jsonb,
    created_at timestamptz not null default now(),
    updated_at timestamptz not null default now()
);
create index if not exists campaigns_user_id_idx on campaigns (user_id);

create table if not exists generation_jobs (
    id text primary key,
    campaign_id text not null references campaigns (id) on delete cascade,
    position int not null default 0,
    job_type text not null,
    status text not null,
    prompt text not null default '',
    parameters jsonb not null default '{}'::jsonb,
    progress int not null default 0,
    retry_count int not null default 0,
    max_retries int not null default 0,
    result_url text not null default '',
    error_message text not null default '',
    created_at timestamptz not null default now(),
    started_at timestamptz,
    completed_at timestamptz
);
create index if not exists generation_jobs_campaign_idx on generation_jobs (campaign_id, position);

create table if not exists campaign_assets (
    id text primary key,
    campaign_id text not null references campaigns (id) on delete cascade,
    position int not null default 0,
    job_id text not null,
    kind text not null,
    url text not null,
    is_approved bool not null default false,
    is_favorite bool not null default false,
    quality_score double precision,
    quality_issues jsonb not null default '[]'::jsonb,
    created_at timestamptz not null default now(),
    updated_at timestamptz not null default now()
);
create index if not exists campaign_assets_campaign_idx on campaign_assets (campaign_id, position);

create table if not exists campaign_captions (
    id text primary key,
    campaign_id text not null references campaigns (id) on delete cascade,
    position int not null default 0,
    asset_id text not null,
    text text not null,
    tone text not null default '',
    hashtags jsonb not null default '[]'::jsonb,
    is_selected bool not null default false,
    created_at timestamptz not null default now()
);
create index if not exists campaign_captions_campaign_idx on campaign_captions (campaign_id, position);

create table if not exists campaign_exports (
    id text primary key,
    campaign_id text not null references campaigns (id) on delete cascade,
    position int not null default 0,
    platform text not null,
    asset_ids jsonb not null default '[]'::jsonb,
    download_url text not null default '',
    created_at timestamptz not null default now()
);
create index if not exists campaign_exports_campaign_idx on campaign_exports (campaign_id, position);

create table if not exists integration_tokens (
    id uuid primary key default gen_random_uuid(),
    provider text not null unique,
    token text not null,
    properties jsonb not null default '{}'::jsonb,
    created_at timestamptz not null default now(),
    updated_at timestamptz not null default now()
);
`
