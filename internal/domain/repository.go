package domain

import "context"

// CampaignRepository persists the durable campaign record.
type CampaignRepository interface {
	Save(ctx context.Context, rec CampaignRecord) error
	Get(ctx context.Context, campaignID string) (*CampaignRecord, error)
}

// JobRepository persists generation jobs keyed by campaign.
type JobRepository interface {
	Upsert(ctx context.Context, campaignID string, position int, job GenerationJob) error
	ListByCampaign(ctx context.Context, campaignID string) ([]GenerationJob, error)
}

// AssetRepository persists generated assets keyed by campaign.
type AssetRepository interface {
	Upsert(ctx context.Context, campaignID string, position int, asset GeneratedAsset) error
	ListByCampaign(ctx context.Context, campaignID string) ([]GeneratedAsset, error)
}

// CaptionRepository persists captions keyed by campaign.
type CaptionRepository interface {
	Upsert(ctx context.Context, campaignID string, position int, caption Caption) error
	ListByCampaign(ctx context.Context, campaignID string) ([]Caption, error)
}

// ExportRepository persists export packages keyed by campaign.
type ExportRepository interface {
	Upsert(ctx context.Context, campaignID string, position int, export ExportPackage) error
	ListByCampaign(ctx context.Context, campaignID string) ([]ExportPackage, error)
}
