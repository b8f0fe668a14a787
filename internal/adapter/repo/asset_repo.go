package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/leavend/campaign-studio/internal/domain"
	"github.com/leavend/campaign-studio/internal/infra"
	"github.com/leavend/campaign-studio/internal/sqlinline"
)

// AssetRepositoryPG implements domain.AssetRepository using PostgreSQL.
type AssetRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewAssetRepository constructs a new asset repository instance.
func NewAssetRepository(sql infra.SQLExecutor) *AssetRepositoryPG {
	return &AssetRepositoryPG{sql: sql}
}

// Upsert writes an asset with its review flags.
func (r *AssetRepositoryPG) Upsert(ctx context.Context, campaignID string, position int, asset domain.GeneratedAsset) error {
	issues, err := json.Marshal(nonNilStrings(asset.QualityIssues))
	if err != nil {
		return fmt.Errorf("encode quality issues: %w", err)
	}
	_, err = r.sql.Exec(ctx, sqlinline.QUpsertCampaignAsset,
		asset.ID,
		campaignID,
		position,
		asset.JobID,
		string(asset.Type),
		asset.URL,
		asset.IsApproved,
		asset.IsFavorite,
		asset.QualityScore,
		issues,
	)
	return err
}

// ListByCampaign returns the assets of a campaign in position order.
func (r *AssetRepositoryPG) ListByCampaign(ctx context.Context, campaignID string) ([]domain.GeneratedAsset, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListCampaignAssets, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assets []domain.GeneratedAsset
	for rows.Next() {
		var (
			asset  domain.GeneratedAsset
			kind   string
			score  *float64
			issues []byte
		)
		if err := rows.Scan(&asset.ID, &asset.JobID, &kind, &asset.URL, &asset.IsApproved, &asset.IsFavorite, &score, &issues); err != nil {
			return nil, err
		}
		asset.Type = domain.AssetKind(kind)
		asset.QualityScore = score
		asset.QualityIssues = []string{}
		if len(issues) > 0 {
			if err := json.Unmarshal(issues, &asset.QualityIssues); err != nil {
				return nil, fmt.Errorf("decode quality issues of asset %s: %w", asset.ID, err)
			}
		}
		assets = append(assets, asset)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return assets, nil
}

func nonNilStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

var _ domain.AssetRepository = (*AssetRepositoryPG)(nil)
