package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/leavend/campaign-studio/internal/domain"
	"github.com/leavend/campaign-studio/internal/infra"
	"github.com/leavend/campaign-studio/internal/sqlinline"
)

// CaptionRepositoryPG implements domain.CaptionRepository.
type CaptionRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewCaptionRepository(sql infra.SQLExecutor) *CaptionRepositoryPG {
	return &CaptionRepositoryPG{sql: sql}
}

func (r *CaptionRepositoryPG) Upsert(ctx context.Context, campaignID string, position int, c domain.Caption) error {
	tags, err := json.Marshal(nonNilStrings(c.Hashtags))
	if err != nil {
		return fmt.Errorf("encode hashtags: %w", err)
	}
	_, err = r.sql.Exec(ctx, sqlinline.QUpsertCampaignCaption,
		c.ID, campaignID, position, c.AssetID, c.Text, c.Tone, tags, c.IsSelected)
	return err
}

func (r *CaptionRepositoryPG) ListByCampaign(ctx context.Context, campaignID string) ([]domain.Caption, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListCampaignCaptions, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var captions []domain.Caption
	for rows.Next() {
		var (
			c    domain.Caption
			tags []byte
		)
		if err := rows.Scan(&c.ID, &c.AssetID, &c.Text, &c.Tone, &tags, &c.IsSelected); err != nil {
			return nil, err
		}
		if len(tags) > 0 {
			if err := json.Unmarshal(tags, &c.Hashtags); err != nil {
				return nil, fmt.Errorf("decode hashtags of caption %s: %w", c.ID, err)
			}
		}
		captions = append(captions, c)
	}
	return captions, rows.Err()
}

var _ domain.CaptionRepository = (*CaptionRepositoryPG)(nil)
