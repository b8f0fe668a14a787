package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/leavend/campaign-studio/internal/domain"
	"github.com/leavend/campaign-studio/internal/infra"
	"github.com/leavend/campaign-studio/internal/sqlinline"
)

// CampaignRepositoryPG implements domain.CampaignRepository.
type CampaignRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewCampaignRepository creates a campaign repository backed by PostgreSQL.
func NewCampaignRepository(sql infra.SQLExecutor) *CampaignRepositoryPG {
	return &CampaignRepositoryPG{sql: sql}
}

// Save inserts or replaces the durable record of a campaign.
func (r *CampaignRepositoryPG) Save(ctx context.Context, rec domain.CampaignRecord) error {
	brief, err := json.Marshal(rec.Brief)
	if err != nil {
		return fmt.Errorf("encode brief: %w", err)
	}
	strategies := rec.Strategies
	if strategies == nil {
		strategies = []domain.CreativeStrategy{}
	}
	rawStrategies, err := json.Marshal(strategies)
	if err != nil {
		return fmt.Errorf("encode strategies: %w", err)
	}
	updated := rec.UpdatedAt
	if updated.IsZero() {
		updated = time.Now().UTC()
	}
	_, err = r.sql.Exec(ctx, sqlinline.QUpsertCampaign,
		rec.ID,
		rec.UserID,
		rec.Name,
		string(rec.Stage),
		brief,
		rec.SelectedStrategyID,
		rawStrategies,
		updated,
	)
	return err
}

// Get loads a campaign record. A missing campaign returns domain.ErrNotFound.
func (r *CampaignRepositoryPG) Get(ctx context.Context, campaignID string) (*domain.CampaignRecord, error) {
	var (
		rec        domain.CampaignRecord
		stage      string
		brief      []byte
		strategies []byte
	)
	err := r.sql.QueryRow(ctx, sqlinline.QSelectCampaign, campaignID).Scan(
		&rec.ID,
		&rec.UserID,
		&rec.Name,
		&stage,
		&brief,
		&rec.SelectedStrategyID,
		&strategies,
		&rec.UpdatedAt,
	)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	rec.Stage = domain.WorkflowStage(stage)
	if len(brief) > 0 {
		if err := json.Unmarshal(brief, &rec.Brief); err != nil {
			return nil, fmt.Errorf("decode brief: %w", err)
		}
	}
	if len(strategies) > 0 {
		if err := json.Unmarshal(strategies, &rec.Strategies); err != nil {
			return nil, fmt.Errorf("decode strategies: %w", err)
		}
	}
	return &rec, nil
}

var _ domain.CampaignRepository = (*CampaignRepositoryPG)(nil)
