package studio

import (
	"context"
	"fmt"

	"github.com/leavend/campaign-studio/internal/domain"
	"github.com/leavend/campaign-studio/internal/workflow"
)

// SaveCampaign writes the campaign record and every child row.
func (s *Service) SaveCampaign(ctx context.Context, campaignID, userID string) (domain.CampaignRecord, error) {
	sess, err := s.session(ctx, campaignID, userID)
	if err != nil {
		return domain.CampaignRecord{}, err
	}
	st := sess.engine.State()
	rec := workflow.Serialize(st)
	rec.UpdatedAt = s.now().UTC()
	if err := s.campaigns.Save(ctx, rec); err != nil {
		return domain.CampaignRecord{}, fmt.Errorf("studio: save campaign %s: %w", campaignID, err)
	}
	for i, j := range st.Jobs {
		if err := s.jobRepo.Upsert(ctx, campaignID, i, j); err != nil {
			return domain.CampaignRecord{}, fmt.Errorf("studio: save job %s: %w", j.ID, err)
		}
	}
	for i, a := range st.Assets {
		if err := s.assets.Upsert(ctx, campaignID, i, a); err != nil {
			return domain.CampaignRecord{}, fmt.Errorf("studio: save asset %s: %w", a.ID, err)
		}
	}
	for i, c := range st.Captions {
		if err := s.captions.Upsert(ctx, campaignID, i, c); err != nil {
			return domain.CampaignRecord{}, fmt.Errorf("studio: save caption %s: %w", c.ID, err)
		}
	}
	for i, e := range st.Exports {
		if err := s.exports.Upsert(ctx, campaignID, i, e); err != nil {
			return domain.CampaignRecord{}, fmt.Errorf("studio: save export %s: %w", e.ID, err)
		}
	}
	s.logger.Info().Str("campaign_id", campaignID).Str("stage", string(rec.Stage)).Msg("studio: campaign saved")
	return rec, nil
}

// LoadCampaign replaces the open state of a campaign with what is stored.
func (s *Service) LoadCampaign(ctx context.Context, campaignID, userID string) (workflow.State, error) {
	st, err := s.loadState(ctx, campaignID)
	if err != nil {
		return workflow.State{}, err
	}
	if err := authorize(st, userID); err != nil {
		return workflow.State{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[campaignID]; ok {
		if sess.running {
			return workflow.State{}, fmt.Errorf("studio: load campaign %s: %w", campaignID, domain.ErrBatchRunning)
		}
		return sess.engine.Dispatch(workflow.Hydrate{State: st}), nil
	}
	s.sessions[campaignID] = &session{engine: workflow.NewEngine(st, &s.logger)}
	return st, nil
}

func (s *Service) loadState(ctx context.Context, campaignID string) (workflow.State, error) {
	rec, err := s.campaigns.Get(ctx, campaignID)
	if err != nil {
		return workflow.State{}, fmt.Errorf("studio: load campaign %s: %w", campaignID, err)
	}
	if rec == nil {
		return workflow.State{}, fmt.Errorf("studio: campaign %s: %w", campaignID, domain.ErrNotFound)
	}
	jobs, err := s.jobRepo.ListByCampaign(ctx, campaignID)
	if err != nil {
		return workflow.State{}, fmt.Errorf("studio: load jobs: %w", err)
	}
	assets, err := s.assets.ListByCampaign(ctx, campaignID)
	if err != nil {
		return workflow.State{}, fmt.Errorf("studio: load assets: %w", err)
	}
	captions, err := s.captions.ListByCampaign(ctx, campaignID)
	if err != nil {
		return workflow.State{}, fmt.Errorf("studio: load captions: %w", err)
	}
	exports, err := s.exports.ListByCampaign(ctx, campaignID)
	if err != nil {
		return workflow.State{}, fmt.Errorf("studio: load exports: %w", err)
	}
	return workflow.Attach(workflow.Deserialize(*rec), jobs, assets, captions, exports), nil
}
