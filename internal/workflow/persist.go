package workflow

import (
	"time"

	"github.com/leavend/campaign-studio/internal/domain"
)

// Serialize extracts the durable record of a campaign.
func Serialize(s State) domain.CampaignRecord {
	strategies := make([]domain.CreativeStrategy, len(s.Strategies))
	copy(strategies, s.Strategies)
	return domain.CampaignRecord{
		ID:                 s.CampaignID,
		UserID:             s.UserID,
		Name:               s.Name,
		Stage:              s.Stage,
		Brief:              s.Brief.Clone(),
		SelectedStrategyID: s.SelectedStrategyID,
		Strategies:         strategies,
		UpdatedAt:          time.Now().UTC(),
	}
}

// Deserialize rebuilds a state from its durable record. Child collections are
// empty until Attach is called with rows loaded by campaign id.
func Deserialize(rec domain.CampaignRecord) State {
	s := NewState(rec.ID)
	s.UserID = rec.UserID
	s.Name = rec.Name
	if rec.Stage.Valid() {
		s.Stage = rec.Stage
	}
	s.Brief = rec.Brief.Clone()
	s.Strategies = make([]domain.CreativeStrategy, len(rec.Strategies))
	copy(s.Strategies, rec.Strategies)
	s.SelectedStrategyID = rec.SelectedStrategyID
	for i := range s.Strategies {
		s.Strategies[i].IsSelected = rec.SelectedStrategyID != "" && s.Strategies[i].ID == rec.SelectedStrategyID
	}
	return s
}

// Attach re-attaches child collections loaded from their own stores.
func Attach(s State, jobs []domain.GenerationJob, assets []domain.GeneratedAsset, captions []domain.Caption, exports []domain.ExportPackage) State {
	next := s.Clone()
	next.Jobs = nil
	next.Assets = nil
	next.Captions = nil
	next.Exports = nil
	for _, j := range jobs {
		next = Reduce(next, UpsertJob{Job: j})
	}
	for _, a := range assets {
		next = Reduce(next, UpsertAsset{Asset: a})
	}
	for _, c := range captions {
		next.Captions = append(next.Captions, c.Clone())
	}
	for _, e := range exports {
		next.Exports = append(next.Exports, e.Clone())
	}
	return next
}
