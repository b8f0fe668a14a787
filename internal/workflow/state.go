// Package workflow holds the stage-gated campaign state machine. State only
// changes through Reduce, which never mutates its input.
package workflow

import "github.com/leavend/campaign-studio/internal/domain"

// State is the aggregate root of one campaign.
type State struct {
	Stage              domain.WorkflowStage      `json:"stage"`
	CampaignID         string                    `json:"campaign_id"`
	UserID             string                    `json:"user_id,omitempty"`
	Name               string                    `json:"name,omitempty"`
	Brief              domain.CampaignBrief      `json:"brief"`
	Strategies         []domain.CreativeStrategy `json:"strategies"`
	SelectedStrategyID string                    `json:"selected_strategy_id,omitempty"`
	Jobs               []domain.GenerationJob    `json:"jobs"`
	Assets             []domain.GeneratedAsset   `json:"assets"`
	Captions           []domain.Caption          `json:"captions"`
	Exports            []domain.ExportPackage    `json:"exports"`
	Loading            bool                      `json:"loading"`
	Error              string                    `json:"error,omitempty"`
}

// NewState returns the initial state of a campaign.
func NewState(campaignID string) State {
	return State{
		Stage:      domain.StageBrief,
		CampaignID: campaignID,
	}
}

// SelectedStrategy returns a copy of the selected strategy, if any.
func (s State) SelectedStrategy() (domain.CreativeStrategy, bool) {
	if s.SelectedStrategyID == "" {
		return domain.CreativeStrategy{}, false
	}
	for _, st := range s.Strategies {
		if st.ID == s.SelectedStrategyID {
			return st, true
		}
	}
	return domain.CreativeStrategy{}, false
}

// Asset looks up an asset by id.
func (s State) Asset(id string) (domain.GeneratedAsset, bool) {
	for _, a := range s.Assets {
		if a.ID == id {
			return a.Clone(), true
		}
	}
	return domain.GeneratedAsset{}, false
}

// ApprovedAssets returns the approved assets in list order.
func (s State) ApprovedAssets() []domain.GeneratedAsset {
	var out []domain.GeneratedAsset
	for _, a := range s.Assets {
		if a.IsApproved {
			out = append(out, a.Clone())
		}
	}
	return out
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	out := s
	out.Brief = s.Brief.Clone()
	if s.Strategies != nil {
		out.Strategies = make([]domain.CreativeStrategy, len(s.Strategies))
		copy(out.Strategies, s.Strategies)
	}
	if s.Jobs != nil {
		out.Jobs = make([]domain.GenerationJob, len(s.Jobs))
		for i, j := range s.Jobs {
			out.Jobs[i] = j.Clone()
		}
	}
	if s.Assets != nil {
		out.Assets = make([]domain.GeneratedAsset, len(s.Assets))
		for i, a := range s.Assets {
			out.Assets[i] = a.Clone()
		}
	}
	if s.Captions != nil {
		out.Captions = make([]domain.Caption, len(s.Captions))
		for i, c := range s.Captions {
			out.Captions[i] = c.Clone()
		}
	}
	if s.Exports != nil {
		out.Exports = make([]domain.ExportPackage, len(s.Exports))
		for i, e := range s.Exports {
			out.Exports[i] = e.Clone()
		}
	}
	return out
}
