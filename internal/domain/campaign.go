package domain

import "time"

// CampaignRecord is the durable form of a workflow. Jobs, assets, captions and
// exports live in their own tables keyed by the campaign id.
type CampaignRecord struct {
	ID                 string             `json:"id"`
	UserID             string             `json:"user_id,omitempty"`
	Name               string             `json:"name,omitempty"`
	Stage              WorkflowStage      `json:"stage"`
	Brief              CampaignBrief      `json:"brief"`
	SelectedStrategyID string             `json:"selected_strategy_id,omitempty"`
	Strategies         []CreativeStrategy `json:"strategies"`
	UpdatedAt          time.Time          `json:"updated_at"`
}
