package domain

import "strings"

// Objective enumerates what a campaign is meant to achieve.
type Objective string

const (
	ObjectiveAwareness  Objective = "awareness"
	ObjectiveEngagement Objective = "engagement"
	ObjectiveSales      Objective = "sales"
	ObjectiveLaunch     Objective = "launch"
	ObjectiveOther      Objective = "other"
)

// Valid reports whether the objective is one of the known values.
func (o Objective) Valid() bool {
	switch o {
	case ObjectiveAwareness, ObjectiveEngagement, ObjectiveSales, ObjectiveLaunch, ObjectiveOther:
		return true
	default:
		return false
	}
}

// CampaignBrief collects what the business wants to promote.
type CampaignBrief struct {
	BusinessName        string    `json:"business_name"`
	BusinessDescription string    `json:"business_description"`
	ProductOrService    string    `json:"product_or_service"`
	TargetAudience      string    `json:"target_audience"`
	Objective           Objective `json:"objective"`
	Platforms           []string  `json:"platforms"`
	AdditionalNotes     string    `json:"additional_notes,omitempty"`
}

// Complete reports whether the brief holds everything needed to leave the brief stage.
func (b CampaignBrief) Complete() bool {
	if strings.TrimSpace(b.BusinessName) == "" {
		return false
	}
	if strings.TrimSpace(b.BusinessDescription) == "" {
		return false
	}
	if strings.TrimSpace(b.TargetAudience) == "" {
		return false
	}
	if !b.Objective.Valid() {
		return false
	}
	for _, p := range b.Platforms {
		if strings.TrimSpace(p) != "" {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no slices with b.
func (b CampaignBrief) Clone() CampaignBrief {
	out := b
	if b.Platforms != nil {
		out.Platforms = make([]string, len(b.Platforms))
		copy(out.Platforms, b.Platforms)
	}
	return out
}

// BriefPatch carries a partial brief update. Nil fields are left untouched.
type BriefPatch struct {
	BusinessName        *string    `json:"business_name,omitempty"`
	BusinessDescription *string    `json:"business_description,omitempty"`
	ProductOrService    *string    `json:"product_or_service,omitempty"`
	TargetAudience      *string    `json:"target_audience,omitempty"`
	Objective           *Objective `json:"objective,omitempty"`
	Platforms           []string   `json:"platforms,omitempty"`
	AdditionalNotes     *string    `json:"additional_notes,omitempty"`
}

// Apply merges the patch into a copy of the brief.
func (p BriefPatch) Apply(b CampaignBrief) CampaignBrief {
	out := b.Clone()
	if p.BusinessName != nil {
		out.BusinessName = strings.TrimSpace(*p.BusinessName)
	}
	if p.BusinessDescription != nil {
		out.BusinessDescription = strings.TrimSpace(*p.BusinessDescription)
	}
	if p.ProductOrService != nil {
		out.ProductOrService = strings.TrimSpace(*p.ProductOrService)
	}
	if p.TargetAudience != nil {
		out.TargetAudience = strings.TrimSpace(*p.TargetAudience)
	}
	if p.Objective != nil {
		out.Objective = Objective(strings.ToLower(strings.TrimSpace(string(*p.Objective))))
	}
	if p.Platforms != nil {
		out.Platforms = normalizePlatforms(p.Platforms)
	}
	if p.AdditionalNotes != nil {
		out.AdditionalNotes = strings.TrimSpace(*p.AdditionalNotes)
	}
	return out
}

// normalizePlatforms lowercases, trims and de-duplicates platform names while
// keeping their first-seen order.
func normalizePlatforms(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, p := range in {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
