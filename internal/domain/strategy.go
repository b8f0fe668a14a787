package domain

// EnergyLevel describes how intense a creative direction feels.
type EnergyLevel string

const (
	EnergyCalm      EnergyLevel = "calm"
	EnergyModerate  EnergyLevel = "moderate"
	EnergyEnergetic EnergyLevel = "energetic"
	EnergyIntense   EnergyLevel = "intense"
)

// CreativeStrategy is one candidate creative direction for a campaign.
type CreativeStrategy struct {
	ID              string      `json:"id"`
	Title           string      `json:"title"`
	VisualStyle     string      `json:"visual_style"`
	HookIdea        string      `json:"hook_idea"`
	ContentAngle    string      `json:"content_angle"`
	ExampleHeadline string      `json:"example_headline"`
	Mood            string      `json:"mood"`
	EnergyLevel     EnergyLevel `json:"energy_level"`
	AIReasoning     string      `json:"ai_reasoning"`
	IsSelected      bool        `json:"is_selected"`
}

// StrategyPatch refines fields of an existing strategy during the concept stage.
type StrategyPatch struct {
	Title           *string      `json:"title,omitempty"`
	VisualStyle     *string      `json:"visual_style,omitempty"`
	HookIdea        *string      `json:"hook_idea,omitempty"`
	ContentAngle    *string      `json:"content_angle,omitempty"`
	ExampleHeadline *string      `json:"example_headline,omitempty"`
	Mood            *string      `json:"mood,omitempty"`
	EnergyLevel     *EnergyLevel `json:"energy_level,omitempty"`
}

// Apply returns s with the patch merged in.
func (p StrategyPatch) Apply(s CreativeStrategy) CreativeStrategy {
	if p.Title != nil {
		s.Title = *p.Title
	}
	if p.VisualStyle != nil {
		s.VisualStyle = *p.VisualStyle
	}
	if p.HookIdea != nil {
		s.HookIdea = *p.HookIdea
	}
	if p.ContentAngle != nil {
		s.ContentAngle = *p.ContentAngle
	}
	if p.ExampleHeadline != nil {
		s.ExampleHeadline = *p.ExampleHeadline
	}
	if p.Mood != nil {
		s.Mood = *p.Mood
	}
	if p.EnergyLevel != nil {
		s.EnergyLevel = *p.EnergyLevel
	}
	return s
}
