package prompt

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leavend/campaign-studio/internal/domain"
)

// StaticStrategist drafts creative strategies and captions from templates.
// It needs no remote model, which keeps the workflow usable offline.
type StaticStrategist struct {
	NewID func() string
}

func NewStaticStrategist() *StaticStrategist {
	return &StaticStrategist{NewID: func() string { return uuid.NewString() }}
}

type strategyTemplate struct {
	title   string
	style   string
	hook    string
	angle   string
	mood    string
	energy  domain.EnergyLevel
	headers map[domain.Objective]string
}

var strategyTemplates = []strategyTemplate{
	{
		title:  "Warm Storytelling",
		style:  "natural light, soft film grain, candid framing",
		hook:   "Open on the hands that make %s",
		angle:  "the people and care behind the business",
		mood:   "warm",
		energy: domain.EnergyCalm,
		headers: map[domain.Objective]string{
			domain.ObjectiveSales:  "Made with care. Ready for you.",
			domain.ObjectiveLaunch: "Something new, made by hand.",
		},
	},
	{
		title:  "Bold Product Spotlight",
		style:  "high contrast, saturated brand colors, clean backdrop",
		hook:   "Snap zoom onto %s in the first second",
		angle:  "what makes the product stand out at a glance",
		mood:   "confident",
		energy: domain.EnergyEnergetic,
		headers: map[domain.Objective]string{
			domain.ObjectiveSales:      "Yours today. Limited run.",
			domain.ObjectiveEngagement: "Tell us your pick.",
		},
	},
	{
		title:  "Everyday Moments",
		style:  "lifestyle photography, bright interiors, relatable settings",
		hook:   "Show %s fitting into a real routine",
		angle:  "how customers use it day to day",
		mood:   "friendly",
		energy: domain.EnergyModerate,
		headers: map[domain.Objective]string{
			domain.ObjectiveAwareness:  "Part of your day, every day.",
			domain.ObjectiveEngagement: "Where do you enjoy yours?",
		},
	},
}

// Strategies returns one strategy per template, none selected.
func (s *StaticStrategist) Strategies(brief domain.CampaignBrief) []domain.CreativeStrategy {
	title := cases.Title(language.Und)
	subject := coalesce(brief.ProductOrService, brief.BusinessName, "the product")
	name := title.String(coalesce(brief.BusinessName, "the brand"))

	out := make([]domain.CreativeStrategy, 0, len(strategyTemplates))
	for _, tpl := range strategyTemplates {
		headline := tpl.headers[brief.Objective]
		if headline == "" {
			headline = fmt.Sprintf("Discover %s.", name)
		}
		out = append(out, domain.CreativeStrategy{
			ID:              s.NewID(),
			Title:           tpl.title,
			VisualStyle:     tpl.style,
			HookIdea:        fmt.Sprintf(tpl.hook, subject),
			ContentAngle:    tpl.angle,
			ExampleHeadline: headline,
			Mood:            tpl.mood,
			EnergyLevel:     tpl.energy,
			AIReasoning:     reasoning(brief, tpl),
		})
	}
	return out
}

func reasoning(brief domain.CampaignBrief, tpl strategyTemplate) string {
	audience := coalesce(brief.TargetAudience, "the target audience")
	platforms := strings.Join(brief.Platforms, ", ")
	if platforms == "" {
		return fmt.Sprintf("A %s tone focused on %s suits %s.", tpl.mood, tpl.angle, audience)
	}
	return fmt.Sprintf("A %s tone focused on %s suits %s on %s.", tpl.mood, tpl.angle, audience, platforms)
}

// Caption drafts caption copy for an asset in the given tone.
func (s *StaticStrategist) Caption(brief domain.CampaignBrief, strategy *domain.CreativeStrategy, assetID, tone string) domain.Caption {
	tone = coalesce(strings.ToLower(tone), "friendly")
	name := cases.Title(language.Und).String(coalesce(brief.BusinessName, "us"))

	var text string
	switch tone {
	case "playful":
		text = fmt.Sprintf("Guess who just made your day better? %s.", name)
	case "professional":
		text = fmt.Sprintf("%s: quality you can rely on.", name)
	default:
		text = fmt.Sprintf("From all of us at %s, thanks for being here.", name)
	}
	if strategy != nil && strategy.ExampleHeadline != "" {
		text = strategy.ExampleHeadline + " " + text
	}

	tags := normalizeKeywords([]string{
		hashtag(brief.BusinessName),
		hashtag(brief.ProductOrService),
		hashtag(string(brief.Objective)),
	}, "#SmallBusiness")

	return domain.Caption{
		ID:       s.NewID(),
		AssetID:  assetID,
		Text:     text,
		Tone:     tone,
		Hashtags: tags,
	}
}
