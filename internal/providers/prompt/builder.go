// Package prompt turns a campaign brief and its chosen creative strategy into
// generation prompts, strategy suggestions and caption drafts.
package prompt

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leavend/campaign-studio/internal/domain"
)

// Variations applied in order to the prompts of one image batch so that no two
// images in a batch ask for the same shot.
var imageVariations = []string{
	"hero shot of the product, centered, studio lighting",
	"lifestyle scene showing the product in everyday use",
	"close-up detail shot highlighting texture and craft",
	"bold graphic composition with clear space for a headline",
	"overhead flat lay arrangement with complementary props",
	"candid behind-the-scenes moment at the business",
}

// Builder composes prompts. The zero value is ready to use.
type Builder struct{}

func NewBuilder() *Builder {
	return &Builder{}
}

// ImagePrompts returns count prompts, each with its own shot variation.
func (b *Builder) ImagePrompts(brief domain.CampaignBrief, strategy *domain.CreativeStrategy, count int, locale string) []string {
	if count <= 0 {
		count = 1
	}
	base := b.base(brief, strategy, "Create a marketing photograph")
	out := make([]string, count)
	for i := range out {
		variation := imageVariations[i%len(imageVariations)]
		out[i] = withLocale(base+"\nShot: "+variation, locale)
	}
	return out
}

// VideoPrompt returns the prompt for a short promotional clip.
func (b *Builder) VideoPrompt(brief domain.CampaignBrief, strategy *domain.CreativeStrategy, durationSeconds int, locale string) string {
	base := b.base(brief, strategy, "Create a short promotional video")
	if durationSeconds > 0 {
		base += fmt.Sprintf("\nPacing: a single %d second sequence that opens on the hook", durationSeconds)
	}
	return withLocale(base, locale)
}

func (b *Builder) base(brief domain.CampaignBrief, strategy *domain.CreativeStrategy, lead string) string {
	title := cases.Title(language.Und)
	var sb strings.Builder
	sb.WriteString(lead)
	if name := strings.TrimSpace(brief.BusinessName); name != "" {
		fmt.Fprintf(&sb, " for %s", title.String(name))
	}
	if product := coalesce(brief.ProductOrService, brief.BusinessDescription); product != "" {
		fmt.Fprintf(&sb, ", featuring %s", product)
	}
	sb.WriteString(".")
	if audience := strings.TrimSpace(brief.TargetAudience); audience != "" {
		fmt.Fprintf(&sb, "\nAudience: %s", audience)
	}
	if brief.Objective != "" {
		fmt.Fprintf(&sb, "\nObjective: %s", brief.Objective)
	}
	if strategy != nil {
		if strategy.VisualStyle != "" {
			fmt.Fprintf(&sb, "\nVisual style: %s", strategy.VisualStyle)
		}
		if strategy.Mood != "" {
			fmt.Fprintf(&sb, "\nMood: %s", strategy.Mood)
		}
		if strategy.EnergyLevel != "" {
			fmt.Fprintf(&sb, "\nEnergy: %s", strategy.EnergyLevel)
		}
		if strategy.HookIdea != "" {
			fmt.Fprintf(&sb, "\nHook: %s", strategy.HookIdea)
		}
		if strategy.ExampleHeadline != "" {
			fmt.Fprintf(&sb, "\nHeadline to leave room for: %q", strategy.ExampleHeadline)
		}
	}
	if notes := strings.TrimSpace(brief.AdditionalNotes); notes != "" {
		fmt.Fprintf(&sb, "\nNotes: %s", notes)
	}
	return sb.String()
}

// withLocale appends a language hint when locale parses as a BCP 47 tag.
func withLocale(prompt, locale string) string {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return prompt
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return prompt
	}
	return prompt + "\nLocale: " + tag.String()
}
