package workflow

import (
	"strings"

	"github.com/leavend/campaign-studio/internal/domain"
)

// Action is a state transition request. The set of actions is closed.
type Action interface {
	apply(s State) State
}

// Reduce returns the state produced by applying a to s. s is left untouched.
func Reduce(s State, a Action) State {
	if a == nil {
		return s
	}
	return a.apply(s.Clone())
}

// SetStage moves to any known stage without consulting guards.
type SetStage struct{ Stage domain.WorkflowStage }

// AdvanceStage moves to the next stage when the current stage guard holds.
type AdvanceStage struct{}

// PreviousStage moves one stage back, except at the first stage.
type PreviousStage struct{}

// GoToStage jumps to an arbitrary stage, bypassing guards. It is used when
// resuming a persisted campaign.
type GoToStage struct{ Stage domain.WorkflowStage }

// MergeBrief merges a partial brief.
type MergeBrief struct{ Patch domain.BriefPatch }

// ReplaceStrategies replaces the strategy list.
type ReplaceStrategies struct{ Strategies []domain.CreativeStrategy }

// SelectStrategy selects one strategy and deselects the others.
type SelectStrategy struct{ ID string }

// RefineStrategy edits an existing strategy during the concept stage.
type RefineStrategy struct {
	ID    string
	Patch domain.StrategyPatch
}

// UpsertJob adds a job or replaces the job with the same id.
type UpsertJob struct{ Job domain.GenerationJob }

// UpsertAsset adds an asset or replaces the asset with the same id.
type UpsertAsset struct{ Asset domain.GeneratedAsset }

// ApproveAsset sets the approval flag of an asset.
type ApproveAsset struct {
	ID       string
	Approved bool
}

// FavoriteAsset sets the favorite flag of an asset.
type FavoriteAsset struct {
	ID       string
	Favorite bool
}

// SetAssetQuality records a review score and issues for an asset.
type SetAssetQuality struct {
	ID     string
	Score  *float64
	Issues []string
}

// AddCaption appends a caption. A caption marked selected deselects the
// other captions of its asset.
type AddCaption struct{ Caption domain.Caption }

// SelectCaption selects one caption of an asset.
type SelectCaption struct {
	AssetID   string
	CaptionID string
}

// AddExport appends an export package.
type AddExport struct{ Export domain.ExportPackage }

// CompleteExport records the download URL of a packaged export.
type CompleteExport struct {
	ID          string
	DownloadURL string
}

// SetLoading toggles the loading flag.
type SetLoading struct{ Loading bool }

// SetError records the last error. An empty message clears it.
type SetError struct{ Message string }

// Reset returns the campaign to its initial state, keeping its identity.
type Reset struct{}

// Hydrate replaces the whole state, used after loading from storage.
type Hydrate struct{ State State }

func (a SetStage) apply(s State) State {
	if a.Stage.Valid() {
		s.Stage = a.Stage
	}
	return s
}

func (AdvanceStage) apply(s State) State {
	if !CanAdvance(s) {
		return s
	}
	if next, ok := s.Stage.Next(); ok {
		s.Stage = next
	}
	return s
}

func (PreviousStage) apply(s State) State {
	if prev, ok := s.Stage.Prev(); ok {
		s.Stage = prev
	}
	return s
}

func (a GoToStage) apply(s State) State {
	return SetStage(a).apply(s)
}

func (a MergeBrief) apply(s State) State {
	s.Brief = a.Patch.Apply(s.Brief)
	return s
}

func (a ReplaceStrategies) apply(s State) State {
	strategies := append([]domain.CreativeStrategy(nil), a.Strategies...)
	selected := ""
	for _, st := range strategies {
		if st.ID == s.SelectedStrategyID && s.SelectedStrategyID != "" {
			selected = st.ID
			break
		}
	}
	if selected == "" {
		for _, st := range strategies {
			if st.IsSelected {
				selected = st.ID
				break
			}
		}
	}
	for i := range strategies {
		strategies[i].IsSelected = selected != "" && strategies[i].ID == selected
	}
	s.Strategies = strategies
	s.SelectedStrategyID = selected
	return s
}

func (a SelectStrategy) apply(s State) State {
	found := false
	for _, st := range s.Strategies {
		if st.ID == a.ID {
			found = true
			break
		}
	}
	if !found {
		return s
	}
	for i := range s.Strategies {
		s.Strategies[i].IsSelected = s.Strategies[i].ID == a.ID
	}
	s.SelectedStrategyID = a.ID
	return s
}

func (a RefineStrategy) apply(s State) State {
	for i := range s.Strategies {
		if s.Strategies[i].ID != a.ID {
			continue
		}
		selected := s.Strategies[i].IsSelected
		s.Strategies[i] = a.Patch.Apply(s.Strategies[i])
		s.Strategies[i].IsSelected = selected
	}
	return s
}

func (a UpsertJob) apply(s State) State {
	job := a.Job.Clone()
	for i := range s.Jobs {
		if s.Jobs[i].ID == job.ID {
			s.Jobs[i] = job
			return s
		}
	}
	s.Jobs = append(s.Jobs, job)
	return s
}

func (a UpsertAsset) apply(s State) State {
	asset := a.Asset.Clone()
	if asset.QualityIssues == nil {
		asset.QualityIssues = []string{}
	}
	for i := range s.Assets {
		if s.Assets[i].ID == asset.ID {
			s.Assets[i] = asset
			return s
		}
	}
	s.Assets = append(s.Assets, asset)
	return s
}

func (a ApproveAsset) apply(s State) State {
	for i := range s.Assets {
		if s.Assets[i].ID == a.ID {
			s.Assets[i].IsApproved = a.Approved
		}
	}
	return s
}

func (a FavoriteAsset) apply(s State) State {
	for i := range s.Assets {
		if s.Assets[i].ID == a.ID {
			s.Assets[i].IsFavorite = a.Favorite
		}
	}
	return s
}

func (a SetAssetQuality) apply(s State) State {
	for i := range s.Assets {
		if s.Assets[i].ID != a.ID {
			continue
		}
		if a.Score != nil {
			score := *a.Score
			s.Assets[i].QualityScore = &score
		} else {
			s.Assets[i].QualityScore = nil
		}
		s.Assets[i].QualityIssues = append([]string{}, a.Issues...)
	}
	return s
}

func (a AddCaption) apply(s State) State {
	caption := a.Caption.Clone()
	if caption.IsSelected {
		for i := range s.Captions {
			if s.Captions[i].AssetID == caption.AssetID {
				s.Captions[i].IsSelected = false
			}
		}
	}
	s.Captions = append(s.Captions, caption)
	return s
}

func (a SelectCaption) apply(s State) State {
	found := false
	for _, c := range s.Captions {
		if c.ID == a.CaptionID && c.AssetID == a.AssetID {
			found = true
			break
		}
	}
	if !found {
		return s
	}
	for i := range s.Captions {
		if s.Captions[i].AssetID == a.AssetID {
			s.Captions[i].IsSelected = s.Captions[i].ID == a.CaptionID
		}
	}
	return s
}

func (a AddExport) apply(s State) State {
	s.Exports = append(s.Exports, a.Export.Clone())
	return s
}

func (a CompleteExport) apply(s State) State {
	for i := range s.Exports {
		if s.Exports[i].ID == a.ID {
			s.Exports[i].DownloadURL = strings.TrimSpace(a.DownloadURL)
		}
	}
	return s
}

func (a SetLoading) apply(s State) State {
	s.Loading = a.Loading
	return s
}

func (a SetError) apply(s State) State {
	s.Error = a.Message
	return s
}

func (Reset) apply(s State) State {
	next := NewState(s.CampaignID)
	next.UserID = s.UserID
	next.Name = s.Name
	return next
}

func (a Hydrate) apply(State) State {
	return a.State.Clone()
}
