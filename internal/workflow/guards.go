package workflow

import "github.com/leavend/campaign-studio/internal/domain"

// CanAdvance reports whether the guard of the current stage holds.
func CanAdvance(s State) bool {
	switch s.Stage {
	case domain.StageBrief:
		return s.Brief.Complete()
	case domain.StageStrategy, domain.StageConcept:
		_, ok := s.SelectedStrategy()
		return ok
	case domain.StageGenerate:
		// Assets only exist for completed jobs, so an all-failed batch keeps
		// the campaign here until a new batch succeeds.
		return len(s.Assets) > 0
	case domain.StageIterate:
		for _, a := range s.Assets {
			if a.IsApproved {
				return true
			}
		}
		return false
	case domain.StageExport:
		return true
	default:
		return false
	}
}
