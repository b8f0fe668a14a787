package workflow

import (
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/leavend/campaign-studio/internal/domain"
)

// Engine owns the state of one campaign and serializes dispatches against it.
type Engine struct {
	mu     sync.Mutex
	state  State
	logger zerolog.Logger
}

// NewEngine creates an engine seeded with initial. A nil logger discards output.
func NewEngine(initial State, logger *zerolog.Logger) *Engine {
	l := zerolog.New(io.Discard)
	if logger != nil {
		l = *logger
	}
	return &Engine{
		state:  initial.Clone(),
		logger: l.With().Str("campaign_id", initial.CampaignID).Logger(),
	}
}

// Dispatch applies the action and returns a copy of the new state.
func (e *Engine) Dispatch(a Action) State {
	e.mu.Lock()
	defer e.mu.Unlock()
	prev := e.state.Stage
	e.state = Reduce(e.state, a)
	if e.state.Stage != prev {
		e.logger.Debug().
			Str("from", string(prev)).
			Str("to", string(e.state.Stage)).
			Msg("workflow: stage changed")
	}
	return e.state.Clone()
}

// State returns a copy of the current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

// CanAdvance reports whether the current stage guard holds.
func (e *Engine) CanAdvance() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return CanAdvance(e.state)
}

// AdvanceStage moves forward when allowed. It is a no-op otherwise.
func (e *Engine) AdvanceStage() State {
	return e.Dispatch(AdvanceStage{})
}

// PreviousStage moves one stage back.
func (e *Engine) PreviousStage() State {
	return e.Dispatch(PreviousStage{})
}

// GoToStage jumps to stage without checking guards.
func (e *Engine) GoToStage(stage domain.WorkflowStage) State {
	return e.Dispatch(GoToStage{Stage: stage})
}
