package domain

import (
	"fmt"
	"strings"
)

// WorkflowStage is one step of the creative campaign flow.
type WorkflowStage string

const (
	StageBrief    WorkflowStage = "brief"
	StageStrategy WorkflowStage = "strategy"
	StageConcept  WorkflowStage = "concept"
	StageGenerate WorkflowStage = "generate"
	StageIterate  WorkflowStage = "iterate"
	StageExport   WorkflowStage = "export"
)

// Stages lists every stage in its only valid order.
var Stages = []WorkflowStage{
	StageBrief,
	StageStrategy,
	StageConcept,
	StageGenerate,
	StageIterate,
	StageExport,
}

// Index returns the position of the stage in Stages, or -1 when unknown.
func (s WorkflowStage) Index() int {
	for i, stage := range Stages {
		if stage == s {
			return i
		}
	}
	return -1
}

// Valid reports whether the stage is part of the workflow.
func (s WorkflowStage) Valid() bool {
	return s.Index() >= 0
}

// Next returns the following stage. ok is false at the last stage.
func (s WorkflowStage) Next() (WorkflowStage, bool) {
	idx := s.Index()
	if idx < 0 || idx >= len(Stages)-1 {
		return s, false
	}
	return Stages[idx+1], true
}

// Prev returns the preceding stage. ok is false at the first stage.
func (s WorkflowStage) Prev() (WorkflowStage, bool) {
	idx := s.Index()
	if idx <= 0 {
		return s, false
	}
	return Stages[idx-1], true
}

// ParseStage converts user input into a stage.
func ParseStage(raw string) (WorkflowStage, error) {
	stage := WorkflowStage(strings.ToLower(strings.TrimSpace(raw)))
	if !stage.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStage, raw)
	}
	return stage, nil
}
