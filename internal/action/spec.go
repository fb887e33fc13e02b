// Package action is the agent's activity state machine: declarative
// specs describing what the agent can do, and a machine tracking what
// it is doing right now, with a single-depth suspend slot for
// interrupted work.
package action

import (
	"time"

	"psyche/internal/ai"
)

type Kind string

const (
	KindIdle     Kind = "idle"
	KindConverse Kind = "converse"
	KindSleep    Kind = "sleep"
	KindExplore  Kind = "explore"
	KindReflect  Kind = "reflect"
)

type StepKind int

const (
	// StepLocal runs entirely inside the process.
	StepLocal StepKind = iota
	// StepDecision needs a verdict from the generative service.
	StepDecision
)

// Step is one stage of an action. Local steps implement Run; decision
// steps implement Build (the outbound prompt) and Apply (the verdict).
// Fallback, when set, is the local stand-in used when the decision
// cannot be obtained; without one the action is abandoned.
type Step struct {
	Name string
	Kind StepKind

	Run      func(now time.Time) (done bool, err error)
	Build    func(now time.Time) []ai.Message
	Apply    func(raw string, now time.Time) error
	Fallback func(now time.Time)
}

// Trigger names the need that makes a spec eligible and the urgency it
// must reach.
type Trigger struct {
	Need      string
	Threshold float64
}

type Spec struct {
	Kind          Kind
	Interruptible bool
	Resumable     bool
	Priority      int
	PreferredTier string
	FallbackTier  string
	Trigger       Trigger

	// Available gates eligibility beyond the trigger; nil means always.
	Available func() bool
	// Score overrides the default urgency lookup for this spec; nil
	// means "urgency of the trigger need".
	Score func(urgency map[string]float64) float64

	Steps []Step
}

// Instance is one live run of a spec.
type Instance struct {
	Spec         *Spec
	StepIndex    int
	StartedAt    time.Time
	PendingToken string
}

// CurrentStep returns the step the instance is on, or nil when it has
// walked off the end.
func (in *Instance) CurrentStep() *Step {
	if in == nil || in.StepIndex < 0 || in.StepIndex >= len(in.Spec.Steps) {
		return nil
	}
	return &in.Spec.Steps[in.StepIndex]
}
