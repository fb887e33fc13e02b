// Package scheduler runs the agent's control loop: one goroutine that
// owns every piece of mutable agent state, fed by a single ordered
// event queue and a heartbeat ticker.
package scheduler

import (
	"time"

	"psyche/internal/action"
	"psyche/internal/dispatch"
)

type EventKind int

const (
	// EventUserMessage is a line from a person.
	EventUserMessage EventKind = iota
	// EventDecisionResult is a finished dispatcher call.
	EventDecisionResult
	// EventForced interrupts the current action regardless of its
	// Interruptible flag.
	EventForced
)

type Event struct {
	Kind    EventKind
	ActorID string
	Content string
	Result  *dispatch.Result
	Action  action.Kind
	At      time.Time
}
