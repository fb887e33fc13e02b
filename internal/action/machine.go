package action

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"
)

// ErrNotInterruptible is returned when a regular interrupt hits a
// protected action. Forced interrupts do not get this.
var ErrNotInterruptible = errors.New("current action is not interruptible")

// Violation is a broken machine invariant. The caller is expected to
// treat it as fatal after logging the dump.
type Violation struct {
	Msg  string
	Dump string
}

func (v *Violation) Error() string {
	return "action machine invariant violated: " + v.Msg
}

// Machine tracks the current and the one suspended instance. Not safe
// for concurrent use; the scheduler loop is its only caller.
type Machine struct {
	specs     []*Spec
	idle      *Spec
	current   *Instance
	suspended *Instance
	margin    float64
}

// NewMachine builds a machine over the given specs. Exactly one spec
// must be KindIdle; margin is the urgency lead a candidate needs over
// the current action before it may preempt.
func NewMachine(specs []*Spec, margin float64) (*Machine, error) {
	m := &Machine{specs: specs, margin: margin}
	for _, s := range specs {
		if s.Kind == KindIdle {
			if m.idle != nil {
				return nil, fmt.Errorf("more than one idle spec")
			}
			m.idle = s
		}
	}
	if m.idle == nil {
		return nil, fmt.Errorf("no idle spec")
	}
	return m, nil
}

func (m *Machine) Current() *Instance   { return m.current }
func (m *Machine) Suspended() *Instance { return m.suspended }
func (m *Machine) Margin() float64      { return m.margin }

// Score evaluates a spec against the urgency map.
func (m *Machine) Score(s *Spec, urgency map[string]float64) float64 {
	if s.Score != nil {
		return s.Score(urgency)
	}
	return urgency[s.Trigger.Need]
}

// Pick returns the most urgent eligible spec and its score. The idle
// spec backstops everything at score zero.
func (m *Machine) Pick(urgency map[string]float64) (*Spec, float64) {
	best := m.idle
	bestScore := 0.0
	for _, s := range m.specs {
		if s == m.idle {
			continue
		}
		if s.Available != nil && !s.Available() {
			continue
		}
		score := m.Score(s, urgency)
		if score < s.Trigger.Threshold {
			continue
		}
		if score > bestScore || (score == bestScore && s.Priority > best.Priority) {
			best = s
			bestScore = score
		}
	}
	return best, bestScore
}

// Begin starts an instance of spec. Calling Begin while something is
// already current is the invariant this machine exists to protect.
func (m *Machine) Begin(spec *Spec, now time.Time) (*Instance, error) {
	if m.current != nil {
		return nil, &Violation{
			Msg:  fmt.Sprintf("begin %s while %s is current", spec.Kind, m.current.Spec.Kind),
			Dump: m.Dump(),
		}
	}
	m.current = &Instance{Spec: spec, StartedAt: now}
	log.Printf("[ACTION] begin kind=%s", spec.Kind)
	return m.current, nil
}

// Interrupt replaces the current instance with a fresh run of spec.
// The displaced instance goes to the suspend slot if it is resumable;
// a previously suspended instance is discarded for good. forced
// bypasses the Interruptible flag.
func (m *Machine) Interrupt(spec *Spec, now time.Time, forced bool) (*Instance, error) {
	if m.current == nil {
		return m.Begin(spec, now)
	}
	if !m.current.Spec.Interruptible && !forced {
		return nil, ErrNotInterruptible
	}

	displaced := m.current
	m.current = nil
	if displaced.Spec.Resumable && displaced.Spec.Kind != KindIdle {
		if m.suspended != nil {
			log.Printf("[ACTION] discard suspended kind=%s", m.suspended.Spec.Kind)
		}
		displaced.PendingToken = ""
		m.suspended = displaced
		log.Printf("[ACTION] suspend kind=%s step=%d", displaced.Spec.Kind, displaced.StepIndex)
	} else {
		log.Printf("[ACTION] drop kind=%s", displaced.Spec.Kind)
	}
	return m.Begin(spec, now)
}

// Complete finishes the current instance and resumes the suspended one
// if present. Returns whatever became current (possibly nil).
func (m *Machine) Complete(now time.Time) *Instance {
	if m.current == nil {
		return nil
	}
	log.Printf("[ACTION] complete kind=%s after=%s", m.current.Spec.Kind, now.Sub(m.current.StartedAt))
	m.current = nil
	return m.resume()
}

// Abandon drops the current instance without finishing it, then
// resumes the suspended one if present.
func (m *Machine) Abandon(now time.Time) *Instance {
	if m.current == nil {
		return nil
	}
	log.Printf("[ACTION] abandon kind=%s step=%d", m.current.Spec.Kind, m.current.StepIndex)
	m.current = nil
	return m.resume()
}

func (m *Machine) resume() *Instance {
	if m.suspended == nil {
		return nil
	}
	m.current = m.suspended
	m.suspended = nil
	log.Printf("[ACTION] resume kind=%s step=%d", m.current.Spec.Kind, m.current.StepIndex)
	return m.current
}

// Dump renders the machine state for the fatal report.
func (m *Machine) Dump() string {
	type instDump struct {
		Kind         Kind   `json:"kind"`
		StepIndex    int    `json:"step_index"`
		StartedAt    string `json:"started_at"`
		PendingToken string `json:"pending_token,omitempty"`
	}
	dump := struct {
		Current   *instDump `json:"current"`
		Suspended *instDump `json:"suspended"`
	}{}
	conv := func(in *Instance) *instDump {
		if in == nil {
			return nil
		}
		return &instDump{
			Kind:         in.Spec.Kind,
			StepIndex:    in.StepIndex,
			StartedAt:    in.StartedAt.UTC().Format(time.RFC3339),
			PendingToken: in.PendingToken,
		}
	}
	dump.Current = conv(m.current)
	dump.Suspended = conv(m.suspended)
	b, err := json.MarshalIndent(dump, "", "  ")
	if err != nil {
		return fmt.Sprintf("%+v", dump)
	}
	return string(b)
}
