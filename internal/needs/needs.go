// Package needs models the agent's internal drives as bounded scalars
// that drift with wall-clock time and jump on discrete events. Values
// live in [0,1]; higher means more pressing.
package needs

import (
	"time"

	"psyche/internal/personality"
)

// Need is one scalar drive. GrowthRate and DecayRate are per second;
// the net drift per update is (growth-decay)*elapsed seconds, clamped.
type Need struct {
	Name          string  `json:"name"`
	Value         float64 `json:"value"`
	GrowthRate    float64 `json:"growth_rate"`
	DecayRate     float64 `json:"decay_rate"`
	UrgencyWeight float64 `json:"urgency_weight"`
}

// Model holds the needs in declaration order. That order doubles as the
// tie-break priority: earlier needs win when urgencies are equal.
type Model struct {
	needs []Need
}

func New(needs []Need) *Model {
	return &Model{needs: needs}
}

// DefaultNeeds builds the standard drive set, with growth and decay
// scaled by innate traits. Base rates come from the somatic constants
// the agent has always run on (full drift over hours, not minutes).
func DefaultNeeds(view personality.View) []Need {
	curiosityScale := 0.5 + view.Curiosity
	attentionScale := 0.5 + view.FearOfAbandonment
	loadDecayScale := 0.5 + view.MoodStability
	creativityScale := 0.5 + view.Creativity

	return []Need{
		{Name: "attention", Value: 0.3, GrowthRate: 0.00067 * attentionScale, UrgencyWeight: 1.0},
		{Name: "energy", Value: 0.2, GrowthRate: 0.00133, UrgencyWeight: 0.9},
		{Name: "hunger", Value: 0.1, GrowthRate: 0.00067, UrgencyWeight: 0.8},
		{Name: "curiosity", Value: 0.3, GrowthRate: 0.00033 * curiosityScale, UrgencyWeight: 0.6},
		{Name: "creativity", Value: 0.2, GrowthRate: 0.001 * creativityScale, UrgencyWeight: 0.5},
		{Name: "mental_load", Value: 0.0, DecayRate: 0.0005 * loadDecayScale, UrgencyWeight: 0.7},
	}
}

// eventDeltas maps named events to the needs they discharge or load.
var eventDeltas = map[string]map[string]float64{
	"message_received": {"attention": -0.4, "mental_load": +0.05},
	"spoke":            {"attention": -0.2},
	"slept":            {"energy": -0.8},
	"ate":              {"hunger": -0.6},
	"explored":         {"curiosity": -0.3},
	"reflected":        {"mental_load": -0.3, "creativity": -0.2},
}

// Advance drifts every need by elapsed wall-clock time. Negative
// elapsed (clock skew) is treated as zero.
func (m *Model) Advance(elapsed time.Duration) {
	sec := elapsed.Seconds()
	if sec < 0 {
		sec = 0
	}
	for i := range m.needs {
		n := &m.needs[i]
		n.Value = clamp01(n.Value + (n.GrowthRate-n.DecayRate)*sec)
	}
}

// ApplyEvent applies the named event's deltas. Unknown events are a no-op.
func (m *Model) ApplyEvent(kind string) {
	deltas, ok := eventDeltas[kind]
	if !ok {
		return
	}
	for name, d := range deltas {
		m.Nudge(name, d)
	}
}

// Nudge shifts one need by delta, clamped.
func (m *Model) Nudge(name string, delta float64) {
	for i := range m.needs {
		if m.needs[i].Name == name {
			m.needs[i].Value = clamp01(m.needs[i].Value + delta)
			return
		}
	}
}

func (m *Model) Get(name string) (float64, bool) {
	for i := range m.needs {
		if m.needs[i].Name == name {
			return m.needs[i].Value, true
		}
	}
	return 0, false
}

func (m *Model) Set(name string, value float64) {
	for i := range m.needs {
		if m.needs[i].Name == name {
			m.needs[i].Value = clamp01(value)
			return
		}
	}
}

// Urgency returns weight*value per need.
func (m *Model) Urgency() map[string]float64 {
	out := make(map[string]float64, len(m.needs))
	for i := range m.needs {
		n := &m.needs[i]
		out[n.Name] = n.Value * n.UrgencyWeight
	}
	return out
}

// Top returns the most urgent need. Ties resolve to the need declared
// earlier in the model.
func (m *Model) Top() (string, float64) {
	var topName string
	topScore := -1.0
	for i := range m.needs {
		n := &m.needs[i]
		score := n.Value * n.UrgencyWeight
		if score > topScore {
			topName = n.Name
			topScore = score
		}
	}
	return topName, topScore
}

// Snapshot returns name -> value for persistence.
func (m *Model) Snapshot() map[string]float64 {
	out := make(map[string]float64, len(m.needs))
	for i := range m.needs {
		out[m.needs[i].Name] = m.needs[i].Value
	}
	return out
}

// Restore overwrites values from a snapshot; unknown names are ignored
// so stale snapshots load cleanly.
func (m *Model) Restore(values map[string]float64) {
	for name, v := range values {
		m.Set(name, v)
	}
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
