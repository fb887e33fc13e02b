package needs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"psyche/internal/personality"
)

func testModel() *Model {
	return New(DefaultNeeds(personality.Default()))
}

func TestAdvanceStaysInRange(t *testing.T) {
	m := testModel()

	// A week of drift must not escape [0,1].
	m.Advance(7 * 24 * time.Hour)
	for name, v := range m.Snapshot() {
		assert.GreaterOrEqual(t, v, 0.0, name)
		assert.LessOrEqual(t, v, 1.0, name)
	}

	// Negative elapsed is a no-op, not a reverse drift.
	before := m.Snapshot()
	m.Advance(-time.Hour)
	assert.Equal(t, before, m.Snapshot())
}

func TestAdvanceDrift(t *testing.T) {
	m := testModel()
	m.Set("energy", 0.2)

	m.Advance(100 * time.Second)

	v, ok := m.Get("energy")
	require.True(t, ok)
	assert.InDelta(t, 0.2+0.00133*100, v, 1e-9)
}

func TestApplyEventDeltas(t *testing.T) {
	m := testModel()
	m.Set("attention", 0.9)
	m.Set("mental_load", 0.5)

	m.ApplyEvent("message_received")

	att, _ := m.Get("attention")
	load, _ := m.Get("mental_load")
	assert.InDelta(t, 0.5, att, 1e-9)
	assert.InDelta(t, 0.55, load, 1e-9)
}

func TestApplyEventClamps(t *testing.T) {
	m := testModel()
	m.Set("energy", 0.3)

	m.ApplyEvent("slept") // -0.8 would go negative

	v, _ := m.Get("energy")
	assert.Equal(t, 0.0, v)
}

func TestApplyEventUnknownIsNoop(t *testing.T) {
	m := testModel()
	before := m.Snapshot()
	m.ApplyEvent("teleported")
	assert.Equal(t, before, m.Snapshot())
}

func TestTopPrefersWeightedUrgency(t *testing.T) {
	m := testModel()
	m.Set("attention", 0.9)
	m.Set("energy", 0.1)
	m.Set("hunger", 0.1)
	m.Set("curiosity", 0.1)
	m.Set("creativity", 0.1)
	m.Set("mental_load", 0.1)

	name, score := m.Top()
	assert.Equal(t, "attention", name)
	assert.InDelta(t, 0.9, score, 1e-9)
}

func TestTopTieBreaksByDeclarationOrder(t *testing.T) {
	m := New([]Need{
		{Name: "attention", Value: 0.5, UrgencyWeight: 1.0},
		{Name: "energy", Value: 0.5, UrgencyWeight: 1.0},
	})

	name, _ := m.Top()
	assert.Equal(t, "attention", name)
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	m := testModel()
	m.Set("hunger", 0.77)
	snap := m.Snapshot()

	m2 := testModel()
	m2.Restore(snap)
	assert.Equal(t, snap, m2.Snapshot())

	// Unknown keys in a stale snapshot are ignored.
	m2.Restore(map[string]float64{"boredom": 0.4})
	assert.Equal(t, snap, m2.Snapshot())
}

func TestPersonalityScalesRates(t *testing.T) {
	curious := DefaultNeeds(personality.View{Curiosity: 1.0})
	dull := DefaultNeeds(personality.View{Curiosity: 0.0})

	var cg, dg float64
	for _, n := range curious {
		if n.Name == "curiosity" {
			cg = n.GrowthRate
		}
	}
	for _, n := range dull {
		if n.Name == "curiosity" {
			dg = n.GrowthRate
		}
	}
	assert.Greater(t, cg, dg)
}
