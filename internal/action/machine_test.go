package action

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func idleSpec() *Spec {
	return &Spec{Kind: KindIdle, Interruptible: true}
}

func testMachine(t *testing.T, extra ...*Spec) *Machine {
	t.Helper()
	specs := append([]*Spec{idleSpec()}, extra...)
	m, err := NewMachine(specs, 0.1)
	require.NoError(t, err)
	return m
}

func TestNewMachineRequiresIdle(t *testing.T) {
	_, err := NewMachine([]*Spec{{Kind: KindSleep}}, 0.1)
	assert.Error(t, err)

	_, err = NewMachine([]*Spec{idleSpec(), idleSpec()}, 0.1)
	assert.Error(t, err)
}

func TestBeginWhileCurrentIsViolation(t *testing.T) {
	sleep := &Spec{Kind: KindSleep}
	m := testMachine(t, sleep)
	now := time.Now()

	_, err := m.Begin(sleep, now)
	require.NoError(t, err)

	_, err = m.Begin(sleep, now)
	require.Error(t, err)
	v, ok := err.(*Violation)
	require.True(t, ok)
	assert.Contains(t, v.Dump, string(KindSleep))
}

func TestInterruptSuspendsResumable(t *testing.T) {
	explore := &Spec{Kind: KindExplore, Interruptible: true, Resumable: true}
	converse := &Spec{Kind: KindConverse, Interruptible: true}
	m := testMachine(t, explore, converse)
	now := time.Now()

	inst, err := m.Begin(explore, now)
	require.NoError(t, err)
	inst.StepIndex = 1
	inst.PendingToken = "tok"

	cur, err := m.Interrupt(converse, now, false)
	require.NoError(t, err)
	assert.Equal(t, KindConverse, cur.Spec.Kind)

	susp := m.Suspended()
	require.NotNil(t, susp)
	assert.Equal(t, KindExplore, susp.Spec.Kind)
	assert.Equal(t, 1, susp.StepIndex)
	// A suspended instance must not still be waiting on a decision.
	assert.Empty(t, susp.PendingToken)
}

func TestSecondInterruptDiscardsFirstSuspended(t *testing.T) {
	explore := &Spec{Kind: KindExplore, Interruptible: true, Resumable: true}
	converse := &Spec{Kind: KindConverse, Interruptible: true, Resumable: true}
	reflect := &Spec{Kind: KindReflect, Interruptible: true}
	m := testMachine(t, explore, converse, reflect)
	now := time.Now()

	first, err := m.Begin(explore, now)
	require.NoError(t, err)

	_, err = m.Interrupt(converse, now, false)
	require.NoError(t, err)
	assert.Same(t, first, m.Suspended())

	_, err = m.Interrupt(reflect, now, false)
	require.NoError(t, err)

	// Converse took the slot; explore is gone for good.
	susp := m.Suspended()
	require.NotNil(t, susp)
	assert.Equal(t, KindConverse, susp.Spec.Kind)

	cur := m.Complete(now)
	require.NotNil(t, cur)
	assert.Equal(t, KindConverse, cur.Spec.Kind)
	assert.Nil(t, m.Suspended())

	// Nothing resurrects the discarded explore instance.
	assert.Nil(t, m.Complete(now))
	assert.Nil(t, m.Current())
}

func TestNonInterruptibleRefusesRegularInterrupt(t *testing.T) {
	sleep := &Spec{Kind: KindSleep, Interruptible: false}
	converse := &Spec{Kind: KindConverse, Interruptible: true}
	m := testMachine(t, sleep, converse)
	now := time.Now()

	_, err := m.Begin(sleep, now)
	require.NoError(t, err)

	_, err = m.Interrupt(converse, now, false)
	assert.ErrorIs(t, err, ErrNotInterruptible)
	assert.Equal(t, KindSleep, m.Current().Spec.Kind)

	// Forced interrupts go through.
	cur, err := m.Interrupt(converse, now, true)
	require.NoError(t, err)
	assert.Equal(t, KindConverse, cur.Spec.Kind)
}

func TestIdleIsNeverSuspended(t *testing.T) {
	idle := idleSpec()
	idle.Resumable = true
	converse := &Spec{Kind: KindConverse, Interruptible: true}
	m, err := NewMachine([]*Spec{idle, converse}, 0.1)
	require.NoError(t, err)
	now := time.Now()

	_, err = m.Begin(idle, now)
	require.NoError(t, err)
	_, err = m.Interrupt(converse, now, false)
	require.NoError(t, err)
	assert.Nil(t, m.Suspended())
}

func TestCompleteResumesSuspended(t *testing.T) {
	explore := &Spec{Kind: KindExplore, Interruptible: true, Resumable: true}
	converse := &Spec{Kind: KindConverse, Interruptible: true}
	m := testMachine(t, explore, converse)
	now := time.Now()

	inst, err := m.Begin(explore, now)
	require.NoError(t, err)
	inst.StepIndex = 2

	_, err = m.Interrupt(converse, now, false)
	require.NoError(t, err)

	cur := m.Complete(now)
	require.NotNil(t, cur)
	assert.Equal(t, KindExplore, cur.Spec.Kind)
	assert.Equal(t, 2, cur.StepIndex)
}

func TestPick(t *testing.T) {
	sleep := &Spec{Kind: KindSleep, Trigger: Trigger{Need: "energy", Threshold: 0.77}, Priority: 4}
	converse := &Spec{Kind: KindConverse, Trigger: Trigger{Need: "attention", Threshold: 0.75}, Priority: 5}
	m := testMachine(t, sleep, converse)

	// Attention pressing, energy fine: converse wins.
	spec, score := m.Pick(map[string]float64{"attention": 0.9, "energy": 0.1})
	assert.Equal(t, KindConverse, spec.Kind)
	assert.InDelta(t, 0.9, score, 1e-9)

	// Nothing over threshold: idle backstops.
	spec, score = m.Pick(map[string]float64{"attention": 0.2, "energy": 0.2})
	assert.Equal(t, KindIdle, spec.Kind)
	assert.Equal(t, 0.0, score)

	// Equal scores: higher priority wins.
	spec, _ = m.Pick(map[string]float64{"attention": 0.8, "energy": 0.8})
	assert.Equal(t, KindConverse, spec.Kind)
}

func TestPickHonorsAvailableAndScoreOverride(t *testing.T) {
	gate := false
	converse := &Spec{
		Kind:     KindConverse,
		Trigger:  Trigger{Need: "attention", Threshold: 0.5},
		Priority: 5,
		Available: func() bool {
			return gate
		},
		Score: func(map[string]float64) float64 { return 0.95 },
	}
	m := testMachine(t, converse)

	spec, _ := m.Pick(map[string]float64{"attention": 0.0})
	assert.Equal(t, KindIdle, spec.Kind)

	gate = true
	spec, score := m.Pick(map[string]float64{"attention": 0.0})
	assert.Equal(t, KindConverse, spec.Kind)
	assert.InDelta(t, 0.95, score, 1e-9)
}
