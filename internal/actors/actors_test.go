package actors

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTouchCreatesNeutralActor(t *testing.T) {
	b := NewBook()
	now := time.Now()

	a := b.Touch("sam", now)
	assert.Equal(t, 0.5, a.Rapport)
	assert.Equal(t, 0.5, a.Trust)
	assert.Equal(t, 0.0, a.Annoyance)
	assert.Equal(t, now, a.LastInteractionAt)

	// Second touch returns the same actor, not a fresh one.
	b.ApplyUpdate("sam", UpdatePositive, 0.1, now)
	again := b.Touch("sam", now.Add(time.Minute))
	assert.Equal(t, 0.6, again.Rapport)
}

func TestClassify(t *testing.T) {
	cases := []struct {
		content string
		want    UpdateKind
	}{
		{"thank you so much", UpdatePositive},
		{"could you please check", UpdatePositive},
		{"you idiot", UpdateNegative},
		{"WHY WOULD YOU DO THAT", UpdateAggressive},
		{"how is the weather", UpdateNeutral},
		{"", UpdateNeutral},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Classify(c.content), c.content)
	}
}

func TestApplyUpdateClamps(t *testing.T) {
	b := NewBook()
	now := time.Now()

	var a Actor
	for i := 0; i < 30; i++ {
		a = b.ApplyUpdate("sam", UpdateAggressive, 0.2, now)
	}
	assert.Equal(t, 1.0, a.Annoyance)
	assert.Equal(t, 0.0, a.Trust)

	// Out-of-range delta falls back to the default step.
	b2 := NewBook()
	a = b2.ApplyUpdate("kim", UpdatePositive, 5.0, now)
	assert.InDelta(t, 0.58, a.Rapport, 1e-9)
}

func TestIdleSince(t *testing.T) {
	b := NewBook()
	now := time.Now()
	b.Touch("old", now.Add(-20*time.Minute))
	b.Touch("fresh", now.Add(-time.Minute))

	idle := b.IdleSince(now, 10*time.Minute)
	assert.Equal(t, []string{"old"}, idle)
}

func TestSnapshotRestore(t *testing.T) {
	b := NewBook()
	now := time.Now().UTC().Truncate(time.Second)
	b.Touch("sam", now)
	b.ApplyUpdate("sam", UpdateNegative, 0.1, now)

	b2 := NewBook()
	b2.Restore(b.Snapshot())
	got, ok := b2.Get("sam")
	assert.True(t, ok)
	want, _ := b.Get("sam")
	assert.Equal(t, want, got)
}
