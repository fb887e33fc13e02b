// Package actors tracks the agent's relationship with each person it
// talks to. Relation values are bounded scalars updated by a cheap
// message heuristic; no generative call is involved.
package actors

import (
	"strings"
	"sync"
	"time"
)

type Actor struct {
	ID                string    `json:"id"`
	Rapport           float64   `json:"rapport"`
	Trust             float64   `json:"trust"`
	Annoyance         float64   `json:"annoyance"`
	LastInteractionAt time.Time `json:"last_interaction_at"`
}

// Book is the set of known actors, keyed by ID. Created on first
// contact, never merged or deleted.
type Book struct {
	mu     sync.RWMutex
	actors map[string]*Actor
}

func NewBook() *Book {
	return &Book{actors: make(map[string]*Actor)}
}

// Touch returns the actor for id, creating it with neutral relation
// values on first contact, and stamps the interaction time.
func (b *Book) Touch(id string, now time.Time) Actor {
	b.mu.Lock()
	defer b.mu.Unlock()
	a, ok := b.actors[id]
	if !ok {
		a = &Actor{ID: id, Rapport: 0.5, Trust: 0.5, Annoyance: 0.0}
		b.actors[id] = a
	}
	a.LastInteractionAt = now
	return *a
}

func (b *Book) Get(id string) (Actor, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	a, ok := b.actors[id]
	if !ok {
		return Actor{}, false
	}
	return *a, true
}

// UpdateKind classifies a message for relation updates.
type UpdateKind int

const (
	UpdateNeutral UpdateKind = iota
	UpdatePositive
	UpdateNegative
	UpdateAggressive
)

// Classify returns an update kind from a content heuristic (caps,
// punctuation, a few marker words).
func Classify(content string) UpdateKind {
	content = strings.TrimSpace(content)
	if content == "" {
		return UpdateNeutral
	}
	upper, total := 0, 0
	for _, r := range content {
		total++
		if r >= 'A' && r <= 'Z' {
			upper++
		}
	}
	if total > 0 && upper*100/total > 30 && total < 100 {
		return UpdateAggressive
	}
	if strings.HasSuffix(content, "!") && upper > 2 {
		return UpdateAggressive
	}
	lower := strings.ToLower(content)
	if strings.Contains(lower, "thank") || strings.Contains(lower, "please") || strings.Contains(lower, "🙏") {
		return UpdatePositive
	}
	if strings.Contains(lower, "idiot") || strings.Contains(lower, "stupid") || strings.Contains(lower, "shut up") {
		return UpdateNegative
	}
	return UpdateNeutral
}

// ApplyUpdate adjusts relation values for an actor. Delta outside
// (0, 0.2] falls back to 0.08.
func (b *Book) ApplyUpdate(id string, kind UpdateKind, delta float64, now time.Time) Actor {
	if delta <= 0 || delta > 0.2 {
		delta = 0.08
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	a, ok := b.actors[id]
	if !ok {
		a = &Actor{ID: id, Rapport: 0.5, Trust: 0.5}
		b.actors[id] = a
	}
	switch kind {
	case UpdatePositive:
		a.Rapport = clamp01(a.Rapport + delta)
		a.Trust = clamp01(a.Trust + delta*0.5)
		a.Annoyance = clamp01(a.Annoyance - delta*0.5)
	case UpdateNegative:
		a.Annoyance = clamp01(a.Annoyance + delta)
		a.Trust = clamp01(a.Trust - delta*0.5)
	case UpdateAggressive:
		a.Annoyance = clamp01(a.Annoyance + delta*1.2)
		a.Trust = clamp01(a.Trust - delta)
	default:
		// neutral: presence alone is not a signal
	}
	a.LastInteractionAt = now
	return *a
}

// IdleSince returns actors whose last interaction is older than threshold.
func (b *Book) IdleSince(now time.Time, threshold time.Duration) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var out []string
	for id, a := range b.actors {
		if !a.LastInteractionAt.IsZero() && now.Sub(a.LastInteractionAt) >= threshold {
			out = append(out, id)
		}
	}
	return out
}

// Snapshot returns a copy of every actor for persistence.
func (b *Book) Snapshot() map[string]Actor {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]Actor, len(b.actors))
	for id, a := range b.actors {
		out[id] = *a
	}
	return out
}

func (b *Book) Restore(actors map[string]Actor) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, a := range actors {
		cp := a
		cp.ID = id
		b.actors[id] = &cp
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
