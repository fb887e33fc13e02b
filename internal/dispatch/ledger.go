// Package dispatch rations calls to the generative decision service.
// Each tier has a refillable budget plus a cooldown that backs off
// exponentially while the tier keeps getting exhausted.
package dispatch

import (
	"log"
	"time"

	"golang.org/x/time/rate"
)

const (
	cooldownBase   = 30 * time.Second
	cooldownCap    = 8 * time.Minute
	cooldownLinear = 1 * time.Minute
)

// TierBudget guards one tier. All methods take an explicit now so the
// backoff schedule is testable with a fake clock. Not safe for
// concurrent use: only the scheduler loop touches it.
type TierBudget struct {
	ID string

	lim           *rate.Limiter
	cooldownUntil time.Time
	backoff       time.Duration
}

// NewTierBudget creates a tier refilling at refillPerMin tokens per
// minute with the given burst capacity.
func NewTierBudget(id string, refillPerMin float64, burst int) *TierBudget {
	if burst < 1 {
		burst = 1
	}
	return &TierBudget{
		ID:  id,
		lim: rate.NewLimiter(rate.Limit(refillPerMin/60.0), burst),
	}
}

func (t *TierBudget) CoolingDown(now time.Time) bool {
	return now.Before(t.cooldownUntil)
}

// Take withdraws cost tokens. A failed withdrawal puts the tier into
// cooldown; the token bucket itself never goes negative.
func (t *TierBudget) Take(cost int, now time.Time) bool {
	if t.CoolingDown(now) {
		return false
	}
	if t.lim.AllowN(now, cost) {
		return true
	}
	t.enterCooldown(now)
	return false
}

// ForceCooldown is for remote rate-limit verdicts: the service said no
// regardless of what the local bucket thought.
func (t *TierBudget) ForceCooldown(now time.Time) {
	t.enterCooldown(now)
}

// Reset clears the backoff after a successful call on this tier.
func (t *TierBudget) Reset() {
	t.backoff = 0
	t.cooldownUntil = time.Time{}
}

// Remaining reports the tokens available at now. Observability only.
func (t *TierBudget) Remaining(now time.Time) float64 {
	return t.lim.TokensAt(now)
}

func (t *TierBudget) enterCooldown(now time.Time) {
	switch {
	case t.backoff == 0:
		t.backoff = cooldownBase
	case t.backoff < cooldownCap:
		t.backoff *= 2
		if t.backoff > cooldownCap {
			t.backoff = cooldownCap
		}
	default:
		t.backoff += cooldownLinear
	}
	t.cooldownUntil = now.Add(t.backoff)
	log.Printf("[LEDGER] tier=%s cooldown=%s until=%s", t.ID, t.backoff, t.cooldownUntil.Format(time.RFC3339))
}

// Ledger is the set of tiers.
type Ledger struct {
	tiers map[string]*TierBudget
	order []string
}

func NewLedger(tiers ...*TierBudget) *Ledger {
	l := &Ledger{tiers: make(map[string]*TierBudget, len(tiers))}
	for _, t := range tiers {
		l.tiers[t.ID] = t
		l.order = append(l.order, t.ID)
	}
	return l
}

func (l *Ledger) Tier(id string) *TierBudget {
	return l.tiers[id]
}

// Resting reports whether every tier is cooling down, i.e. the agent
// cannot reach the decision service at all right now.
func (l *Ledger) Resting(now time.Time) bool {
	if len(l.tiers) == 0 {
		return false
	}
	for _, t := range l.tiers {
		if !t.CoolingDown(now) {
			return false
		}
	}
	return true
}

// Tiers returns the tier IDs in registration order.
func (l *Ledger) Tiers() []string {
	return append([]string(nil), l.order...)
}
