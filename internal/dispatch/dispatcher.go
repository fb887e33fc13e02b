package dispatch

import (
	"context"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"psyche/internal/ai"
)

// Request asks for one generative decision. Preferred names the tier to
// charge; Fallback (optional) is consulted once when the preferred tier
// refuses locally.
type Request struct {
	Preferred string
	Fallback  string
	Cost      int
	Messages  []ai.Message
}

// Result is what eventually comes back, tagged with the correlation
// token the caller got from Dispatch.
type Result struct {
	Token string
	Tier  string
	Raw   string
	Err   error
}

// Dispatcher issues decision calls without ever blocking its caller.
// Dispatch and Observe must only be called from the scheduler loop; the
// network work itself runs in a short-lived goroutine that touches
// nothing but the provider and the sink.
type Dispatcher struct {
	Retries    int
	Timeout    time.Duration
	RetryDelay time.Duration

	provider ai.Provider
	ledger   *Ledger
	sink     func(Result)
}

func New(provider ai.Provider, ledger *Ledger, sink func(Result)) *Dispatcher {
	return &Dispatcher{
		Retries:    3,
		Timeout:    30 * time.Second,
		RetryDelay: 2 * time.Second,
		provider:   provider,
		ledger:     ledger,
		sink:       sink,
	}
}

// Dispatch charges a tier and starts the call. The returned token
// identifies the Result that will arrive on the sink. A rate-limited
// error here means no external call was made.
func (d *Dispatcher) Dispatch(req Request, now time.Time) (string, error) {
	if req.Cost < 1 {
		req.Cost = 1
	}
	tier := d.ledger.Tier(req.Preferred)
	if tier == nil {
		return "", &ai.Error{Kind: ai.KindService, Msg: "unknown tier " + req.Preferred}
	}
	if !tier.Take(req.Cost, now) {
		fb := d.ledger.Tier(req.Fallback)
		if fb == nil || !fb.Take(req.Cost, now) {
			return "", &ai.Error{Kind: ai.KindRateLimited, Msg: "all tiers exhausted"}
		}
		log.Printf("[DISPATCH] tier=%s exhausted, falling back tier=%s", req.Preferred, fb.ID)
		tier = fb
	}

	token := uuid.NewString()
	go d.call(token, tier.ID, req.Messages)
	return token, nil
}

func (d *Dispatcher) call(token, tierID string, messages []ai.Message) {
	var raw string
	var err error
	for attempt := 1; attempt <= d.Retries; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), d.Timeout)
		raw, err = d.provider.Generate(ctx, messages)
		cancel()
		if err == nil {
			break
		}
		if ai.IsRateLimited(err) {
			// The service itself said stop; retrying would dig the hole deeper.
			break
		}
		if attempt < d.Retries {
			log.Printf("[DISPATCH] attempt=%d tier=%s err=%v", attempt, tierID, err)
			time.Sleep(addJitter(d.RetryDelay))
		}
	}
	d.sink(Result{Token: token, Tier: tierID, Raw: raw, Err: err})
}

// Observe settles a finished call against the ledger. Loop thread only.
func (d *Dispatcher) Observe(res Result, now time.Time) {
	tier := d.ledger.Tier(res.Tier)
	if tier == nil {
		return
	}
	if res.Err == nil {
		tier.Reset()
		return
	}
	if ai.IsRateLimited(res.Err) {
		tier.ForceCooldown(now)
	}
}

// addJitter adds 0-25% of delay so parallel retries do not line up.
func addJitter(delay time.Duration) time.Duration {
	if delay <= 0 {
		return delay
	}
	return delay + time.Duration(rand.Int63n(int64(delay/4)))
}
