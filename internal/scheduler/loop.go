package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"psyche/internal/action"
	"psyche/internal/actors"
	"psyche/internal/dispatch"
	"psyche/internal/memory"
	"psyche/internal/needs"
	"psyche/internal/storage"
	"psyche/internal/world"

	"psyche/internal/ai"
)

const (
	TierDeep  = "deep"
	TierCheap = "cheap"

	// preemptMargin is the urgency lead a candidate action needs over
	// the current one before the loop will switch.
	preemptMargin = 0.1

	eventQueueSize = 64
)

type Deps struct {
	Needs    *needs.Model
	Book     *actors.Book
	World    *world.World
	Recorder *memory.Recorder
	Journal  *memory.Journal
	Emitter  Emitter
	Provider ai.Provider
	Ledger   *dispatch.Ledger
	Store    *storage.Store

	Beat             time.Duration
	ConsolidateAfter time.Duration

	// Now is the loop's clock; nil means time.Now. Tests inject one.
	Now func() time.Time
}

type pendingMsg struct {
	ActorID string
	Content string
	At      time.Time
}

// Loop is the agent's control thread. Everything it holds is mutated
// from one goroutine only; Post is the sole entry point for the rest
// of the process.
type Loop struct {
	needs      *needs.Model
	book       *actors.Book
	world      *world.World
	recorder   *memory.Recorder
	journal    *memory.Journal
	emitter    Emitter
	ledger     *dispatch.Ledger
	store      *storage.Store
	dispatcher *dispatch.Dispatcher
	machine    *action.Machine
	specs      []*action.Spec

	events chan Event
	now    func() time.Time

	beat             time.Duration
	consolidateAfter time.Duration

	lastBeat     time.Time
	pending      []pendingMsg
	lastActor    string
	mood         string
	consolidated map[string]time.Time
}

func NewLoop(d Deps) (*Loop, error) {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Beat <= 0 {
		d.Beat = time.Second
	}
	if d.ConsolidateAfter <= 0 {
		d.ConsolidateAfter = 10 * time.Minute
	}

	l := &Loop{
		needs:            d.Needs,
		book:             d.Book,
		world:            d.World,
		recorder:         d.Recorder,
		journal:          d.Journal,
		emitter:          d.Emitter,
		ledger:           d.Ledger,
		store:            d.Store,
		events:           make(chan Event, eventQueueSize),
		now:              d.Now,
		beat:             d.Beat,
		consolidateAfter: d.ConsolidateAfter,
		mood:             "neutral",
		consolidated:     make(map[string]time.Time),
	}

	l.dispatcher = dispatch.New(d.Provider, d.Ledger, l.postResult)

	l.specs = l.buildSpecs()
	m, err := action.NewMachine(l.specs, preemptMargin)
	if err != nil {
		return nil, err
	}
	l.machine = m
	return l, nil
}

// Post enqueues an event. Never blocks; a full queue drops the event
// with a log line rather than stalling the producer.
func (l *Loop) Post(ev Event) {
	select {
	case l.events <- ev:
	default:
		log.Printf("[LOOP] queue full, dropping event kind=%d", ev.Kind)
	}
}

// postResult delivers a dispatcher result. Unlike Post it blocks until
// the queue takes it: an instance waiting on a correlation token must
// always see its result arrive, or it would hold the token forever.
// Only the dispatcher's call goroutine sends here, so blocking is safe.
func (l *Loop) postResult(r dispatch.Result) {
	l.events <- Event{Kind: EventDecisionResult, Result: &r, At: l.now()}
}

// Run owns the agent until ctx is done, then persists a final snapshot.
func (l *Loop) Run(ctx context.Context) {
	t := time.NewTicker(l.beat)
	defer t.Stop()
	l.lastBeat = l.now()
	log.Printf("[LOOP] awake beat=%s", l.beat)

	for {
		select {
		case <-ctx.Done():
			l.save()
			log.Println("[LOOP] asleep")
			return
		case ev := <-l.events:
			l.iterate(l.now(), &ev)
		case <-t.C:
			l.iterate(l.now(), nil)
		}
	}
}

// iterate is one heartbeat: at most one event, then drift, selection,
// and a single step of the current action.
func (l *Loop) iterate(now time.Time, ev *Event) {
	if l.lastBeat.IsZero() {
		l.lastBeat = now
	}
	l.needs.Advance(now.Sub(l.lastBeat))
	l.lastBeat = now

	if ev != nil {
		l.handleEvent(*ev, now)
	}

	l.ensureCurrent(now)
	l.maybePreempt(now)
	l.stepCurrent(now)
	l.maybeConsolidate(now)
}

func (l *Loop) handleEvent(ev Event, now time.Time) {
	switch ev.Kind {
	case EventUserMessage:
		l.book.Touch(ev.ActorID, now)
		l.book.ApplyUpdate(ev.ActorID, actors.Classify(ev.Content), 0.08, now)
		l.needs.ApplyEvent("message_received")
		if err := l.recorder.RecordInteraction(ev.ActorID, "user", ev.Content, now); err != nil {
			log.Printf("[LOOP] record failed: %v", err)
		}
		l.lastActor = ev.ActorID
		l.pending = append(l.pending, pendingMsg{ActorID: ev.ActorID, Content: ev.Content, At: now})

	case EventDecisionResult:
		if ev.Result == nil {
			return
		}
		l.handleResult(*ev.Result, now)

	case EventForced:
		l.handleForced(ev, now)
	}
}

func (l *Loop) handleResult(res dispatch.Result, now time.Time) {
	l.dispatcher.Observe(res, now)

	cur := l.machine.Current()
	if cur == nil || cur.PendingToken == "" || cur.PendingToken != res.Token {
		log.Printf("[LOOP] stale result token=%s dropped", res.Token)
		return
	}
	cur.PendingToken = ""

	step := cur.CurrentStep()
	if step == nil {
		l.machine.Complete(now)
		return
	}
	if res.Err != nil {
		log.Printf("[LOOP] decision failed kind=%s step=%s err=%v", cur.Spec.Kind, step.Name, res.Err)
		l.fallbackOrAbandon(step, now)
		return
	}
	if err := step.Apply(res.Raw, now); err != nil {
		log.Printf("[LOOP] apply failed kind=%s step=%s err=%v", cur.Spec.Kind, step.Name, err)
		l.fallbackOrAbandon(step, now)
		return
	}
	l.advanceStep(now)
}

func (l *Loop) handleForced(ev Event, now time.Time) {
	spec := l.specFor(ev.Action)
	if spec == nil {
		log.Printf("[LOOP] forced interrupt for unknown kind=%s", ev.Action)
		return
	}
	if _, err := l.machine.Interrupt(spec, now, true); err != nil {
		l.fatal(err)
	}
}

func (l *Loop) ensureCurrent(now time.Time) {
	if l.machine.Current() != nil {
		return
	}
	spec, _ := l.machine.Pick(l.needs.Urgency())
	if _, err := l.machine.Begin(spec, now); err != nil {
		l.fatal(err)
	}
}

func (l *Loop) maybePreempt(now time.Time) {
	cur := l.machine.Current()
	if cur == nil {
		return
	}
	urgency := l.needs.Urgency()
	cand, score := l.machine.Pick(urgency)
	if cand.Kind == cur.Spec.Kind {
		return
	}
	curScore := l.machine.Score(cur.Spec, urgency)
	if cur.Spec.Kind != action.KindIdle && score <= curScore+l.machine.Margin() {
		return
	}
	if _, err := l.machine.Interrupt(cand, now, false); err != nil {
		if errors.Is(err, action.ErrNotInterruptible) {
			return
		}
		l.fatal(err)
	}
}

func (l *Loop) stepCurrent(now time.Time) {
	cur := l.machine.Current()
	if cur == nil || cur.PendingToken != "" {
		return
	}
	step := cur.CurrentStep()
	if step == nil {
		l.machine.Complete(now)
		return
	}

	switch step.Kind {
	case action.StepLocal:
		done, err := step.Run(now)
		if err != nil {
			log.Printf("[LOOP] step failed kind=%s step=%s err=%v", cur.Spec.Kind, step.Name, err)
			l.machine.Abandon(now)
			return
		}
		if done {
			l.advanceStep(now)
		}

	case action.StepDecision:
		// Build may consume buffered user messages; hold on to them
		// until the dispatch is actually accepted.
		buffered := l.pending
		messages := step.Build(now)
		token, err := l.dispatcher.Dispatch(dispatch.Request{
			Preferred: cur.Spec.PreferredTier,
			Fallback:  cur.Spec.FallbackTier,
			Cost:      1,
			Messages:  messages,
		}, now)
		if err != nil {
			log.Printf("[LOOP] dispatch refused kind=%s step=%s err=%v", cur.Spec.Kind, step.Name, err)
			l.pending = buffered
			l.fallbackOrAbandon(step, now)
			return
		}
		cur.PendingToken = token
	}
}

func (l *Loop) advanceStep(now time.Time) {
	cur := l.machine.Current()
	if cur == nil {
		return
	}
	cur.StepIndex++
	if cur.CurrentStep() == nil {
		l.machine.Complete(now)
	}
}

func (l *Loop) fallbackOrAbandon(step *action.Step, now time.Time) {
	if step.Fallback != nil {
		step.Fallback(now)
		l.advanceStep(now)
		return
	}
	l.machine.Abandon(now)
}

func (l *Loop) maybeConsolidate(now time.Time) {
	for _, id := range l.book.IdleSince(now, l.consolidateAfter) {
		a, ok := l.book.Get(id)
		if !ok {
			continue
		}
		if last, seen := l.consolidated[id]; seen && !a.LastInteractionAt.After(last) {
			continue
		}
		l.consolidated[id] = now
		l.recorder.TriggerConsolidation(id)
	}
}

func (l *Loop) specFor(kind action.Kind) *action.Spec {
	for _, s := range l.specs {
		if s.Kind == kind {
			return s
		}
	}
	return nil
}

// Resting reports whether every budget tier is cooling down.
func (l *Loop) Resting() bool {
	return l.ledger.Resting(l.now())
}

// Snapshot renders the loop state for the fatal dump.
func (l *Loop) Snapshot() string {
	now := l.now()
	tiers := map[string]bool{}
	for _, id := range l.ledger.Tiers() {
		tiers[id] = l.ledger.Tier(id).CoolingDown(now)
	}
	state := struct {
		Needs       map[string]float64 `json:"needs"`
		Mood        string             `json:"mood"`
		Pending     int                `json:"pending_messages"`
		TierCooling map[string]bool    `json:"tier_cooling"`
	}{
		Needs:       l.needs.Snapshot(),
		Mood:        l.mood,
		Pending:     len(l.pending),
		TierCooling: tiers,
	}
	b, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Sprintf("%+v", state)
	}
	return string(b) + "\n" + l.machine.Dump()
}

func (l *Loop) fatal(err error) {
	var v *action.Violation
	if errors.As(err, &v) {
		log.Printf("[LOOP] FATAL %v\n%s\n%s", v, v.Dump, l.Snapshot())
	} else {
		log.Printf("[LOOP] FATAL %v\n%s", err, l.Snapshot())
	}
	log.Fatalf("[LOOP] halting")
}

func (l *Loop) save() {
	if l.store == nil {
		return
	}
	if err := l.store.SaveNeeds(l.needs.Snapshot()); err != nil {
		log.Printf("[LOOP] save needs failed: %v", err)
	}
	if err := l.store.SaveActors(l.book.Snapshot()); err != nil {
		log.Printf("[LOOP] save actors failed: %v", err)
	}
	if err := l.store.SaveWorld(l.world.SnapshotState()); err != nil {
		log.Printf("[LOOP] save world failed: %v", err)
	}
}
