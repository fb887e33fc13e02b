package scheduler

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"psyche/internal/action"
	"psyche/internal/ai"
	"psyche/internal/world"
)

const persona = "You are Psyche, a housebound companion with a life of your own. " +
	"You answer as yourself, never as an assistant. " +
	"Reply with a single JSON object with the keys internal_monologue, utterance, action, action_data, mood."

var foods = map[string]bool{"sandwich": true, "leftovers": true}

func (l *Loop) buildSpecs() []*action.Spec {
	return []*action.Spec{
		l.idleSpec(),
		l.converseSpec(),
		l.sleepSpec(),
		l.exploreSpec(),
		l.reflectSpec(),
	}
}

func (l *Loop) idleSpec() *action.Spec {
	return &action.Spec{
		Kind:          action.KindIdle,
		Interruptible: true,
		Priority:      0,
		Steps: []action.Step{{
			Name: "drift",
			Kind: action.StepLocal,
			// Idling never finishes on its own; something more urgent
			// has to come along.
			Run: func(time.Time) (bool, error) { return false, nil },
		}},
	}
}

func (l *Loop) converseSpec() *action.Spec {
	spec := &action.Spec{
		Kind:          action.KindConverse,
		Interruptible: true,
		Priority:      5,
		PreferredTier: TierDeep,
		FallbackTier:  TierCheap,
		Trigger:       action.Trigger{Need: "attention", Threshold: 0.75},
	}
	// An unanswered message outranks every drive.
	spec.Score = func(urgency map[string]float64) float64 {
		if len(l.pending) > 0 {
			return 0.95
		}
		return urgency["attention"]
	}
	spec.Steps = []action.Step{{
		Name:  "reply",
		Kind:  action.StepDecision,
		Build: l.buildConversePrompt,
		Apply: func(raw string, now time.Time) error {
			d, err := ai.ParseDecision(raw)
			if err != nil {
				return err
			}
			if d.Mood != "" {
				l.mood = d.Mood
			}
			if d.Utterance == "" {
				return &ai.Error{Kind: ai.KindService, Msg: "decision had no utterance"}
			}
			target := l.lastActor
			if target == "" {
				target = "operator"
			}
			l.emitter.EmitUtterance(target, d.Utterance, Public)
			if err := l.recorder.RecordInteraction(target, "agent", d.Utterance, now); err != nil {
				return err
			}
			l.needs.ApplyEvent("spoke")
			return nil
		},
	}}
	return spec
}

func (l *Loop) buildConversePrompt(now time.Time) []ai.Message {
	taken := l.pending
	l.pending = nil

	target := l.lastActor
	if target == "" {
		target = "operator"
	}

	var sys strings.Builder
	sys.WriteString(persona)
	sys.WriteString("\n\nCurrent mood: " + l.mood + "\n")
	sys.WriteString(l.needsBlock())
	if a, ok := l.book.Get(target); ok {
		fmt.Fprintf(&sys, "Your relation to %s: rapport=%.2f trust=%.2f annoyance=%.2f\n",
			target, a.Rapport, a.Trust, a.Annoyance)
	}
	if recent := l.recorder.Recent(target, 6); len(recent) > 0 {
		sys.WriteString("Recent exchanges:\n")
		for _, e := range recent {
			fmt.Fprintf(&sys, "- %s: %s\n", e.Role, e.Content)
		}
	}
	if len(taken) == 0 {
		sys.WriteString("No one has spoken in a while and you are craving contact. Reach out first.\n")
	}

	messages := []ai.Message{{Role: "system", Content: sys.String()}}
	for _, p := range taken {
		messages = append(messages, ai.Message{Role: "user", Content: p.Content})
	}
	return messages
}

func (l *Loop) sleepSpec() *action.Spec {
	return &action.Spec{
		Kind:          action.KindSleep,
		Interruptible: false,
		Priority:      4,
		Trigger:       action.Trigger{Need: "energy", Threshold: 0.72},
		Steps: []action.Step{
			{
				Name: "settle",
				Kind: action.StepLocal,
				Run: func(now time.Time) (bool, error) {
					l.emitter.EmitUtterance("self", "Eyes closing. Going to lie down.", Private)
					return true, nil
				},
			},
			{
				Name: "rest",
				Kind: action.StepLocal,
				Run: func(now time.Time) (bool, error) {
					l.needs.Nudge("energy", -0.02)
					v, _ := l.needs.Get("energy")
					return v <= 0.15, nil
				},
			},
			{
				Name: "wake",
				Kind: action.StepLocal,
				Run: func(now time.Time) (bool, error) {
					l.emitter.EmitUtterance("self", "Awake again.", Private)
					return true, nil
				},
			},
		},
	}
}

func (l *Loop) exploreSpec() *action.Spec {
	return &action.Spec{
		Kind:          action.KindExplore,
		Interruptible: true,
		Resumable:     true,
		Priority:      3,
		PreferredTier: TierCheap,
		Trigger:       action.Trigger{Need: "curiosity", Threshold: 0.42},
		Steps: []action.Step{
			{
				Name: "look",
				Kind: action.StepLocal,
				Run: func(now time.Time) (bool, error) {
					_, here := l.world.Current()
					l.emitter.EmitUtterance("self", fmt.Sprintf("%s. %s", here.Name, here.Description), Private)
					return true, nil
				},
			},
			{
				Name:  "choose",
				Kind:  action.StepDecision,
				Build: l.buildExplorePrompt,
				Apply: func(raw string, now time.Time) error {
					d, err := ai.ParseDecision(raw)
					if err != nil {
						return err
					}
					dir := d.ActionData["direction"]
					if !l.validExit(dir) {
						dir = l.firstExit()
					}
					if dir == "" {
						return fmt.Errorf("nowhere to go")
					}
					return l.world.Move(dir)
				},
				Fallback: func(now time.Time) {
					if dir := l.firstExit(); dir != "" {
						_ = l.world.Move(dir)
					}
				},
			},
			{
				Name: "arrive",
				Kind: action.StepLocal,
				Run: func(now time.Time) (bool, error) {
					pos, here := l.world.Current()
					l.emitter.EmitUtterance("self", "Wandered into the "+here.Name+".", Private)
					if hunger, _ := l.needs.Get("hunger"); hunger > 0.5 {
						for _, o := range here.Objects {
							if foods[o] {
								if err := l.world.Mutate(world.Effect{At: pos, RemoveObject: o}); err == nil {
									l.needs.ApplyEvent("ate")
									l.emitter.EmitUtterance("self", "Ate the "+o+".", Private)
								}
								break
							}
						}
					}
					l.needs.ApplyEvent("explored")
					return true, nil
				},
			},
		},
	}
}

func (l *Loop) buildExplorePrompt(now time.Time) []ai.Message {
	_, here := l.world.Current()
	exits := l.exits()
	sys := persona + "\n\n" + l.needsBlock() +
		fmt.Sprintf("You are in the %s. %s\nExits: %s.\n", here.Name, here.Description, strings.Join(exits, ", ")) +
		`Pick a direction to wander. Set action to "move" and action_data to {"direction": "<one of the exits>"}.`
	return []ai.Message{{Role: "system", Content: sys}}
}

func (l *Loop) reflectSpec() *action.Spec {
	return &action.Spec{
		Kind:          action.KindReflect,
		Interruptible: false,
		Priority:      2,
		PreferredTier: TierCheap,
		Trigger:       action.Trigger{Need: "mental_load", Threshold: 0.49},
		Steps: []action.Step{
			{
				Name:  "write",
				Kind:  action.StepDecision,
				Build: l.buildReflectPrompt,
				Apply: func(raw string, now time.Time) error {
					d, err := ai.ParseDecision(raw)
					if err != nil {
						return err
					}
					text := d.Monologue
					if text == "" {
						text = d.Utterance
					}
					if text == "" {
						return &ai.Error{Kind: ai.KindService, Msg: "decision had nothing to journal"}
					}
					if d.Mood != "" {
						l.mood = d.Mood
					}
					return l.journal.Append(text, now)
				},
				Fallback: func(now time.Time) {
					_ = l.journal.Append("Too scattered to put the day in order. Trying again later.", now)
				},
			},
			{
				Name: "unwind",
				Kind: action.StepLocal,
				Run: func(now time.Time) (bool, error) {
					l.needs.ApplyEvent("reflected")
					return true, nil
				},
			},
		},
	}
}

func (l *Loop) buildReflectPrompt(now time.Time) []ai.Message {
	var sys strings.Builder
	sys.WriteString(persona)
	sys.WriteString("\n\n" + l.needsBlock())
	sys.WriteString("Current mood: " + l.mood + "\n")
	if l.lastActor != "" {
		if recent := l.recorder.Recent(l.lastActor, 6); len(recent) > 0 {
			sys.WriteString("What happened lately:\n")
			for _, e := range recent {
				fmt.Fprintf(&sys, "- %s: %s\n", e.Role, e.Content)
			}
		}
	}
	sys.WriteString("Write a short private journal entry about how you are doing. Put it in internal_monologue.")
	return []ai.Message{{Role: "system", Content: sys.String()}}
}

func (l *Loop) needsBlock() string {
	snap := l.needs.Snapshot()
	names := make([]string, 0, len(snap))
	for n := range snap {
		names = append(names, n)
	}
	sort.Strings(names)
	var b strings.Builder
	b.WriteString("Inner state: ")
	for i, n := range names {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%.2f", n, snap[n])
	}
	b.WriteString("\n")
	return b.String()
}

func (l *Loop) exits() []string {
	exits := l.world.Exits()
	sort.Strings(exits)
	return exits
}

func (l *Loop) firstExit() string {
	exits := l.exits()
	if len(exits) == 0 {
		return ""
	}
	return exits[0]
}

func (l *Loop) validExit(dir string) bool {
	for _, e := range l.world.Exits() {
		if e == dir {
			return true
		}
	}
	return false
}
