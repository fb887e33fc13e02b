package ai

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Decision is the structured verdict the generative service returns.
// The model is asked for a single JSON object; anything around it
// (markdown fences, chatter) is stripped before parsing.
type Decision struct {
	Monologue  string            `json:"internal_monologue"`
	Utterance  string            `json:"utterance"`
	Action     string            `json:"action"`
	ActionData map[string]string `json:"action_data"`
	Mood       string            `json:"mood"`
}

var jsonObjectRe = regexp.MustCompile(`(?s)\{.*\}`)

func ParseDecision(raw string) (*Decision, error) {
	raw = strings.TrimSpace(raw)
	block := jsonObjectRe.FindString(raw)
	if block == "" {
		return nil, &Error{Kind: KindService, Msg: "no JSON object in reply"}
	}

	var d Decision
	if err := json.Unmarshal([]byte(block), &d); err != nil {
		return nil, &Error{Kind: KindService, Msg: "decision unmarshal: " + err.Error()}
	}
	d.Utterance = strings.TrimSpace(d.Utterance)
	d.Monologue = strings.TrimSpace(d.Monologue)
	return &d, nil
}
