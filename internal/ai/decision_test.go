package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDecisionPlainObject(t *testing.T) {
	raw := `{"internal_monologue": "hm", "utterance": "hello there", "action": "speak", "mood": "warm"}`
	d, err := ParseDecision(raw)
	require.NoError(t, err)
	assert.Equal(t, "hello there", d.Utterance)
	assert.Equal(t, "speak", d.Action)
	assert.Equal(t, "warm", d.Mood)
}

func TestParseDecisionFencedObject(t *testing.T) {
	raw := "Sure, here you go:\n```json\n{\"utterance\": \"hi\", \"action\": \"idle\"}\n```"
	d, err := ParseDecision(raw)
	require.NoError(t, err)
	assert.Equal(t, "hi", d.Utterance)
}

func TestParseDecisionActionData(t *testing.T) {
	raw := `{"action": "move", "action_data": {"direction": "north"}}`
	d, err := ParseDecision(raw)
	require.NoError(t, err)
	assert.Equal(t, "north", d.ActionData["direction"])
}

func TestParseDecisionNoObject(t *testing.T) {
	_, err := ParseDecision("I would rather not answer in JSON.")
	require.Error(t, err)
	k, ok := KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, KindService, k)
}

func TestKindOfForeignError(t *testing.T) {
	_, ok := KindOf(assert.AnError)
	assert.False(t, ok)
}
