package scheduler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrainInputFilePostsLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello\n\n  are you there?  \n"), 0644))

	var got []Event
	drainInputFile(path, "operator", func(ev Event) { got = append(got, ev) })

	require.Len(t, got, 2)
	assert.Equal(t, "hello", got[0].Content)
	assert.Equal(t, "are you there?", got[1].Content)
	assert.Equal(t, "operator", got[0].ActorID)
	assert.Equal(t, EventUserMessage, got[0].Kind)

	// The file was claimed; nothing is left behind to re-read.
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(path + ".take")
	assert.True(t, os.IsNotExist(err))
}

func TestDrainInputFileMissingIsNoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.txt")

	calls := 0
	drainInputFile(path, "operator", func(Event) { calls++ })
	assert.Zero(t, calls)
}

func TestDrainInputFileLeavesLaterWritesForNextPoll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.txt")
	require.NoError(t, os.WriteFile(path, []byte("first\n"), 0644))

	var got []string
	drainInputFile(path, "operator", func(ev Event) { got = append(got, ev.Content) })
	require.Equal(t, []string{"first"}, got)

	// A writer appending after the claim creates a fresh file that the
	// next poll picks up intact.
	require.NoError(t, os.WriteFile(path, []byte("second\n"), 0644))
	drainInputFile(path, "operator", func(ev Event) { got = append(got, ev.Content) })
	assert.Equal(t, []string{"first", "second"}, got)
}
