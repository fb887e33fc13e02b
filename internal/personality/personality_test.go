package personality

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "core", "personality.json")

	v, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), v)

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestLoadExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "personality.json")
	want := View{Curiosity: 0.9, FearOfAbandonment: 0.1, MoodStability: 0.8, Creativity: 0.2}
	require.NoError(t, Save(path, want))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
