package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoveConnectivity(t *testing.T) {
	w := Default()

	_, here := w.Current()
	assert.Equal(t, "Living Room", here.Name)

	require.NoError(t, w.Move("west"))
	_, here = w.Current()
	assert.Equal(t, "Kitchen", here.Name)

	require.NoError(t, w.Move("east"))
	_, here = w.Current()
	assert.Equal(t, "Living Room", here.Name)
}

func TestMoveUnknownDirection(t *testing.T) {
	w := Default()
	err := w.Move("up")
	assert.Error(t, err)

	// Position unchanged after a failed move.
	_, here := w.Current()
	assert.Equal(t, "Living Room", here.Name)
}

func TestMutateAddRemove(t *testing.T) {
	w := Default()
	kitchen := Coords{-1, 0, 0}

	require.NoError(t, w.Mutate(Effect{At: kitchen, RemoveObject: "sandwich"}))
	loc, err := w.Query(kitchen)
	require.NoError(t, err)
	assert.NotContains(t, loc.Objects, "sandwich")

	// Removing it again fails.
	assert.Error(t, w.Mutate(Effect{At: kitchen, RemoveObject: "sandwich"}))

	require.NoError(t, w.Mutate(Effect{At: kitchen, AddObject: "leftovers"}))
	loc, _ = w.Query(kitchen)
	assert.Contains(t, loc.Objects, "leftovers")
}

func TestQueryMissingCell(t *testing.T) {
	w := Default()
	_, err := w.Query(Coords{9, 9, 9})
	assert.Error(t, err)
}

func TestSnapshotRestore(t *testing.T) {
	w := Default()
	require.NoError(t, w.Move("east"))
	snap := w.SnapshotState()

	w2 := Default()
	w2.Restore(snap)
	pos, here := w2.Current()
	assert.Equal(t, Coords{1, 0, 0}, pos)
	assert.Equal(t, "Hallway", here.Name)

	// Empty snapshot (fresh install) leaves the default world alone.
	w3 := Default()
	w3.Restore(Snapshot{})
	_, here = w3.Current()
	assert.Equal(t, "Living Room", here.Name)
}
