// Package world is the agent's spatial environment: a sparse 3D grid of
// locations connected by named directions. The agent occupies exactly
// one cell at a time.
package world

import (
	"fmt"
	"sync"
)

type Coords struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

func (c Coords) Key() string {
	return fmt.Sprintf("%d,%d,%d", c.X, c.Y, c.Z)
}

type Location struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Type        string            `json:"type"`
	Objects     []string          `json:"objects"`
	Connections map[string]Coords `json:"connections"`
}

// Effect is a requested world mutation at a cell.
type Effect struct {
	At           Coords
	AddObject    string
	RemoveObject string
}

type World struct {
	mu        sync.RWMutex
	locations map[string]Location
	position  Coords
}

// Snapshot is the persistable world state.
type Snapshot struct {
	Position  Coords              `json:"position"`
	Locations map[string]Location `json:"locations"`
}

// Default builds the apartment the agent wakes up in.
func Default() *World {
	living := Coords{0, 0, 0}
	bedroom := Coords{0, -1, 0}
	kitchen := Coords{-1, 0, 0}
	hallway := Coords{1, 0, 0}

	w := &World{
		locations: map[string]Location{},
		position:  living,
	}
	w.locations[living.Key()] = Location{
		Name:        "Living Room",
		Description: "A worn sofa, a low table and a bookshelf that has seen better days.",
		Type:        "room",
		Objects:     []string{"sofa", "bookshelf"},
		Connections: map[string]Coords{"west": kitchen, "east": hallway, "south": bedroom},
	}
	w.locations[bedroom.Key()] = Location{
		Name:        "Bedroom",
		Description: "Dim and quiet. The bed is unmade.",
		Type:        "room",
		Objects:     []string{"bed"},
		Connections: map[string]Coords{"north": living},
	}
	w.locations[kitchen.Key()] = Location{
		Name:        "Kitchen",
		Description: "Cramped but functional. Something in the fridge is still edible.",
		Type:        "kitchen",
		Objects:     []string{"sandwich", "kettle"},
		Connections: map[string]Coords{"east": living},
	}
	w.locations[hallway.Key()] = Location{
		Name:        "Hallway",
		Description: "A narrow hallway. The front door is locked from the outside.",
		Type:        "room",
		Objects:     []string{"coat rack"},
		Connections: map[string]Coords{"west": living},
	}
	return w
}

// Query returns the location at c.
func (w *World) Query(c Coords) (Location, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	loc, ok := w.locations[c.Key()]
	if !ok {
		return Location{}, fmt.Errorf("no location at %s", c.Key())
	}
	return copyLocation(loc), nil
}

// Current returns the agent's position and its location.
func (w *World) Current() (Coords, Location) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.position, copyLocation(w.locations[w.position.Key()])
}

// Move walks the agent through a named exit of its current cell.
func (w *World) Move(direction string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	here, ok := w.locations[w.position.Key()]
	if !ok {
		return fmt.Errorf("agent is nowhere: %s", w.position.Key())
	}
	dest, ok := here.Connections[direction]
	if !ok {
		return fmt.Errorf("no exit %q from %s", direction, here.Name)
	}
	if _, ok := w.locations[dest.Key()]; !ok {
		return fmt.Errorf("exit %q leads to a missing cell %s", direction, dest.Key())
	}
	w.position = dest
	return nil
}

// Exits lists the directions available from the current cell.
func (w *World) Exits() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	here := w.locations[w.position.Key()]
	out := make([]string, 0, len(here.Connections))
	for d := range here.Connections {
		out = append(out, d)
	}
	return out
}

// Mutate applies an effect to a cell.
func (w *World) Mutate(e Effect) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	loc, ok := w.locations[e.At.Key()]
	if !ok {
		return fmt.Errorf("no location at %s", e.At.Key())
	}
	if e.RemoveObject != "" {
		found := false
		kept := loc.Objects[:0]
		for _, o := range loc.Objects {
			if o == e.RemoveObject && !found {
				found = true
				continue
			}
			kept = append(kept, o)
		}
		if !found {
			return fmt.Errorf("no %q in %s", e.RemoveObject, loc.Name)
		}
		loc.Objects = kept
	}
	if e.AddObject != "" {
		loc.Objects = append(loc.Objects, e.AddObject)
	}
	w.locations[e.At.Key()] = loc
	return nil
}

func (w *World) SnapshotState() Snapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := Snapshot{
		Position:  w.position,
		Locations: make(map[string]Location, len(w.locations)),
	}
	for k, loc := range w.locations {
		out.Locations[k] = copyLocation(loc)
	}
	return out
}

func (w *World) Restore(s Snapshot) {
	if len(s.Locations) == 0 {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.position = s.Position
	w.locations = make(map[string]Location, len(s.Locations))
	for k, loc := range s.Locations {
		w.locations[k] = copyLocation(loc)
	}
}

func copyLocation(loc Location) Location {
	out := loc
	out.Objects = append([]string(nil), loc.Objects...)
	out.Connections = make(map[string]Coords, len(loc.Connections))
	for d, c := range loc.Connections {
		out.Connections[d] = c
	}
	return out
}
