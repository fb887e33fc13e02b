// Package personality holds the agent's innate trait snapshot. Traits are
// read once at startup and scale the needs model; nothing in the running
// process mutates them.
package personality

import (
	"encoding/json"
	"os"
	"path/filepath"
)

type View struct {
	Curiosity         float64 `json:"curiosity"`
	FearOfAbandonment float64 `json:"fear_of_abandonment"`
	MoodStability     float64 `json:"mood_stability"`
	Creativity        float64 `json:"creativity"`
}

func Default() View {
	return View{
		Curiosity:         0.7,
		FearOfAbandonment: 0.6,
		MoodStability:     0.5,
		Creativity:        0.65,
	}
}

// Load reads the trait file, creating it with defaults on first run.
func Load(path string) (View, error) {
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		v := Default()
		if err := Save(path, v); err != nil {
			return v, err
		}
		return v, nil
	}
	if err != nil {
		return Default(), err
	}

	var v View
	if err := json.Unmarshal(b, &v); err != nil {
		return Default(), err
	}
	return v, nil
}

func Save(path string, v View) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}
