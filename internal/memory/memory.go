// Package memory is the agent's episodic store: one JSON file per
// interaction under data/memory/<actor>/, compacted into a running
// lessons log when a conversation goes quiet.
package memory

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

type Entry struct {
	ActorID   string `json:"actor_id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

type Recorder struct {
	root string
}

func NewRecorder(root string) *Recorder {
	return &Recorder{root: root}
}

func (r *Recorder) actorDir(actorID string) string {
	return filepath.Join(r.root, "memory", actorID)
}

// RecordInteraction appends one interaction. One file per entry to
// avoid rewriting large arrays.
func (r *Recorder) RecordInteraction(actorID, role, content string, at time.Time) error {
	dir := r.actorDir(actorID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	entry := Entry{
		ActorID:   actorID,
		Role:      role,
		Content:   content,
		Timestamp: at.UTC().Format(time.RFC3339),
	}
	b, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return err
	}
	name := at.UTC().Format("20060102_150405.000000000") + ".json"
	return os.WriteFile(filepath.Join(dir, name), b, 0644)
}

// Recent returns up to limit entries for an actor, oldest first.
func (r *Recorder) Recent(actorID string, limit int) []Entry {
	if limit <= 0 {
		return nil
	}
	names := r.entryFiles(actorID)
	if len(names) > limit {
		names = names[len(names)-limit:]
	}
	var out []Entry
	for _, name := range names {
		b, err := os.ReadFile(filepath.Join(r.actorDir(actorID), name))
		if err != nil {
			continue
		}
		var e Entry
		if json.Unmarshal(b, &e) != nil {
			continue
		}
		out = append(out, e)
	}
	return out
}

// TriggerConsolidation compacts an actor's loose entries into the
// lessons log in the background. Fire and forget; the caller never
// waits on it.
func (r *Recorder) TriggerConsolidation(actorID string) {
	go func() {
		if err := r.consolidate(actorID); err != nil {
			log.Printf("[MEMORY] consolidation failed actor=%s err=%v", actorID, err)
		}
	}()
}

func (r *Recorder) consolidate(actorID string) error {
	dir := r.actorDir(actorID)
	names := r.entryFiles(actorID)
	if len(names) == 0 {
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n## %s (%d exchanges)\n", time.Now().UTC().Format(time.RFC3339), len(names))
	for _, name := range names {
		raw, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		var e Entry
		if json.Unmarshal(raw, &e) != nil {
			continue
		}
		line := e.Content
		if len(line) > 160 {
			line = line[:160] + "..."
		}
		fmt.Fprintf(&b, "- %s %s: %s\n", e.Timestamp, e.Role, line)
	}

	logPath := filepath.Join(dir, "log.md")
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(b.String()); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	// Loose entries are gone once compacted.
	for _, name := range names {
		_ = os.Remove(filepath.Join(dir, name))
	}
	log.Printf("[MEMORY] consolidated actor=%s entries=%d", actorID, len(names))
	return nil
}

func (r *Recorder) entryFiles(actorID string) []string {
	entries, err := os.ReadDir(r.actorDir(actorID))
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

// Journal is the agent's own free-form diary.
type Journal struct {
	path string
}

func NewJournal(path string) *Journal {
	return &Journal{path: path}
}

func (j *Journal) Append(text string, at time.Time) error {
	if err := os.MkdirAll(filepath.Dir(j.path), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(j.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = fmt.Fprintf(f, "[%s] %s\n", at.UTC().Format(time.RFC3339), strings.TrimSpace(text))
	return err
}
