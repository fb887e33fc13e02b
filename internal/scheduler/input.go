package scheduler

import (
	"context"
	"os"
	"strings"
	"time"
)

// WatchInputFile polls the input file once a second and posts every
// non-empty line as a user message.
func WatchInputFile(ctx context.Context, path, actorID string, post func(Event)) {
	t := time.NewTicker(time.Second)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			drainInputFile(path, actorID, post)
		}
	}
}

// drainInputFile claims the input file by renaming it aside before
// reading. Writers append through O_CREATE, so lines arriving mid-read
// land in a fresh file for the next poll instead of being truncated
// away.
func drainInputFile(path, actorID string, post func(Event)) {
	claimed := path + ".take"
	if err := os.Rename(path, claimed); err != nil {
		return
	}
	b, err := os.ReadFile(claimed)
	_ = os.Remove(claimed)
	if err != nil {
		return
	}
	for _, line := range strings.Split(string(b), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		post(Event{Kind: EventUserMessage, ActorID: actorID, Content: line, At: time.Now()})
	}
}
