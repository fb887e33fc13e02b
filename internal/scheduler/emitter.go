package scheduler

import (
	"encoding/json"
	"log"
	"os"
	"time"
)

type Visibility int

const (
	// Public utterances reach whoever is listening on the output file.
	Public Visibility = iota
	// Private utterances stay in the mind log.
	Private
)

type Emitter interface {
	EmitUtterance(actorID, text string, vis Visibility)
}

// OutMessage is the wire shape the chat client polls for.
type OutMessage struct {
	To   string    `json:"to"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// FileEmitter overwrites the output file with the latest public
// utterance. The chat client polls and deduplicates by timestamp.
type FileEmitter struct {
	path string
	now  func() time.Time
}

func NewFileEmitter(path string) *FileEmitter {
	return &FileEmitter{path: path, now: time.Now}
}

func (e *FileEmitter) EmitUtterance(actorID, text string, vis Visibility) {
	if vis == Private {
		log.Printf("[MIND] to=%s %s", actorID, text)
		return
	}
	msg := OutMessage{To: actorID, Text: text, At: e.now()}
	b, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[SPEAK] marshal failed: %v", err)
		return
	}
	if err := os.WriteFile(e.path, append(b, '\n'), 0644); err != nil {
		log.Printf("[SPEAK] write failed: %v", err)
		return
	}
	log.Printf("[SPEAK] to=%s chars=%d", actorID, len(text))
}
