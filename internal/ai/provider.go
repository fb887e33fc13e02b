package ai

import (
	"context"
	"fmt"
	"strings"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Provider interface {
	Generate(ctx context.Context, messages []Message) (string, error)
}

func New(engine string) (Provider, error) {
	switch {
	case engine == "pollinations" || engine == "":
		return NewPollinationsProvider(), nil
	case strings.HasPrefix(engine, "g4f"):
		return NewG4FProvider(engine), nil
	default:
		return nil, fmt.Errorf("unsupported AI_PROVIDER: %s", engine)
	}
}
