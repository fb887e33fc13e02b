package ai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanReply(t *testing.T) {
	assert.Equal(t, "hi there", cleanReply("  hi there  "))
	assert.Equal(t, "after", cleanReply("<think>chain of thought</think>after"))
	assert.Equal(t, "quoted", cleanReply(`"quoted"`))

	long := strings.Repeat("a", replyCap+50)
	got := cleanReply(long)
	assert.True(t, strings.HasSuffix(got, "[truncated]"))
	assert.Len(t, got, replyCap+len("\n\n[truncated]"))
}

func TestIsGarbageResponse(t *testing.T) {
	assert.True(t, isGarbageResponse("<HTML><body>502</body>"))
	assert.True(t, isGarbageResponse("Not allowed."))
	assert.True(t, isGarbageResponse("  ok  "))
	assert.False(t, isGarbageResponse(`{"utterance":"hello"}`))
}
