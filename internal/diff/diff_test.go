package diff

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lmswatch/internal/types"
)

func TestNewThreads(t *testing.T) {
	known := []types.PartialThread{
		{ID: "10", Title: "Intro"},
	}
	current := []types.PartialThread{
		{ID: "10", Title: "Intro"},
		{ID: "11", Title: "Homework"},
	}

	fresh := NewThreads(current, known)
	require.Len(t, fresh, 1)
	assert.Equal(t, "11", fresh[0].ID)
}

func TestNewThreadsIdempotent(t *testing.T) {
	listing := []types.PartialThread{
		{ID: "10", Title: "Intro"},
		{ID: "11", Title: "Homework"},
	}

	fresh := NewThreads(listing, nil)
	assert.Len(t, fresh, 2)

	// The same listing against itself finds nothing.
	assert.Empty(t, NewThreads(listing, listing))
}

func TestNewThreadsTitleFallback(t *testing.T) {
	// Listing rows without ids match by title.
	previous := []types.PartialThread{{Title: "Intro"}}
	current := []types.PartialThread{
		{Title: "Intro"},
		{Title: "Homework"},
	}

	fresh := NewThreads(current, previous)
	require.Len(t, fresh, 1)
	assert.Equal(t, "Homework", fresh[0].Title)

	// An id on only one side cannot match by id, so the title decides.
	previous = []types.PartialThread{{Title: "Intro"}}
	current = []types.PartialThread{{ID: "10", Title: "Intro"}}
	assert.Empty(t, NewThreads(current, previous))
}

func TestNewMessages(t *testing.T) {
	previous := []types.Message{
		{Author: "A", Content: "Hi"},
	}
	current := []types.Message{
		{Author: "A", Content: "Hi"},
		{Author: "B", Content: "Hello"},
	}

	fresh := NewMessages(current, previous)
	require.Len(t, fresh, 1)
	assert.Equal(t, "B", fresh[0].Author)
}

// Identity by (author, content) cannot tell a repeated identical message
// from a re-observation: a genuine duplicate is suppressed.
func TestNewMessagesDuplicateContentSuppressed(t *testing.T) {
	previous := []types.Message{
		{Author: "A", Content: "Hi"},
	}
	current := []types.Message{
		{Author: "A", Content: "Hi"},
		{Author: "A", Content: "Hi"},
	}

	assert.Empty(t, NewMessages(current, previous))
}

// When both sides carry message ids, the id decides and identical text is
// no longer conflated.
func TestNewMessagesPrefersIDs(t *testing.T) {
	previous := []types.Message{
		{ID: "1", Author: "A", Content: "Hi"},
	}
	current := []types.Message{
		{ID: "1", Author: "A", Content: "Hi"},
		{ID: "2", Author: "A", Content: "Hi"},
	}

	fresh := NewMessages(current, previous)
	require.Len(t, fresh, 1)
	assert.Equal(t, "2", fresh[0].ID)
}

func TestNewMessagesIgnoresTimestamps(t *testing.T) {
	// The drawer re-renders relative day headers, so timestamps drift
	// between observations; they play no part in identity.
	previous := []types.Message{
		{Author: "A", Content: "Hi", SentAt: time.Date(2022, 7, 13, 9, 0, 0, 0, time.UTC)},
	}
	current := []types.Message{
		{Author: "A", Content: "Hi", SentAt: time.Date(2022, 7, 13, 9, 1, 0, 0, time.UTC)},
	}

	assert.Empty(t, NewMessages(current, previous))
}
