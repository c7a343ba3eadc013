package store

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lmswatch/internal/types"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	return New(dir, logger), dir
}

func TestKeyIsFilesystemSafe(t *testing.T) {
	// Base64 padding would collide with shell globbing and the original
	// cache layout strips it.
	assert.NotContains(t, Key("1920"), "=")
	assert.NotContains(t, Key("Group Messages"), "=")
	assert.NotEqual(t, Key("a"), Key("b"))
}

func TestForumThreadsMissingFileIsEmpty(t *testing.T) {
	s, _ := newTestStore(t)
	assert.Empty(t, s.ForumThreads(types.Forum{ID: "1920"}))
}

func TestSaveForumThreadsReplacesSnapshot(t *testing.T) {
	s, _ := newTestStore(t)
	forum := types.Forum{ID: "1920", Name: "Noticeboard"}

	require.NoError(t, s.SaveForumThreads(forum, []types.PartialThread{
		{ID: "1", Title: "Old news"},
		{ID: "2", Title: "Older news"},
	}))

	// A later save replaces the whole file; items absent from the new
	// listing are dropped, not retained.
	require.NoError(t, s.SaveForumThreads(forum, []types.PartialThread{
		{ID: "2", Title: "Older news"},
		{ID: "3", Title: "Fresh news"},
	}))

	threads := s.ForumThreads(forum)
	require.Len(t, threads, 2)
	assert.Equal(t, "2", threads[0].ID)
	assert.Equal(t, "3", threads[1].ID)
}

func TestMalformedSnapshotTreatedAsEmpty(t *testing.T) {
	s, dir := newTestStore(t)
	forum := types.Forum{ID: "1920"}

	path := filepath.Join(dir, "forums", Key(forum.ID)+".json")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	assert.Empty(t, s.ForumThreads(forum))
}

func TestMessagesKeyedByConversationName(t *testing.T) {
	s, _ := newTestStore(t)
	conv := types.Conversation{Name: "Software Development", IsStaff: false}

	require.NoError(t, s.SaveMessages(conv, []types.Message{
		{Author: "A", Content: "Hi"},
	}))

	// Same name, different id metadata: still the same snapshot.
	got := s.Messages(types.Conversation{ID: "77", Name: "Software Development"})
	require.Len(t, got, 1)
	assert.Equal(t, "Hi", got[0].Content)
}

func TestThreadContentRoundTrip(t *testing.T) {
	s, _ := newTestStore(t)

	assert.Nil(t, s.ThreadContent("101"))

	require.NoError(t, s.SaveThreadContent(types.Thread{
		ID:      "101",
		Title:   "Welcome",
		Author:  "Alice",
		Content: "Hello",
		Responses: []types.Response{
			{Author: "Bob", Content: "Thanks"},
		},
	}))

	thread := s.ThreadContent("101")
	require.NotNil(t, thread)
	assert.Equal(t, "Welcome", thread.Title)
	require.Len(t, thread.Responses, 1)
	assert.Equal(t, "Bob", thread.Responses[0].Author)
}
