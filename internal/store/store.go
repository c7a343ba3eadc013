// Package store persists per-source snapshots as JSON blobs, one file per
// monitored source. The layout is shared with external consumers: a
// namespace directory per record kind, files keyed by an encoding of the
// source's id or display name. A missing file is an empty snapshot, never
// an error, and malformed JSON is treated the same way.
package store

import (
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"lmswatch/internal/types"
)

// Store reads and writes snapshot files under a cache directory.
type Store struct {
	dir    string
	logger *slog.Logger
}

// New creates a store rooted at dir.
func New(dir string, logger *slog.Logger) *Store {
	return &Store{dir: dir, logger: logger.With("component", "store")}
}

// Key returns the filesystem-safe encoding of a source identifier.
func Key(name string) string {
	encoded := base64.StdEncoding.EncodeToString([]byte(name))
	return strings.ReplaceAll(encoded, "=", "")
}

// ForumThreads returns the last saved thread listing for a forum.
func (s *Store) ForumThreads(forum types.Forum) []types.PartialThread {
	var threads []types.PartialThread
	s.read(filepath.Join("forums", Key(forum.ID)+".json"), &threads)
	return threads
}

// SaveForumThreads replaces a forum's snapshot with the full current
// listing. Items absent from the listing drop out of the snapshot.
func (s *Store) SaveForumThreads(forum types.Forum, threads []types.PartialThread) error {
	return s.write(filepath.Join("forums", Key(forum.ID)+".json"), threads)
}

// Messages returns the last saved message snapshot for a conversation.
// Conversations are keyed by display name; the drawer doesn't always
// expose an id.
func (s *Store) Messages(conv types.Conversation) []types.Message {
	var messages []types.Message
	s.read(filepath.Join("messages", Key(conv.Name)+".json"), &messages)
	return messages
}

// SaveMessages replaces a conversation's message snapshot.
func (s *Store) SaveMessages(conv types.Conversation, messages []types.Message) error {
	return s.write(filepath.Join("messages", Key(conv.Name)+".json"), messages)
}

// ThreadContent returns a thread's cached full content, or nil when the
// thread has not been visited.
func (s *Store) ThreadContent(threadID string) *types.Thread {
	var thread types.Thread
	if !s.read(filepath.Join("threads", Key(threadID)+".json"), &thread) {
		return nil
	}
	return &thread
}

// SaveThreadContent caches a visited thread's full content.
func (s *Store) SaveThreadContent(thread types.Thread) error {
	return s.write(filepath.Join("threads", Key(thread.ID)+".json"), thread)
}

// read unmarshals a snapshot file into out, reporting whether anything was
// loaded. Missing or malformed files leave out untouched.
func (s *Store) read(rel string, out any) bool {
	path := filepath.Join(s.dir, rel)
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		s.logger.Warn("Snapshot file malformed, treating as empty", "path", path, "error", err)
		return false
	}
	return true
}

func (s *Store) write(rel string, v any) error {
	path := filepath.Join(s.dir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
