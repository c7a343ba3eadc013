// Package diff computes which freshly extracted records are genuinely new
// relative to the previous run's snapshot. The diff is recomputed from
// scratch each run against the full prior listing; running it twice with an
// unchanged listing yields nothing the second time.
package diff

import "lmswatch/internal/types"

// NewThreads returns the threads in current that have no match in previous.
// Threads match by site id when both records carry one, otherwise by title
// (listing rows don't always expose the id).
func NewThreads(current, previous []types.PartialThread) []types.PartialThread {
	var fresh []types.PartialThread
	for _, thread := range current {
		if !containsThread(previous, thread) {
			fresh = append(fresh, thread)
		}
	}
	return fresh
}

func containsThread(threads []types.PartialThread, target types.PartialThread) bool {
	for _, t := range threads {
		if sameThread(t, target) {
			return true
		}
	}
	return false
}

func sameThread(a, b types.PartialThread) bool {
	if a.ID != "" && b.ID != "" {
		return a.ID == b.ID
	}
	return a.Title == b.Title
}

// NewMessages returns the messages in current that have no match in
// previous. Messages match by id when both carry one, otherwise by the
// (author, content) pair — which cannot tell a second identical message
// from a re-observation of the first.
func NewMessages(current, previous []types.Message) []types.Message {
	var fresh []types.Message
	for _, msg := range current {
		if !containsMessage(previous, msg) {
			fresh = append(fresh, msg)
		}
	}
	return fresh
}

func containsMessage(messages []types.Message, target types.Message) bool {
	for _, m := range messages {
		if sameMessage(m, target) {
			return true
		}
	}
	return false
}

func sameMessage(a, b types.Message) bool {
	if a.ID != "" && b.ID != "" {
		return a.ID == b.ID
	}
	return a.Author == b.Author && a.Content == b.Content
}
