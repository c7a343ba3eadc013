package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listingHTML = `
<html><body>
<div id="first-post-author-image">
	Alice Smith
	Welcome to the course
	<a href="/mod/forum/discuss.php?d=101">open</a>
</div>
<div id="first-post-author-image">
	Bob Jones
	Assignment questions
	<a href="/mod/forum/discuss.php?d=102">open</a>
</div>
<div id="first-post-author-image">
	Carol White
	Reading list
	<a href="/mod/forum/discuss.php?d=103">open</a>
</div>
<span id="last-post-ago">3 days ago</span>
<span id="last-post-ago">5 minutes ago</span>
<span id="last-post-ago">2 hours ago</span>
</body></html>`

func TestForumThreads(t *testing.T) {
	ref := time.Date(2022, time.July, 14, 12, 0, 0, 0, time.UTC)

	threads, err := ForumThreads(listingHTML, ref)
	require.NoError(t, err)
	require.Len(t, threads, 3)

	// Most recently active first.
	assert.Equal(t, "102", threads[0].ID)
	assert.Equal(t, "Assignment questions", threads[0].Title)
	assert.Equal(t, "Bob Jones", threads[0].Author)
	assert.Equal(t, ref.Add(-5*time.Minute), threads[0].UpdatedAt)

	assert.Equal(t, "103", threads[1].ID)
	assert.Equal(t, "101", threads[2].ID)
	assert.Equal(t, "Alice Smith", threads[2].Author)
}

func TestForumThreadsEmptyListing(t *testing.T) {
	threads, err := ForumThreads("<html><body></body></html>", time.Now())
	require.NoError(t, err)
	assert.Empty(t, threads)
}
