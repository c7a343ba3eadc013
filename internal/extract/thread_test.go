package extract

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const threadHTML = `
<html><body>
<div data-region-content="forum-post-core">
	<h1>Welcome to the course</h1>
	<span class="forumpost__username"> Alice Smith </span>
	<span class="forumpost__datetime"> 2 hours ago </span>
	<div class="post-content-container">
		<p>Hello everyone, <strong>welcome</strong>!</p>
		<img src="https://lms.example/pluginfile/banner.png" alt="course banner">
	</div>
</div>
<div data-region="replies-container">
	<div>
		<article>
			<header>
				Re: Welcome to the course
				30 minutes ago
				Bob Jones
			</header>
			<div class="text_to_html">Thanks Alice!</div>
			<div data-region="replies-container">
				<div>
					<article>
						<header>
							Re: Re: Welcome to the course
							10 minutes ago
							Alice Smith
						</header>
						<div class="text_to_html">You are welcome.</div>
					</article>
				</div>
			</div>
		</article>
		<article>
			<header>
				Question
				5 minutes ago
				Carol White
			</header>
			<div class="text_to_html">When is the first deadline?</div>
		</article>
	</div>
</div>
</body></html>`

func TestThreadContent(t *testing.T) {
	ref := time.Date(2022, time.July, 14, 12, 0, 0, 0, time.UTC)

	fetched := make(map[string]bool)
	fetch := func(src string) (string, error) {
		fetched[src] = true
		return "data:image/png;base64,aGk", nil
	}

	thread, err := ThreadContent(threadHTML, "101", ref, fetch)
	require.NoError(t, err)

	assert.Equal(t, "101", thread.ID)
	assert.Equal(t, "Welcome to the course", thread.Title)
	assert.Equal(t, "Alice Smith", thread.Author)
	assert.Equal(t, ref.Add(-2*time.Hour), thread.SentAt)
	assert.Contains(t, thread.Content, "Hello everyone")
	assert.Contains(t, thread.Content, "**welcome**")

	require.Len(t, thread.Images, 1)
	assert.Equal(t, "https://lms.example/pluginfile/banner.png", thread.Images[0].Src)
	assert.Equal(t, "course banner", thread.Images[0].Alt)
	assert.Equal(t, "data:image/png;base64,aGk", thread.Images[0].DataURI)
	assert.True(t, fetched[thread.Images[0].Src])

	require.Len(t, thread.Responses, 2)
	first := thread.Responses[0]
	assert.Equal(t, "Re: Welcome to the course", first.Title)
	assert.Equal(t, "Bob Jones", first.Author)
	assert.Equal(t, "Thanks Alice!", first.Content)
	assert.Equal(t, ref.Add(-30*time.Minute), first.SentAt)

	require.Len(t, first.Responses, 1)
	nested := first.Responses[0]
	assert.Equal(t, "Alice Smith", nested.Author)
	assert.Equal(t, "You are welcome.", nested.Content)
	assert.Empty(t, nested.Responses)

	second := thread.Responses[1]
	assert.Equal(t, "Carol White", second.Author)
	assert.Empty(t, second.Responses)
}

func TestThreadContentFailedImageFetchKeepsRecord(t *testing.T) {
	fetch := func(string) (string, error) {
		return "", errors.New("network down")
	}

	thread, err := ThreadContent(threadHTML, "101", time.Now(), fetch)
	require.NoError(t, err)
	require.Len(t, thread.Images, 1)
	assert.Empty(t, thread.Images[0].DataURI)
	assert.NotEmpty(t, thread.Images[0].Src)
}

func TestThreadContentMissingRegion(t *testing.T) {
	_, err := ThreadContent("<html><body><p>not a thread page</p></body></html>", "101", time.Now(), nil)
	var regionErr *RegionError
	require.ErrorAs(t, err, &regionErr)
	assert.Equal(t, "thread content", regionErr.Region)
}
