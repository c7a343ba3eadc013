package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const drawerHTML = `
<div data-region="message-drawer">
	<div data-region="day-container">
		<h6>Wednesday, 13 July</h6>
		<div class="message" data-message-id="9001">
			<div>
				Alice Smith
				09:15
			</div>
			<div>Morning all</div>
		</div>
		<div class="message">
			<div>
				Bob Jones
				09:20
			</div>
			<div>Morning Alice</div>
		</div>
	</div>
	<div data-region="day-container">
		<h6>Thursday, 14 July</h6>
		<div class="message">
			<div>
				Alice Smith
				10:00
			</div>
			<div>Standup in five</div>
		</div>
	</div>
</div>`

func TestConversationMessages(t *testing.T) {
	ref := time.Date(2022, time.July, 14, 12, 0, 0, 0, time.UTC)

	messages, err := ConversationMessages(drawerHTML, ref)
	require.NoError(t, err)
	require.Len(t, messages, 3)

	assert.Equal(t, "9001", messages[0].ID)
	assert.Equal(t, "Alice Smith", messages[0].Author)
	assert.Equal(t, "Morning all", messages[0].Content)
	assert.Equal(t, time.Date(2022, time.July, 13, 9, 15, 0, 0, time.UTC), messages[0].SentAt)

	assert.Empty(t, messages[1].ID)
	assert.Equal(t, "Bob Jones", messages[1].Author)

	assert.Equal(t, "Standup in five", messages[2].Content)
	assert.Equal(t, time.Date(2022, time.July, 14, 10, 0, 0, 0, time.UTC), messages[2].SentAt)
}

func TestConversationMessagesEmptyConversation(t *testing.T) {
	messages, err := ConversationMessages(`<div data-region="message-drawer"></div>`, time.Now())
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestConversationMessagesMissingDrawer(t *testing.T) {
	_, err := ConversationMessages("<div><p>wrong page</p></div>", time.Now())
	var regionErr *RegionError
	require.ErrorAs(t, err, &regionErr)
	assert.Equal(t, "message drawer", regionErr.Region)
}

func TestParseDayTimeFallsBackToNow(t *testing.T) {
	ref := time.Date(2022, time.July, 14, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, ref, parseDayTime("", "09:15", ref))
	assert.Equal(t, ref, parseDayTime("Wednesday, 13 July", "", ref))
	assert.Equal(t, ref, parseDayTime("garbage", "garbage", ref))
}
