package nav

import "fmt"

// LMS DOM selectors. These are isolated here because the portal is expected
// to change them; update these when scraping breaks.
const (
	// Message drawer
	MessagingButton    = `[aria-label="Messaging Button"]`
	MessageDrawer      = `[data-region="message-drawer"]`
	CategoryContainer  = `[id^="message-drawer-view-overview-container-"]`
	ConversationLine   = `.bux_msg_line`
	ConversationAnchor = `a[data-conversation-id]`
	BackButton         = `.icon-back-in-drawer`
	DayContainer       = `[data-region="day-container"]`

	// Forum listing rows
	ListingRow     = `[id="first-post-author-image"]`
	ListingLastAgo = `[id="last-post-ago"]`

	// Thread page regions
	ThreadCore    = `[data-region-content*="-post-core"]`
	RepliesRegion = `[data-region="replies-container"]`
)

// ForumURL builds the listing URL for a forum id.
func ForumURL(domain, id string) string {
	return fmt.Sprintf("https://%s/mod/forum/view.php?id=%s", domain, id)
}

// ThreadURL builds the discussion URL for a thread id.
func ThreadURL(domain, id string) string {
	return fmt.Sprintf("https://%s/mod/forum/discuss.php?d=%s", domain, id)
}
