package extract

import (
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"lmswatch/internal/nav"
	"lmswatch/internal/types"
)

// ConversationMessages parses an open conversation's message drawer HTML
// into chronological message records. The drawer groups messages into one
// container per day with the date as a heading; each message carries its
// author and a wall-clock time.
func ConversationMessages(html string, now time.Time) ([]types.Message, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	if doc.Find(nav.MessageDrawer).Length() == 0 &&
		doc.Find(nav.DayContainer).Length() == 0 {
		return nil, &RegionError{Region: "message drawer"}
	}

	var messages []types.Message
	doc.Find(nav.DayContainer).Each(func(_ int, day *goquery.Selection) {
		date := strings.TrimSpace(day.Find("h6").First().Text())

		day.Find(".message").Each(func(_ int, msg *goquery.Selection) {
			children := msg.Children().FilterFunction(func(_ int, s *goquery.Selection) bool {
				return strings.TrimSpace(s.Text()) != ""
			})
			if children.Length() < 2 {
				return
			}

			header := textLines(children.Eq(0).Text())
			var author, clock string
			if len(header) > 0 {
				author = header[0]
			}
			if len(header) > 1 {
				clock = header[1]
			}
			content := strings.TrimSpace(children.Eq(1).Text())

			messages = append(messages, types.Message{
				ID:      msg.AttrOr("data-message-id", ""),
				Author:  author,
				Content: content,
				SentAt:  parseDayTime(date, clock, now),
			})
		})
	})

	return messages, nil
}

// Day headings carry no year and clock text varies between 24-hour and
// am/pm forms depending on the member's locale.
var dayTimeLayouts = []string{
	"Monday, 2 January 2006 15:04",
	"2 January 2006 15:04",
	"Monday, 2 January 2006 3:04 PM",
	"2 January 2006 3:04 PM",
}

// parseDayTime combines a day heading and a clock string into a timestamp,
// assuming the current year. Unparseable input falls back to now.
func parseDayTime(date, clock string, now time.Time) time.Time {
	if date == "" || clock == "" {
		return now
	}
	combined := fmt.Sprintf("%s %d %s", date, now.Year(), clock)
	for _, layout := range dayTimeLayouts {
		if t, err := time.ParseInLocation(layout, combined, now.Location()); err == nil {
			return t
		}
	}
	return now
}
