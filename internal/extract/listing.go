package extract

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"lmswatch/internal/nav"
	"lmswatch/internal/types"
)

var threadIDPattern = regexp.MustCompile(`discuss\.php\?d=(\d+)`)

// ForumThreads parses a forum listing page into partial thread records,
// most recently active first. An empty listing yields an empty slice; only
// structural failures error.
func ForumThreads(html string, now time.Time) ([]types.PartialThread, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	rows := doc.Find(nav.ListingRow)
	agos := doc.Find(nav.ListingLastAgo)

	var threads []types.PartialThread
	rows.Each(func(i int, row *goquery.Selection) {
		// Rows render author on the first line and title on the second.
		lines := textLines(row.Text())
		if len(lines) < 2 {
			return
		}

		inner, _ := row.Html()
		m := threadIDPattern.FindStringSubmatch(inner)
		var id string
		if m != nil {
			id = m[1]
		}

		updatedAt := now
		if ago := agos.Eq(i); ago.Length() > 0 {
			updatedAt = TimeAgo(strings.TrimSpace(ago.Text()), now)
		}

		threads = append(threads, types.PartialThread{
			ID:        id,
			Title:     lines[1],
			Author:    lines[0],
			UpdatedAt: updatedAt,
		})
	})

	sort.SliceStable(threads, func(i, j int) bool {
		return threads[i].UpdatedAt.After(threads[j].UpdatedAt)
	})
	return threads, nil
}

// textLines splits element text into trimmed, non-empty lines.
func textLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
