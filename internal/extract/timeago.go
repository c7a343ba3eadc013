package extract

import (
	"regexp"
	"strconv"
	"time"
)

// The listing pages only expose activity times as relative strings. The
// patterns are checked in priority order and only the first match applies;
// a string matching none of them yields now unchanged.
var agoPatterns = []struct {
	re  *regexp.Regexp
	sub func(now time.Time, n int) time.Time
}{
	{regexp.MustCompile(`(\d+) seconds? ago`), func(now time.Time, n int) time.Time {
		return now.Add(-time.Duration(n) * time.Second)
	}},
	{regexp.MustCompile(`(\d+) minutes? ago`), func(now time.Time, n int) time.Time {
		return now.Add(-time.Duration(n) * time.Minute)
	}},
	{regexp.MustCompile(`(\d+) hours? ago`), func(now time.Time, n int) time.Time {
		return now.Add(-time.Duration(n) * time.Hour)
	}},
	{regexp.MustCompile(`(\d+) days? ago`), func(now time.Time, n int) time.Time {
		return now.AddDate(0, 0, -n)
	}},
	{regexp.MustCompile(`(\d+) months? ago`), func(now time.Time, n int) time.Time {
		return now.AddDate(0, -n, 0)
	}},
}

// TimeAgo resolves a relative-time string like "5 minutes ago" against now.
// This is a heuristic, not an exact clock.
func TimeAgo(when string, now time.Time) time.Time {
	for _, p := range agoPatterns {
		m := p.re.FindStringSubmatch(when)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return now
		}
		return p.sub(now, n)
	}
	return now
}
