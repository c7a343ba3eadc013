package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimeAgo(t *testing.T) {
	ref := time.Date(2022, time.July, 14, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		when string
		want time.Time
	}{
		{"seconds", "30 seconds ago", ref.Add(-30 * time.Second)},
		{"single second", "1 second ago", ref.Add(-time.Second)},
		{"minutes", "5 minutes ago", ref.Add(-5 * time.Minute)},
		{"hours", "3 hours ago", ref.Add(-3 * time.Hour)},
		{"days", "2 days ago", ref.AddDate(0, 0, -2)},
		{"months", "4 months ago", ref.AddDate(0, -4, 0)},
		{"no match", "yesterday at noon", ref},
		{"empty", "", ref},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TimeAgo(tt.when, ref))
		})
	}
}

// A string matching several patterns resolves against the
// earliest-priority one only; the units are not combined.
func TestTimeAgoPriority(t *testing.T) {
	ref := time.Date(2022, time.July, 14, 12, 0, 0, 0, time.UTC)

	got := TimeAgo("10 seconds ago and 5 minutes ago", ref)
	assert.Equal(t, ref.Add(-10*time.Second), got)

	got = TimeAgo("2 hours ago, 1 day ago", ref)
	assert.Equal(t, ref.Add(-2*time.Hour), got)
}
