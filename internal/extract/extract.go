// Package extract converts DOM snapshots into typed records. Every function
// here is pure over an HTML string: navigation happens elsewhere, and the
// same markup always yields the same records (modulo the clock passed in).
package extract

import "fmt"

// RegionError reports that an expected content region was missing from a
// page that was otherwise reached. It aborts extraction for the one source
// being scraped, not the whole run.
type RegionError struct {
	Region string
}

func (e *RegionError) Error() string {
	return fmt.Sprintf("missing content region: %s", e.Region)
}

// ImageFetcher downloads an image and returns its payload as a data: URI.
// The watcher supplies an in-page fetch so the session's cookies apply.
type ImageFetcher func(src string) (string, error)
