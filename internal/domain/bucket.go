package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// BucketSeconds is the fixed window duration in seconds. Polymarket's
	// 15-minute up/down series is keyed on these buckets.
	BucketSeconds int64 = 900

	// WindowDuration is BucketSeconds as a time.Duration.
	WindowDuration = time.Duration(BucketSeconds) * time.Second

	// slugPrefix encodes the asset and window duration of the series.
	slugPrefix = "btc-updown-15m"
)

// BucketStart returns the largest multiple of BucketSeconds that is <= epoch,
// i.e. the start of the bucket containing that instant.
func BucketStart(epoch int64) int64 {
	return (epoch / BucketSeconds) * BucketSeconds
}

// WindowSlug returns the market slug for a bucket start time. Equal inputs
// yield byte-identical slugs; slugs double as idempotency keys elsewhere.
func WindowSlug(bucketStart int64) string {
	return fmt.Sprintf("%s-%d", slugPrefix, bucketStart)
}

// CandidateSlugs returns back+forward+1 slugs centered on epoch's bucket,
// stepping one bucket at a time, in ascending chronological order. There is
// no server-side index for these markets; discovery works by probing each
// candidate individually.
func CandidateSlugs(epoch int64, back, forward int) []string {
	start := BucketStart(epoch)
	slugs := make([]string, 0, back+forward+1)
	for k := -back; k <= forward; k++ {
		slugs = append(slugs, WindowSlug(start+BucketSeconds*int64(k)))
	}
	return slugs
}

// SlugStartTime recovers a window's start instant from its slug. Needed for
// windows that have already rolled out of the tracked list.
func SlugStartTime(slug string) (time.Time, error) {
	idx := strings.LastIndex(slug, "-")
	if idx < 0 || idx == len(slug)-1 {
		return time.Time{}, fmt.Errorf("domain.SlugStartTime: malformed slug %q", slug)
	}
	epoch, err := strconv.ParseInt(slug[idx+1:], 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("domain.SlugStartTime: malformed slug %q: %w", slug, err)
	}
	return time.Unix(epoch, 0).UTC(), nil
}
