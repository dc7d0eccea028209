package presence

import (
	"fmt"
	"time"
)

// Bucket boundaries for the human-readable last-seen text. The platform
// frontend shows these phrases verbatim, so they are part of the contract.
const (
	// MinuteBucketMax is the upper bound of the "N minuten geleden" bucket.
	MinuteBucketMax = time.Hour
	// HourBucketMax is the upper bound of the "N uur geleden" bucket.
	HourBucketMax = 24 * time.Hour
	// YesterdayMax is the upper bound of the "gisteren" bucket.
	YesterdayMax = 48 * time.Hour
	// DayBucketMax is the upper bound of the "N dagen geleden" bucket;
	// beyond it the exact date is shown.
	DayBucketMax = 7 * 24 * time.Hour
)

// dutchMonths holds the short month names used for dates past a week,
// e.g. "2 jan 2006". time.Format only knows English month names.
var dutchMonths = [12]string{
	"jan", "feb", "mrt", "apr", "mei", "jun",
	"jul", "aug", "sep", "okt", "nov", "dec",
}

func lastSeenDate(t time.Time) string {
	return fmt.Sprintf("%d %s %d", t.Day(), dutchMonths[t.Month()-1], t.Year())
}

// LastSeenText buckets the elapsed time since lastSeen into the fixed
// human phrases the platform uses. Within the online threshold the user
// counts as online now.
func LastSeenText(lastSeen, now time.Time, threshold time.Duration) string {
	elapsed := now.Sub(lastSeen)
	switch {
	case elapsed <= threshold:
		return "nu online"
	case elapsed < MinuteBucketMax:
		return fmt.Sprintf("%d minuten geleden", int(elapsed.Minutes()))
	case elapsed < HourBucketMax:
		return fmt.Sprintf("%d uur geleden", int(elapsed.Hours()))
	case elapsed < YesterdayMax:
		return "gisteren"
	case elapsed < DayBucketMax:
		return fmt.Sprintf("%d dagen geleden", int(elapsed.Hours()/24))
	default:
		return lastSeenDate(lastSeen)
	}
}
