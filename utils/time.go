package utils

import "time"

const (
	defaultLayout  = time.RFC3339
	dateOnlyLayout = "2006-01-02"
)

// ParseTimestamp Converts a timestamp to time; full RFC3339 and plain
// dates are accepted
func ParseTimestamp(timestamp string) (time.Time, error) {
	if len(timestamp) == len(dateOnlyLayout) {
		return time.Parse(dateOnlyLayout, timestamp)
	}
	return time.Parse(defaultLayout, timestamp)
}

// FormatTimestamp Converts a time to an RFC3339 timestamp; the zero
// time formats as an empty string
func FormatTimestamp(timestamp time.Time) string {
	if timestamp.IsZero() {
		return ""
	}
	return timestamp.Format(defaultLayout)
}
