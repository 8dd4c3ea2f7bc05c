package dbx

import "time"

// Timestamps are stored as INTEGER unix milliseconds in UTC.

func ToMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
