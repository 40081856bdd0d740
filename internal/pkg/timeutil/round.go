package timeutil

import "time"

// FloorToMinute drops seconds and finer from t.
func FloorToMinute(t time.Time) time.Time {
	return t.Truncate(time.Minute)
}

// CeilToMinute rounds t up to the next minute boundary unless it is already
// on one.
func CeilToMinute(t time.Time) time.Time {
	floored := t.Truncate(time.Minute)
	if floored.Equal(t) {
		return t
	}
	return floored.Add(time.Minute)
}

// TruncateToSecond drops sub-second precision from t.
func TruncateToSecond(t time.Time) time.Time {
	return t.Truncate(time.Second)
}
