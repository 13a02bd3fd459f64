package model

import "time"

// StorageTime returns t in UTC at the microsecond precision of DATETIME(6)
// columns, so a value handed to a client equals the stored one.
func StorageTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
