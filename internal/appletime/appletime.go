// Package appletime converts between the Messages store's timestamp encoding
// (nanoseconds since 2001-01-01T00:00:00Z) and Unix seconds.
package appletime

import (
	"math"
	"time"
)

// EpochOffset is the number of seconds between the Unix epoch and
// 2001-01-01T00:00:00Z.
const EpochOffset = 978307200

const nanosPerSecond = 1_000_000_000

// Layout is the format used for human-readable message dates.
const Layout = "2006-01-02 15:04:05"

// Unknown is returned by Format for values that are not a valid calendar time.
const Unknown = "Unknown"

// ToUnix converts a store timestamp to Unix seconds, dropping sub-second precision.
func ToUnix(storeValue int64) int64 {
	return storeValue/nanosPerSecond + EpochOffset
}

// Bounds of the Unix-second range whose store encoding fits in an int64.
const (
	maxStoreUnix = math.MaxInt64/nanosPerSecond + EpochOffset
	minStoreUnix = math.MinInt64/nanosPerSecond + EpochOffset
)

// ToStore converts Unix seconds to a store timestamp. Used to translate
// caller-supplied date bounds into store-native range predicates. Values
// outside the representable range saturate at math.MaxInt64 or
// math.MinInt64.
func ToStore(unixSeconds int64) int64 {
	switch {
	case unixSeconds > maxStoreUnix:
		return math.MaxInt64
	case unixSeconds < minStoreUnix:
		return math.MinInt64
	}
	return (unixSeconds - EpochOffset) * nanosPerSecond
}

// Time converts a store timestamp to a UTC time.Time with full precision.
func Time(storeValue int64) time.Time {
	sec, nano := storeValue/nanosPerSecond, storeValue%nanosPerSecond
	return time.Unix(sec+EpochOffset, nano).UTC()
}

// Format renders Unix seconds as "YYYY-MM-DD HH:MM:SS" in UTC, or Unknown
// when the year falls outside 0..9999.
func Format(unixSeconds int64) string {
	t := time.Unix(unixSeconds, 0).UTC()
	if y := t.Year(); y < 0 || y > 9999 {
		return Unknown
	}
	return t.Format(Layout)
}
