package timex

import "time"

// NowMs returns Unix milliseconds as int64.
func NowMs() int64 { return time.Now().UnixMilli() }

// Ms converts a millisecond count from configuration into a duration.
// Zero or negative counts fall back to def.
func Ms(n int, def time.Duration) time.Duration {
	if n <= 0 {
		return def
	}
	return time.Duration(n) * time.Millisecond
}

// Deci converts tenths of a second (the unit of the panel's delay settings).
func Deci(n uint8) time.Duration { return time.Duration(n) * 100 * time.Millisecond }
