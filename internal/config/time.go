package config

import "time"

// SecondsToDuration converts an operator supplied number of seconds. Values
// below one second are raised to one second.
func SecondsToDuration(seconds int) time.Duration {
	if seconds < 1 {
		seconds = 1
	}
	return time.Duration(seconds) * time.Second
}

// StartInterval is the spacing between probe starts for a rate in starts per
// second. Zero means no spacing.
func StartInterval(rate float64) time.Duration {
	if rate <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / rate)
}
