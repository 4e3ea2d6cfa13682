// Package update defines refresh cadences for re-resolving live attributes.
package update

import (
	"fmt"
	"strings"
	"time"
)

// Interval is a refresh cadence (prime seconds, so periodic watchers spread out).
type Interval int

const (
	Fast   Interval = 2  // 2s - battery, memory pressure
	Medium Interval = 5  // 5s - process counters
	Slow   Interval = 23 // 23s - storage, certificates
)

// Duration returns the interval as a time.Duration. Panics on invalid value.
func (i Interval) Duration() time.Duration {
	switch i {
	case Fast, Medium, Slow:
		return time.Duration(i) * time.Second
	default:
		panic(fmt.Sprintf("invalid update.Interval: %d (must be Fast/Medium/Slow)", int(i)))
	}
}

// String returns string representation.
func (i Interval) String() string {
	switch i {
	case Fast:
		return "Fast(2s)"
	case Medium:
		return "Medium(5s)"
	case Slow:
		return "Slow(23s)"
	default:
		return fmt.Sprintf("Invalid(%d)", int(i))
	}
}

// Parse accepts "fast", "medium" or "slow" (case-insensitive).
func Parse(s string) (Interval, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fast":
		return Fast, nil
	case "medium":
		return Medium, nil
	case "slow":
		return Slow, nil
	default:
		return 0, fmt.Errorf("invalid interval %q (fast, medium or slow)", s)
	}
}
