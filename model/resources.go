package model

import "fmt"

// ResourceSnapshot is one observation of the planet's stock. It is produced
// fresh every cycle and never mutated; fields the page didn't show stay zero.
type ResourceSnapshot struct {
	Metal     int64 `json:"metal"`
	Crystal   int64 `json:"crystal"`
	Deuterium int64 `json:"deuterium"`
	Energy    int64 `json:"energy"`
}

// Total is metal + crystal + deuterium. Energy is not a stockpile and is excluded.
func (r ResourceSnapshot) Total() int64 {
	return r.Metal + r.Crystal + r.Deuterium
}

func (r ResourceSnapshot) String() string {
	return fmt.Sprintf("M:%d C:%d D:%d E:%d", r.Metal, r.Crystal, r.Deuterium, r.Energy)
}

// ParseAmount extracts the digits from a rendered amount ("1.234.567",
// "12,500", "  880 ") and returns them as a number. Text with no digits is 0,
// so an unreadable value can never make a readiness check pass.
func ParseAmount(text string) int64 {
	var n int64
	seen := false
	for _, c := range text {
		if c < '0' || c > '9' {
			continue
		}
		seen = true
		d := int64(c - '0')
		// Saturate instead of wrapping on absurd input.
		if n > (1<<63-1-d)/10 {
			return 1<<63 - 1
		}
		n = n*10 + d
	}
	if !seen {
		return 0
	}
	return n
}
