package analysis

import "time"

// hoursBetween returns the elapsed hours from one RFC 3339 timestamp to
// another. ok is false when either timestamp fails to parse.
func hoursBetween(from, to string) (hours float64, ok bool) {
	start, err := time.Parse(time.RFC3339, from)
	if err != nil {
		return 0, false
	}
	end, err := time.Parse(time.RFC3339, to)
	if err != nil {
		return 0, false
	}
	return end.Sub(start).Hours(), true
}
