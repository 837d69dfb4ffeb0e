// Package domain holds the advisor rotation rules shared by the global and
// per-label cursors.
package domain

import "strings"

// Candidate is one entry of a rotation pool.
type Candidate struct {
	Name   string
	Active bool
}

// Names turns a plain advisor list into an all-active pool.
func Names(names []string) []Candidate {
	out := make([]Candidate, 0, len(names))
	for _, n := range names {
		out = append(out, Candidate{Name: n, Active: true})
	}
	return out
}

// PickNext advances a sequential cursor over the active candidates.
// With no active candidate it returns ok=false and the cursor unchanged.
// Cursors below -1 are treated as -1.
func PickNext(candidates []Candidate, cursor int) (selected string, newCursor int, ok bool) {
	active := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c.Active && strings.TrimSpace(c.Name) != "" {
			active = append(active, c.Name)
		}
	}
	if len(active) == 0 {
		return "", cursor, false
	}
	if cursor < -1 {
		cursor = -1
	}
	next := (cursor + 1) % len(active)
	return active[next], next, true
}

// Strategy is the rotation strategy. Sequential is the only implemented one.
type Strategy string

const StrategySequential Strategy = "sequential"

// ParseStrategy maps a stored value onto a supported strategy. Unknown
// values fall back to sequential with known=false so the loader can log it.
func ParseStrategy(raw string) (s Strategy, known bool) {
	switch Strategy(strings.ToLower(strings.TrimSpace(raw))) {
	case StrategySequential, "":
		return StrategySequential, true
	default:
		return StrategySequential, false
	}
}
