package domain

import (
	"strings"
	"time"
)

// Advisor is a member of the global rotation plus the contact details used
// for notifications.
type Advisor struct {
	Name    string `json:"name" yaml:"name"`
	Active  bool   `json:"active" yaml:"active"`
	Phone   string `json:"phone,omitempty" yaml:"phone"`
	Email   string `json:"email,omitempty" yaml:"email"`
	Session string `json:"session,omitempty" yaml:"session"`
}

// Settings is the lead-assignment configuration record.
type Settings struct {
	Strategy          Strategy  `json:"strategy" yaml:"strategy"`
	Advisors          []Advisor `json:"advisors" yaml:"advisors"`
	LastAssignedIndex int       `json:"lastAssignedIndex" yaml:"lastAssignedIndex"`
	UpdatedAt         time.Time `json:"updatedAt,omitempty" yaml:"-"`

	// CoercedFrom holds the stored strategy when it was not recognised.
	// It is never persisted.
	CoercedFrom string `json:"-" yaml:"-"`
}

// DefaultSettings is the record used before anything was configured.
func DefaultSettings() Settings {
	return Settings{
		Strategy:          StrategySequential,
		Advisors:          []Advisor{},
		LastAssignedIndex: -1,
	}
}

// GlobalStep receives the advisors and cursor read inside the critical section
// and returns the cursor to persist. ok=false leaves the stored cursor as is.
type GlobalStep func(advisors []Advisor, cursor int) (next int, ok bool)

// Candidates converts the advisor list into a rotation pool.
func Candidates(advisors []Advisor) []Candidate {
	out := make([]Candidate, 0, len(advisors))
	for _, a := range advisors {
		out = append(out, Candidate{Name: a.Name, Active: a.Active})
	}
	return out
}

// FindAdvisor looks an advisor up by name, ignoring case and surrounding space.
func (s Settings) FindAdvisor(name string) (Advisor, bool) {
	name = strings.TrimSpace(name)
	for _, a := range s.Advisors {
		if strings.EqualFold(strings.TrimSpace(a.Name), name) {
			return a, true
		}
	}
	return Advisor{}, false
}

// SettleCursor takes override when given, otherwise the stored cursor, and
// normalizes it against the active pool.
func (s *Settings) SettleCursor(stored int, override *int) {
	s.LastAssignedIndex = stored
	if override != nil {
		s.LastAssignedIndex = *override
	}
	s.NormalizeCursor()
}

// NormalizeCursor keeps LastAssignedIndex within the active pool.
func (s *Settings) NormalizeCursor() {
	active := 0
	for _, a := range s.Advisors {
		if a.Active {
			active++
		}
	}
	if s.LastAssignedIndex < -1 || s.LastAssignedIndex >= active {
		s.LastAssignedIndex = -1
	}
}
