package jsonfile

import (
	"context"

	"medcrm_backend/internal/assignment/domain"
)

// settingsDocument is the on-disk shape; strategy stays a raw string so an
// unsupported value is visible to the loader.
type settingsDocument struct {
	Strategy          string           `json:"strategy"`
	Advisors          []domain.Advisor `json:"advisors"`
	LastAssignedIndex *int             `json:"lastAssignedIndex"`
}

func (s *Store) loadSettings() (domain.Settings, error) {
	var doc settingsDocument
	if err := s.read(settingsFile, &doc); err != nil {
		return domain.Settings{}, err
	}

	settings := domain.DefaultSettings()
	var known bool
	if settings.Strategy, known = domain.ParseStrategy(doc.Strategy); !known {
		settings.CoercedFrom = doc.Strategy
	}
	if doc.Advisors != nil {
		settings.Advisors = doc.Advisors
	}
	if doc.LastAssignedIndex != nil {
		settings.LastAssignedIndex = *doc.LastAssignedIndex
	}
	return settings, nil
}

func (s *Store) saveSettings(settings domain.Settings) error {
	idx := settings.LastAssignedIndex
	advisors := settings.Advisors
	if advisors == nil {
		advisors = []domain.Advisor{}
	}
	return s.write(settingsFile, settingsDocument{
		Strategy:          string(settings.Strategy),
		Advisors:          advisors,
		LastAssignedIndex: &idx,
	})
}

// GetSettings reads the settings document; a missing file yields defaults.
func (s *Store) GetSettings(_ context.Context) (domain.Settings, error) {
	s.settingsMu.Lock()
	defer s.settingsMu.Unlock()
	return s.loadSettings()
}

// SaveSettings replaces the settings document. The cursor is settled under
// the same lock RotateGlobal holds.
func (s *Store) SaveSettings(_ context.Context, settings domain.Settings, cursor *int) (domain.Settings, error) {
	s.settingsMu.Lock()
	defer s.settingsMu.Unlock()

	current, err := s.loadSettings()
	if err != nil {
		return domain.Settings{}, err
	}
	settings.SettleCursor(current.LastAssignedIndex, cursor)

	if err := s.saveSettings(settings); err != nil {
		return domain.Settings{}, err
	}
	settings.CoercedFrom = ""
	return settings, nil
}

// RotateGlobal holds the settings lock across read, step and write. Only the
// cursor changes; a coerced strategy is written back as stored.
func (s *Store) RotateGlobal(_ context.Context, step domain.GlobalStep) error {
	s.settingsMu.Lock()
	defer s.settingsMu.Unlock()

	settings, err := s.loadSettings()
	if err != nil {
		return err
	}
	next, ok := step(settings.Advisors, settings.LastAssignedIndex)
	if !ok {
		return nil
	}
	settings.LastAssignedIndex = next
	if settings.CoercedFrom != "" {
		settings.Strategy = domain.Strategy(settings.CoercedFrom)
	}
	return s.saveSettings(settings)
}
