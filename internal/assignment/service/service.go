// Package service composes the label and global rotations into advisor
// assignment and manages the global settings record.
package service

import (
	"context"
	"strings"

	"medcrm_backend/internal/assignment/domain"
	"medcrm_backend/internal/assignment/transport"
	catrepo "medcrm_backend/internal/categories/repository"
	"medcrm_backend/platform/apperr"
	"medcrm_backend/platform/logger"
	"medcrm_backend/platform/metrics"
)

// SettingsStore owns the global settings record and its cursor.
type SettingsStore interface {
	GetSettings(ctx context.Context) (domain.Settings, error)
	// SaveSettings replaces strategy and advisors. The cursor stays as stored
	// unless cursor is non-nil, and is normalized under the rotation lock.
	SaveSettings(ctx context.Context, s domain.Settings, cursor *int) (domain.Settings, error)
	RotateGlobal(ctx context.Context, step domain.GlobalStep) error
}

// Pool names the rotation an advisor came from.
type Pool string

const (
	PoolLabel  Pool = "label"
	PoolGlobal Pool = "global"
	PoolNone   Pool = "none"
	// PoolExplicit marks an advisor named by the submitter.
	PoolExplicit Pool = "explicit"
)

// Assignment is the advisor chosen for a lead. Contact fields are filled when
// the advisor is also listed in the global settings.
type Assignment struct {
	Advisor string
	Pool    Pool
	Contact domain.Advisor
}

// Service assigns advisors.
type Service struct {
	settings SettingsStore
	labels   catrepo.LabelCursor
	metrics  *metrics.Metrics
	log      *logger.Logger
}

// New creates the assignment service.
func New(settings SettingsStore, labels catrepo.LabelCursor, m *metrics.Metrics, log *logger.Logger) *Service {
	return &Service{settings: settings, labels: labels, metrics: m, log: log}
}

// Assign picks the next advisor for a lead. A label with advisors rotates its
// own cursor; otherwise the global cursor rotates. Store failures degrade to
// the next pool and finally to no advisor; they are logged, never returned.
func (s *Service) Assign(ctx context.Context, label *catrepo.Label) Assignment {
	log := s.log.WithContext(ctx)
	result := Assignment{Pool: PoolNone}

	if label != nil && len(label.Advisors) > 0 {
		var selected string
		err := s.labels.RotateLabel(ctx, label.ID, func(advisors []string, cursor int) (int, bool) {
			name, next, ok := domain.PickNext(domain.Names(advisors), cursor)
			selected = name
			return next, ok
		})
		switch {
		case err != nil:
			log.Error("label rotation failed, falling back to global", "labelId", label.ID, "error", err)
		case selected != "":
			result = Assignment{Advisor: selected, Pool: PoolLabel}
		}
	}

	if result.Pool == PoolNone {
		var selected string
		err := s.settings.RotateGlobal(ctx, func(advisors []domain.Advisor, cursor int) (int, bool) {
			name, next, ok := domain.PickNext(domain.Candidates(advisors), cursor)
			selected = name
			return next, ok
		})
		switch {
		case err != nil:
			log.Error("global rotation failed, lead stays unassigned", "error", err)
		case selected != "":
			result = Assignment{Advisor: selected, Pool: PoolGlobal}
		}
	}

	if result.Advisor != "" {
		if settings, err := s.settings.GetSettings(ctx); err == nil {
			result.Contact, _ = settings.FindAdvisor(result.Advisor)
		} else {
			log.Warn("advisor contact lookup failed", "advisor", result.Advisor, "error", err)
		}
	}

	s.metrics.AdvisorAssignments.WithLabelValues(string(result.Pool)).Inc()
	log.Debug("advisor assigned", "advisor", result.Advisor, "pool", result.Pool)
	return result
}

// Explicit records an advisor chosen by the submitter without moving any
// cursor and attaches the advisor's contact details when known.
func (s *Service) Explicit(ctx context.Context, name string) Assignment {
	result := Assignment{Advisor: strings.TrimSpace(name), Pool: PoolExplicit}
	if settings, err := s.settings.GetSettings(ctx); err == nil {
		if contact, ok := settings.FindAdvisor(result.Advisor); ok {
			result.Contact = contact
			result.Advisor = contact.Name
		}
	} else {
		s.log.WithContext(ctx).Warn("advisor contact lookup failed", "advisor", result.Advisor, "error", err)
	}
	s.metrics.AdvisorAssignments.WithLabelValues(string(result.Pool)).Inc()
	return result
}

// GetSettings returns the settings record, logging a coerced strategy.
func (s *Service) GetSettings(ctx context.Context) (domain.Settings, error) {
	settings, err := s.settings.GetSettings(ctx)
	if err != nil {
		return domain.Settings{}, err
	}
	if settings.CoercedFrom != "" {
		s.log.WithContext(ctx).Warn("unsupported assignment strategy stored, using sequential", "stored", settings.CoercedFrom)
	}
	return settings, nil
}

// UpdateSettings replaces the advisor list and strategy. The stored cursor is
// kept when it still fits the new active pool.
func (s *Service) UpdateSettings(ctx context.Context, req transport.UpdateSettingsRequest) (domain.Settings, error) {
	strategy, known := domain.ParseStrategy(req.Strategy)
	if !known {
		return domain.Settings{}, apperr.Validation("unsupported assignment strategy").
			WithDetails(map[string]string{"strategy": req.Strategy})
	}

	next := domain.Settings{
		Strategy: strategy,
		Advisors: make([]domain.Advisor, 0, len(req.Advisors)),
	}
	seen := make(map[string]struct{}, len(req.Advisors))
	for _, a := range req.Advisors {
		name := strings.TrimSpace(a.Name)
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			return domain.Settings{}, apperr.Validation("duplicate advisor name").
				WithDetails(map[string]string{"name": name})
		}
		seen[key] = struct{}{}
		next.Advisors = append(next.Advisors, domain.Advisor{
			Name:    name,
			Active:  a.Active,
			Phone:   strings.TrimSpace(a.Phone),
			Email:   strings.TrimSpace(a.Email),
			Session: strings.TrimSpace(a.Session),
		})
	}
	saved, err := s.settings.SaveSettings(ctx, next, req.LastAssignedIndex)
	if err != nil {
		return domain.Settings{}, err
	}
	s.log.WithContext(ctx).Info("assignment settings updated", "advisors", len(saved.Advisors), "cursor", saved.LastAssignedIndex)
	return saved, nil
}
