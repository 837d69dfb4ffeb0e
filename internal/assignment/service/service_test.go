package service

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medcrm_backend/internal/assignment/domain"
	"medcrm_backend/internal/assignment/transport"
	catrepo "medcrm_backend/internal/categories/repository"
	"medcrm_backend/platform/apperr"
	"medcrm_backend/platform/logger"
	"medcrm_backend/platform/metrics"
)

// memSettings serialises rotations the way the real stores do, and yields
// between read and write so unsynchronised callers would interleave.
type memSettings struct {
	mu        sync.Mutex
	settings  domain.Settings
	rotateErr error
}

func (m *memSettings) GetSettings(context.Context) (domain.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings, nil
}

func (m *memSettings) SaveSettings(_ context.Context, s domain.Settings, cursor *int) (domain.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.SettleCursor(m.settings.LastAssignedIndex, cursor)
	m.settings = s
	return s, nil
}

func (m *memSettings) RotateGlobal(_ context.Context, step domain.GlobalStep) error {
	if m.rotateErr != nil {
		return m.rotateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	advisors, cursor := m.settings.Advisors, m.settings.LastAssignedIndex
	runtime.Gosched()
	if next, ok := step(advisors, cursor); ok {
		m.settings.LastAssignedIndex = next
	}
	return nil
}

type memLabels struct {
	mu     sync.Mutex
	labels map[string]catrepo.Label
}

func (m *memLabels) RotateLabel(_ context.Context, id string, step catrepo.LabelStep) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.labels[id]
	if !ok {
		return apperr.NotFound("label not found")
	}
	if next, ok := step(l.Advisors, l.LastAssignedIndex); ok {
		l.LastAssignedIndex = next
		m.labels[id] = l
	}
	return nil
}

func newService(settings *memSettings, labels *memLabels) *Service {
	return New(settings, labels, metrics.Nop(), logger.Nop())
}

func globalSettings(names ...string) *memSettings {
	s := domain.DefaultSettings()
	for _, n := range names {
		s.Advisors = append(s.Advisors, domain.Advisor{Name: n, Active: true, Phone: "0532 000 00 0" + n})
	}
	return &memSettings{settings: s}
}

func TestAssignUsesLabelCursorWhenLabelHasAdvisors(t *testing.T) {
	labels := &memLabels{labels: map[string]catrepo.Label{
		"meta": {ID: "meta", Advisors: []string{"X", "Y"}, LastAssignedIndex: -1, Active: true},
	}}
	settings := globalSettings("G1", "G2")
	svc := newService(settings, labels)

	label := labels.labels["meta"]
	got := svc.Assign(context.Background(), &label)

	assert.Equal(t, "X", got.Advisor)
	assert.Equal(t, PoolLabel, got.Pool)
	assert.Equal(t, 0, labels.labels["meta"].LastAssignedIndex)
	assert.Equal(t, -1, settings.settings.LastAssignedIndex, "global cursor must not move")
}

func TestAssignFallsBackToGlobalForLabelWithoutAdvisors(t *testing.T) {
	labels := &memLabels{labels: map[string]catrepo.Label{"meta": {ID: "meta", LastAssignedIndex: -1}}}
	settings := globalSettings("1", "2")
	svc := newService(settings, labels)

	label := labels.labels["meta"]
	got := svc.Assign(context.Background(), &label)

	assert.Equal(t, "1", got.Advisor)
	assert.Equal(t, PoolGlobal, got.Pool)
	assert.Equal(t, "0532 000 00 01", got.Contact.Phone)
	assert.Equal(t, 0, settings.settings.LastAssignedIndex)
}

func TestAssignWithNothingConfiguredLeavesLeadUnassigned(t *testing.T) {
	svc := newService(&memSettings{settings: domain.DefaultSettings()}, &memLabels{labels: map[string]catrepo.Label{}})
	got := svc.Assign(context.Background(), nil)
	assert.Empty(t, got.Advisor)
	assert.Equal(t, PoolNone, got.Pool)
}

func TestAssignDegradesWhenGlobalStoreFails(t *testing.T) {
	settings := globalSettings("A")
	settings.rotateErr = errors.New("disk full")
	svc := newService(settings, &memLabels{labels: map[string]catrepo.Label{}})

	got := svc.Assign(context.Background(), nil)
	assert.Equal(t, PoolNone, got.Pool)
}

func TestAssignConcurrentCallsDoNotLoseUpdates(t *testing.T) {
	settings := globalSettings("A", "B", "C", "D", "E")
	svc := newService(settings, &memLabels{labels: map[string]catrepo.Label{}})

	const calls = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	counts := map[string]int{}
	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got := svc.Assign(context.Background(), nil)
			mu.Lock()
			counts[got.Advisor]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, counts, 5)
	for name, n := range counts {
		assert.Equal(t, calls/5, n, "advisor %s", name)
	}
}

func TestUpdateSettingsRejectsUnknownStrategy(t *testing.T) {
	svc := newService(globalSettings("A"), &memLabels{})
	_, err := svc.UpdateSettings(context.Background(), transport.UpdateSettingsRequest{Strategy: "balanced"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestUpdateSettingsRejectsDuplicateNames(t *testing.T) {
	svc := newService(globalSettings(), &memLabels{})
	_, err := svc.UpdateSettings(context.Background(), transport.UpdateSettingsRequest{
		Advisors: []transport.AdvisorRequest{{Name: "Ana", Active: true}, {Name: " ana ", Active: true}},
	})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestUpdateSettingsKeepsCursorInRange(t *testing.T) {
	settings := globalSettings("A", "B", "C")
	settings.settings.LastAssignedIndex = 2
	svc := newService(settings, &memLabels{})

	saved, err := svc.UpdateSettings(context.Background(), transport.UpdateSettingsRequest{
		Advisors: []transport.AdvisorRequest{{Name: "A", Active: true}, {Name: "B", Active: true}},
	})
	require.NoError(t, err)
	assert.Equal(t, -1, saved.LastAssignedIndex)
	assert.Equal(t, domain.StrategySequential, saved.Strategy)
}

func TestGetSettingsDoesNotWriteBackCoercedStrategy(t *testing.T) {
	settings := globalSettings("A")
	settings.settings.CoercedFrom = "balanced"
	svc := newService(settings, &memLabels{})

	got, err := svc.GetSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.StrategySequential, got.Strategy)
	assert.Equal(t, "balanced", settings.settings.CoercedFrom, "read must not mutate the store")
}

func TestUpdateSettingsKeepsCursorAdvancedByRotation(t *testing.T) {
	settings := globalSettings("A", "B", "C")
	svc := newService(settings, &memLabels{})

	first := svc.Assign(context.Background(), nil)
	require.Equal(t, "A", first.Advisor)

	saved, err := svc.UpdateSettings(context.Background(), transport.UpdateSettingsRequest{
		Advisors: []transport.AdvisorRequest{{Name: "A", Active: true}, {Name: "B", Active: true}, {Name: "C", Active: true, Phone: "0532"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, saved.LastAssignedIndex)

	next := svc.Assign(context.Background(), nil)
	assert.Equal(t, "B", next.Advisor)
}

func TestUpdateSettingsExplicitCursor(t *testing.T) {
	settings := globalSettings("A", "B", "C")
	svc := newService(settings, &memLabels{})

	idx := 1
	saved, err := svc.UpdateSettings(context.Background(), transport.UpdateSettingsRequest{
		Advisors:          []transport.AdvisorRequest{{Name: "A", Active: true}, {Name: "B", Active: true}, {Name: "C", Active: true}},
		LastAssignedIndex: &idx,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, saved.LastAssignedIndex)
	assert.Equal(t, "C", svc.Assign(context.Background(), nil).Advisor)
}
