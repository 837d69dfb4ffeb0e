package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medcrm_backend/internal/assignment/domain"
	catrepo "medcrm_backend/internal/categories/repository"
	leaddomain "medcrm_backend/internal/leads/domain"
	"medcrm_backend/platform/apperr"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestMissingFilesYieldDefaults(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	settings, err := s.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.StrategySequential, settings.Strategy)
	assert.Equal(t, -1, settings.LastAssignedIndex)

	cats, err := s.ListCategories(ctx)
	require.NoError(t, err)
	assert.Empty(t, cats)

	_, err = s.GetLabel(ctx, "nope")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestRotateGlobalConcurrentNoLostUpdate(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	_, err := s.SaveSettings(ctx, domain.Settings{
		Strategy: domain.StrategySequential,
		Advisors: []domain.Advisor{{Name: "A", Active: true}, {Name: "B", Active: true}, {Name: "C", Active: true}, {Name: "D", Active: false}},
	}, nil)
	require.NoError(t, err)

	const calls = 30
	var wg sync.WaitGroup
	var mu sync.Mutex
	counts := map[string]int{}
	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var picked string
			err := s.RotateGlobal(ctx, func(advisors []domain.Advisor, cursor int) (int, bool) {
				name, next, ok := domain.PickNext(domain.Candidates(advisors), cursor)
				picked = name
				return next, ok
			})
			assert.NoError(t, err)
			mu.Lock()
			counts[picked]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, map[string]int{"A": 10, "B": 10, "C": 10}, counts)

	settings, err := s.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, settings.LastAssignedIndex)
}

func TestRotateGlobalEmptyPoolLeavesFileUntouched(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	err := s.RotateGlobal(ctx, func(advisors []domain.Advisor, cursor int) (int, bool) {
		_, next, ok := domain.PickNext(domain.Candidates(advisors), cursor)
		return next, ok
	})
	require.NoError(t, err)
	_, statErr := os.Stat(filepath.Join(s.Dir(), settingsFile))
	assert.True(t, os.IsNotExist(statErr))
}

func TestUnknownStrategyIsCoercedOnReadButNotRewritten(t *testing.T) {
	s := openStore(t)
	raw := `{"strategy":"balanced","advisors":[{"name":"A","active":true}],"lastAssignedIndex":-1}`
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), settingsFile), []byte(raw), 0o644))

	ctx := context.Background()
	settings, err := s.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.StrategySequential, settings.Strategy)
	assert.Equal(t, "balanced", settings.CoercedFrom)

	require.NoError(t, s.RotateGlobal(ctx, func(advisors []domain.Advisor, cursor int) (int, bool) {
		_, next, ok := domain.PickNext(domain.Candidates(advisors), cursor)
		return next, ok
	}))

	data, err := os.ReadFile(filepath.Join(s.Dir(), settingsFile))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"strategy": "balanced"`)
	assert.Contains(t, string(data), `"lastAssignedIndex": 0`)
}

func TestRotateLabelAdvancesOnlyThatLabel(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	_, err := s.CreateLabel(ctx, catrepo.Label{ID: "a", CategoryID: "Meta", Advisors: []string{"X", "Y"}, Active: true, LastAssignedIndex: -1})
	require.NoError(t, err)
	_, err = s.CreateLabel(ctx, catrepo.Label{ID: "b", CategoryID: "Google", Advisors: []string{"Z"}, Active: true, LastAssignedIndex: -1})
	require.NoError(t, err)

	var picks []string
	for i := 0; i < 3; i++ {
		require.NoError(t, s.RotateLabel(ctx, "a", func(advisors []string, cursor int) (int, bool) {
			name, next, ok := domain.PickNext(domain.Names(advisors), cursor)
			picks = append(picks, name)
			return next, ok
		}))
	}
	assert.Equal(t, []string{"X", "Y", "X"}, picks)

	a, err := s.GetLabel(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 0, a.LastAssignedIndex)
	b, err := s.GetLabel(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, -1, b.LastAssignedIndex)
}

func TestCustomersListedNewestFirst(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"c1", "c2", "c3"} {
		_, err := s.CreateCustomer(ctx, leaddomain.Customer{ID: id, CreatedAt: base.Add(time.Duration(i) * time.Hour)})
		require.NoError(t, err)
	}

	items, total, err := s.ListCustomers(ctx, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, items, 2)
	assert.Equal(t, "c3", items[0].ID)
	assert.Equal(t, "c2", items[1].ID)

	items, _, err = s.ListCustomers(ctx, 5, 2)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCategoryCRUD(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	_, err := s.CreateCategory(ctx, catrepo.Category{ID: "f", Name: "Folder", TopParent: catrepo.TopParentMeta})
	require.NoError(t, err)
	parent := "f"
	_, err = s.CreateCategory(ctx, catrepo.Category{ID: "c", Name: "Hair", TopParent: catrepo.TopParentMeta, ParentID: &parent, LeadFormID: "F1"})
	require.NoError(t, err)

	c, err := s.GetCategory(ctx, "c")
	require.NoError(t, err)
	require.NotNil(t, c.ParentID)
	assert.Equal(t, "f", *c.ParentID)

	c.Name = "Hair FB"
	_, err = s.UpdateCategory(ctx, c)
	require.NoError(t, err)

	require.NoError(t, s.DeleteCategory(ctx, "c"))
	assert.True(t, apperr.Is(s.DeleteCategory(ctx, "c"), apperr.KindNotFound))

	items, err := s.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "f", items[0].ID)
}

func TestRotateLabelConcurrentNoLostUpdate(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	_, err := s.CreateLabel(ctx, catrepo.Label{ID: "meta", CategoryID: "Meta", Advisors: []string{"X", "Y", "Z"}, Active: true, LastAssignedIndex: -1})
	require.NoError(t, err)

	const calls = 30
	var wg sync.WaitGroup
	var mu sync.Mutex
	counts := map[string]int{}
	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var picked string
			err := s.RotateLabel(ctx, "meta", func(advisors []string, cursor int) (int, bool) {
				name, next, ok := domain.PickNext(domain.Names(advisors), cursor)
				picked = name
				return next, ok
			})
			assert.NoError(t, err)
			mu.Lock()
			counts[picked]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, map[string]int{"X": 10, "Y": 10, "Z": 10}, counts)

	l, err := s.GetLabel(ctx, "meta")
	require.NoError(t, err)
	assert.Equal(t, 2, l.LastAssignedIndex)
}

func TestUpdateLabelFromStaleReadKeepsRotatedCursor(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	_, err := s.CreateLabel(ctx, catrepo.Label{ID: "meta", Title: "Meta", CategoryID: "Meta", Advisors: []string{"X", "Y"}, Active: true, LastAssignedIndex: -1})
	require.NoError(t, err)

	stale, err := s.GetLabel(ctx, "meta")
	require.NoError(t, err)

	require.NoError(t, s.RotateLabel(ctx, "meta", func(advisors []string, cursor int) (int, bool) {
		_, next, ok := domain.PickNext(domain.Names(advisors), cursor)
		return next, ok
	}))

	stale.Title = "Meta renamed"
	updated, err := s.UpdateLabel(ctx, stale, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.LastAssignedIndex)

	stored, err := s.GetLabel(ctx, "meta")
	require.NoError(t, err)
	assert.Equal(t, "Meta renamed", stored.Title)
	assert.Equal(t, 0, stored.LastAssignedIndex)

	var picked string
	require.NoError(t, s.RotateLabel(ctx, "meta", func(advisors []string, cursor int) (int, bool) {
		name, next, ok := domain.PickNext(domain.Names(advisors), cursor)
		picked = name
		return next, ok
	}))
	assert.Equal(t, "Y", picked)
}

func TestUpdateLabelExplicitCursorIsNormalized(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	_, err := s.CreateLabel(ctx, catrepo.Label{ID: "meta", CategoryID: "Meta", Advisors: []string{"X", "Y"}, Active: true, LastAssignedIndex: 0})
	require.NoError(t, err)

	idx := 5
	updated, err := s.UpdateLabel(ctx, catrepo.Label{ID: "meta", CategoryID: "Meta", Advisors: []string{"X", "Y"}, Active: true}, &idx)
	require.NoError(t, err)
	assert.Equal(t, -1, updated.LastAssignedIndex)

	_, err = s.UpdateLabel(ctx, catrepo.Label{ID: "missing"}, nil)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestSaveSettingsKeepsRotatedCursor(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	advisors := []domain.Advisor{{Name: "A", Active: true}, {Name: "B", Active: true}}
	_, err := s.SaveSettings(ctx, domain.Settings{Strategy: domain.StrategySequential, Advisors: advisors}, nil)
	require.NoError(t, err)

	require.NoError(t, s.RotateGlobal(ctx, func(advisors []domain.Advisor, cursor int) (int, bool) {
		_, next, ok := domain.PickNext(domain.Candidates(advisors), cursor)
		return next, ok
	}))

	saved, err := s.SaveSettings(ctx, domain.Settings{Strategy: domain.StrategySequential, Advisors: advisors, LastAssignedIndex: -1}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, saved.LastAssignedIndex)

	settings, err := s.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, settings.LastAssignedIndex)
}
