package service

import (
	"context"
	"sort"
	"testing"

	"medcrm_backend/internal/categories/repository"
	"medcrm_backend/internal/categories/transport"
	"medcrm_backend/platform/apperr"
	"medcrm_backend/platform/logger"
)

type fakeRepo struct {
	categories map[string]repository.Category
	labels     map[string]repository.Label

	// afterGetLabel runs once a label has been read, before the caller acts on it.
	afterGetLabel func(id string)
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		categories: map[string]repository.Category{},
		labels:     map[string]repository.Label{},
	}
}

func (f *fakeRepo) ListCategories(context.Context) ([]repository.Category, error) {
	out := make([]repository.Category, 0, len(f.categories))
	for _, c := range f.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeRepo) GetCategory(_ context.Context, id string) (repository.Category, error) {
	c, ok := f.categories[id]
	if !ok {
		return repository.Category{}, apperr.NotFound("category not found")
	}
	return c, nil
}

func (f *fakeRepo) CreateCategory(_ context.Context, c repository.Category) (repository.Category, error) {
	f.categories[c.ID] = c
	return c, nil
}

func (f *fakeRepo) UpdateCategory(_ context.Context, c repository.Category) (repository.Category, error) {
	f.categories[c.ID] = c
	return c, nil
}

func (f *fakeRepo) DeleteCategory(_ context.Context, id string) error {
	delete(f.categories, id)
	return nil
}

func (f *fakeRepo) ListLabels(context.Context) ([]repository.Label, error) {
	out := make([]repository.Label, 0, len(f.labels))
	for _, l := range f.labels {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeRepo) GetLabel(_ context.Context, id string) (repository.Label, error) {
	l, ok := f.labels[id]
	if !ok {
		return repository.Label{}, apperr.NotFound("label not found")
	}
	if f.afterGetLabel != nil {
		f.afterGetLabel(id)
	}
	return l, nil
}

func (f *fakeRepo) CreateLabel(_ context.Context, l repository.Label) (repository.Label, error) {
	f.labels[l.ID] = l
	return l, nil
}

func (f *fakeRepo) UpdateLabel(_ context.Context, l repository.Label, cursor *int) (repository.Label, error) {
	stored, ok := f.labels[l.ID]
	if !ok {
		return repository.Label{}, apperr.NotFound("label not found")
	}
	l.SettleCursor(stored.LastAssignedIndex, cursor)
	f.labels[l.ID] = l
	return l, nil
}

func (f *fakeRepo) DeleteLabel(_ context.Context, id string) error {
	delete(f.labels, id)
	return nil
}

func (f *fakeRepo) RotateLabel(_ context.Context, id string, step repository.LabelStep) error {
	l := f.labels[id]
	if next, ok := step(l.Advisors, l.LastAssignedIndex); ok {
		l.LastAssignedIndex = next
		f.labels[id] = l
	}
	return nil
}

func newTestService() (*Service, *fakeRepo) {
	repo := newFakeRepo()
	return New(repo, logger.Nop()), repo
}

func TestCreateCategoryRejectsCrossGroupParent(t *testing.T) {
	svc, repo := newTestService()
	repo.categories["meta-folder"] = repository.Category{ID: "meta-folder", TopParent: repository.TopParentMeta}

	parent := "meta-folder"
	_, err := svc.CreateCategory(context.Background(), transport.CategoryRequest{
		Name: "Google search", TopParent: "Google", ParentID: &parent,
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateCategoryAssignsID(t *testing.T) {
	svc, repo := newTestService()
	created, err := svc.CreateCategory(context.Background(), transport.CategoryRequest{
		Name: "Website form", TopParent: "Website", LeadFormID: "W1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected generated id")
	}
	if _, ok := repo.categories[created.ID]; !ok {
		t.Fatal("expected category to be stored")
	}
}

func TestCreateCategoryRejectsDuplicateLeadFormID(t *testing.T) {
	svc, repo := newTestService()
	repo.categories["a"] = repository.Category{ID: "a", TopParent: repository.TopParentMeta, LeadFormID: "F1"}

	_, err := svc.CreateCategory(context.Background(), transport.CategoryRequest{
		Name: "b", TopParent: "Meta", LeadFormID: "F1",
	})
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestUpdateCategoryRejectsCycle(t *testing.T) {
	svc, repo := newTestService()
	repo.categories["a"] = repository.Category{ID: "a", TopParent: repository.TopParentMeta}
	repo.categories["b"] = repository.Category{ID: "b", TopParent: repository.TopParentMeta, ParentID: strPtr("a")}

	parent := "b"
	_, err := svc.UpdateCategory(context.Background(), "a", transport.CategoryRequest{
		Name: "a", TopParent: "Meta", ParentID: &parent,
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDeleteCategoryRefusedWithChildren(t *testing.T) {
	svc, repo := newTestService()
	repo.categories["a"] = repository.Category{ID: "a", TopParent: repository.TopParentMeta}
	repo.categories["b"] = repository.Category{ID: "b", TopParent: repository.TopParentMeta, ParentID: strPtr("a")}

	if err := svc.DeleteCategory(context.Background(), "a"); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if err := svc.DeleteCategory(context.Background(), "b"); err != nil {
		t.Fatalf("expected leaf delete to succeed, got %v", err)
	}
}

func TestCreateLabelOnGroupNormalizesCursor(t *testing.T) {
	svc, _ := newTestService()
	idx := 7
	created, err := svc.CreateLabel(context.Background(), transport.LabelRequest{
		Title: "Meta rotation", CategoryID: "Meta", Advisors: []string{" X ", "", "Y"}, LastAssignedIndex: &idx,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(created.Advisors) != 2 || created.Advisors[0] != "X" {
		t.Fatalf("expected trimmed advisors, got %v", created.Advisors)
	}
	if created.LastAssignedIndex != -1 {
		t.Fatalf("expected cursor reset to -1, got %d", created.LastAssignedIndex)
	}
	if !created.Active {
		t.Fatal("expected label active by default")
	}
}

func TestCreateLabelRejectsUnknownCategory(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.CreateLabel(context.Background(), transport.LabelRequest{Title: "x", CategoryID: "missing"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestResolveLeadFormMissIsNotAnError(t *testing.T) {
	svc, _ := newTestService()
	res, err := svc.ResolveLeadForm(context.Background(), "F404")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Category != nil || res.Label != nil {
		t.Fatalf("expected empty resolution, got %+v", res)
	}
}

func TestUpdateLabelKeepsCursorAdvancedDuringEdit(t *testing.T) {
	svc, repo := newTestService()
	repo.labels["meta"] = repository.Label{ID: "meta", Title: "Meta", CategoryID: "Meta", Advisors: []string{"X", "Y"}, Active: true, LastAssignedIndex: -1}
	repo.afterGetLabel = func(id string) {
		repo.afterGetLabel = nil
		_ = repo.RotateLabel(context.Background(), id, func(_ []string, cursor int) (int, bool) {
			return cursor + 1, true
		})
	}

	updated, err := svc.UpdateLabel(context.Background(), "meta", transport.LabelRequest{
		Title: "Meta renamed", CategoryID: "Meta", Advisors: []string{"X", "Y"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.LastAssignedIndex != 0 {
		t.Fatalf("expected cursor 0 from the rotation, got %d", updated.LastAssignedIndex)
	}
	if repo.labels["meta"].Title != "Meta renamed" {
		t.Fatalf("expected title updated, got %q", repo.labels["meta"].Title)
	}
}

func TestUpdateLabelExplicitCursorWins(t *testing.T) {
	svc, repo := newTestService()
	repo.labels["meta"] = repository.Label{ID: "meta", CategoryID: "Meta", Advisors: []string{"X", "Y", "Z"}, Active: true, LastAssignedIndex: 0}

	idx := 2
	updated, err := svc.UpdateLabel(context.Background(), "meta", transport.LabelRequest{
		Title: "Meta", CategoryID: "Meta", Advisors: []string{"X", "Y", "Z"}, LastAssignedIndex: &idx,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.LastAssignedIndex != 2 {
		t.Fatalf("expected cursor 2, got %d", updated.LastAssignedIndex)
	}
}

func TestUpdateLabelShrinkingPoolResetsCursor(t *testing.T) {
	svc, repo := newTestService()
	repo.labels["meta"] = repository.Label{ID: "meta", CategoryID: "Meta", Advisors: []string{"X", "Y", "Z"}, Active: true, LastAssignedIndex: 2}

	updated, err := svc.UpdateLabel(context.Background(), "meta", transport.LabelRequest{
		Title: "Meta", CategoryID: "Meta", Advisors: []string{"X"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.LastAssignedIndex != -1 {
		t.Fatalf("expected cursor reset to -1, got %d", updated.LastAssignedIndex)
	}
}

func TestResolveLeadFormWalksUpToGroupLabel(t *testing.T) {
	svc, repo := newTestService()
	repo.categories["hair"] = repository.Category{ID: "hair", Name: "Hair", TopParent: repository.TopParentMeta}
	repo.categories["hair-ist"] = repository.Category{ID: "hair-ist", Name: "Istanbul Hair", TopParent: repository.TopParentMeta, ParentID: strPtr("hair"), LeadFormID: "F123"}
	repo.labels["lbl-meta"] = repository.Label{ID: "lbl-meta", CategoryID: "Meta", Active: true, Advisors: []string{"X"}, LastAssignedIndex: -1}
	repo.labels["lbl-off"] = repository.Label{ID: "lbl-off", CategoryID: "hair", Active: false, LastAssignedIndex: -1}

	res, err := svc.ResolveLeadForm(context.Background(), "F123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Category == nil || res.Category.ID != "hair-ist" {
		t.Fatalf("expected hair-ist, got %+v", res.Category)
	}
	if res.Label == nil || res.Label.ID != "lbl-meta" {
		t.Fatalf("expected group label, got %+v", res.Label)
	}
}
