package jsonfile

import (
	"context"
	"slices"

	catrepo "medcrm_backend/internal/categories/repository"
	"medcrm_backend/platform/apperr"
)

// Compile-time check that Store implements the category repository.
var _ catrepo.Repository = (*Store)(nil)

func (s *Store) loadCategories() ([]catrepo.Category, error) {
	items := []catrepo.Category{}
	if err := s.read(categoriesFile, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// ListCategories returns every node in file order.
func (s *Store) ListCategories(_ context.Context) ([]catrepo.Category, error) {
	s.categoriesMu.Lock()
	defer s.categoriesMu.Unlock()
	return s.loadCategories()
}

// GetCategory retrieves a node by id.
func (s *Store) GetCategory(_ context.Context, id string) (catrepo.Category, error) {
	s.categoriesMu.Lock()
	defer s.categoriesMu.Unlock()

	items, err := s.loadCategories()
	if err != nil {
		return catrepo.Category{}, err
	}
	for _, c := range items {
		if c.ID == id {
			return c, nil
		}
	}
	return catrepo.Category{}, apperr.NotFound("category not found")
}

// CreateCategory appends a node.
func (s *Store) CreateCategory(_ context.Context, c catrepo.Category) (catrepo.Category, error) {
	s.categoriesMu.Lock()
	defer s.categoriesMu.Unlock()

	items, err := s.loadCategories()
	if err != nil {
		return catrepo.Category{}, err
	}
	now := s.now()
	c.CreatedAt, c.UpdatedAt = now, now
	items = append(items, c)
	if err := s.write(categoriesFile, items); err != nil {
		return catrepo.Category{}, err
	}
	return c, nil
}

// UpdateCategory replaces a node in place.
func (s *Store) UpdateCategory(_ context.Context, c catrepo.Category) (catrepo.Category, error) {
	s.categoriesMu.Lock()
	defer s.categoriesMu.Unlock()

	items, err := s.loadCategories()
	if err != nil {
		return catrepo.Category{}, err
	}
	idx := slices.IndexFunc(items, func(x catrepo.Category) bool { return x.ID == c.ID })
	if idx < 0 {
		return catrepo.Category{}, apperr.NotFound("category not found")
	}
	c.CreatedAt = items[idx].CreatedAt
	c.UpdatedAt = s.now()
	items[idx] = c
	if err := s.write(categoriesFile, items); err != nil {
		return catrepo.Category{}, err
	}
	return c, nil
}

// DeleteCategory removes a node.
func (s *Store) DeleteCategory(_ context.Context, id string) error {
	s.categoriesMu.Lock()
	defer s.categoriesMu.Unlock()

	items, err := s.loadCategories()
	if err != nil {
		return err
	}
	idx := slices.IndexFunc(items, func(x catrepo.Category) bool { return x.ID == id })
	if idx < 0 {
		return apperr.NotFound("category not found")
	}
	return s.write(categoriesFile, slices.Delete(items, idx, idx+1))
}

func (s *Store) loadLabels() ([]catrepo.Label, error) {
	items := []catrepo.Label{}
	if err := s.read(labelsFile, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// ListLabels returns every label in file order.
func (s *Store) ListLabels(_ context.Context) ([]catrepo.Label, error) {
	s.labelsMu.Lock()
	defer s.labelsMu.Unlock()
	return s.loadLabels()
}

// GetLabel retrieves a label by id.
func (s *Store) GetLabel(_ context.Context, id string) (catrepo.Label, error) {
	s.labelsMu.Lock()
	defer s.labelsMu.Unlock()

	items, err := s.loadLabels()
	if err != nil {
		return catrepo.Label{}, err
	}
	for _, l := range items {
		if l.ID == id {
			return l, nil
		}
	}
	return catrepo.Label{}, apperr.NotFound("label not found")
}

// CreateLabel appends a label.
func (s *Store) CreateLabel(_ context.Context, l catrepo.Label) (catrepo.Label, error) {
	s.labelsMu.Lock()
	defer s.labelsMu.Unlock()

	items, err := s.loadLabels()
	if err != nil {
		return catrepo.Label{}, err
	}
	if l.Advisors == nil {
		l.Advisors = []string{}
	}
	now := s.now()
	l.CreatedAt, l.UpdatedAt = now, now
	items = append(items, l)
	if err := s.write(labelsFile, items); err != nil {
		return catrepo.Label{}, err
	}
	return l, nil
}

// UpdateLabel replaces a label in place. The cursor is settled under the same
// lock RotateLabel holds.
func (s *Store) UpdateLabel(_ context.Context, l catrepo.Label, cursor *int) (catrepo.Label, error) {
	s.labelsMu.Lock()
	defer s.labelsMu.Unlock()

	items, err := s.loadLabels()
	if err != nil {
		return catrepo.Label{}, err
	}
	idx := slices.IndexFunc(items, func(x catrepo.Label) bool { return x.ID == l.ID })
	if idx < 0 {
		return catrepo.Label{}, apperr.NotFound("label not found")
	}
	if l.Advisors == nil {
		l.Advisors = []string{}
	}
	l.SettleCursor(items[idx].LastAssignedIndex, cursor)
	l.CreatedAt = items[idx].CreatedAt
	l.UpdatedAt = s.now()
	items[idx] = l
	if err := s.write(labelsFile, items); err != nil {
		return catrepo.Label{}, err
	}
	return l, nil
}

// DeleteLabel removes a label.
func (s *Store) DeleteLabel(_ context.Context, id string) error {
	s.labelsMu.Lock()
	defer s.labelsMu.Unlock()

	items, err := s.loadLabels()
	if err != nil {
		return err
	}
	idx := slices.IndexFunc(items, func(x catrepo.Label) bool { return x.ID == id })
	if idx < 0 {
		return apperr.NotFound("label not found")
	}
	return s.write(labelsFile, slices.Delete(items, idx, idx+1))
}

// RotateLabel holds the labels lock across read, step and write.
func (s *Store) RotateLabel(_ context.Context, labelID string, step catrepo.LabelStep) error {
	s.labelsMu.Lock()
	defer s.labelsMu.Unlock()

	items, err := s.loadLabels()
	if err != nil {
		return err
	}
	idx := slices.IndexFunc(items, func(x catrepo.Label) bool { return x.ID == labelID })
	if idx < 0 {
		return apperr.NotFound("label not found")
	}

	next, ok := step(items[idx].Advisors, items[idx].LastAssignedIndex)
	if !ok {
		return nil
	}
	items[idx].LastAssignedIndex = next
	items[idx].UpdatedAt = s.now()
	return s.write(labelsFile, items)
}
