// Package service implements category tree management and label resolution.
package service

import (
	"context"
	"strings"

	"medcrm_backend/internal/categories/repository"
	"medcrm_backend/internal/categories/transport"
	"medcrm_backend/platform/apperr"
	"medcrm_backend/platform/logger"

	"github.com/google/uuid"
)

// Service provides category and label operations.
type Service struct {
	repo repository.Repository
	log  *logger.Logger
}

// New creates a new category service.
func New(repo repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Resolution is what intake learns from a lead form id.
type Resolution struct {
	Category *repository.Category
	Label    *repository.Label
}

func (s *Service) snapshot(ctx context.Context) (*Tree, []repository.Label, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, nil, err
	}
	labels, err := s.repo.ListLabels(ctx)
	if err != nil {
		return nil, nil, err
	}
	return NewTree(categories), labels, nil
}

// FindByLeadFormID returns the category whose external form id matches, or nil.
func (s *Service) FindByLeadFormID(ctx context.Context, formID string) (*repository.Category, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	c, ok := NewTree(categories).FindByLeadFormID(formID)
	if !ok {
		return nil, nil
	}
	return &c, nil
}

// ParentChain returns the ancestor ids of nodeID, nearest first.
func (s *Service) ParentChain(ctx context.Context, nodeID string) ([]string, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	return NewTree(categories).ParentChain(nodeID), nil
}

// ResolveActiveLabel returns the label governing categoryID, or nil.
func (s *Service) ResolveActiveLabel(ctx context.Context, categoryID string) (*repository.Label, error) {
	tree, labels, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return ResolveLabel(tree, labels, categoryID), nil
}

// ResolveLeadForm resolves category and label for an inbound form id.
// Misses yield empty fields, never errors.
func (s *Service) ResolveLeadForm(ctx context.Context, formID string) (Resolution, error) {
	if strings.TrimSpace(formID) == "" {
		return Resolution{}, nil
	}
	c, err := s.FindByLeadFormID(ctx, formID)
	if err != nil {
		return Resolution{}, err
	}
	if c == nil {
		s.log.Debug("no category for lead form", "leadFormId", formID)
		return Resolution{}, nil
	}
	label, err := s.ResolveActiveLabel(ctx, c.ID)
	if err != nil {
		return Resolution{}, err
	}
	return Resolution{Category: c, Label: label}, nil
}

// PreviewLabel reports the chain walked and the label found for categoryID.
func (s *Service) PreviewLabel(ctx context.Context, categoryID string) (transport.ResolveLabelResponse, error) {
	tree, labels, err := s.snapshot(ctx)
	if err != nil {
		return transport.ResolveLabelResponse{}, err
	}
	if _, ok := tree.Get(categoryID); !ok {
		return transport.ResolveLabelResponse{}, apperr.NotFound("category not found")
	}
	return transport.ResolveLabelResponse{
		CategoryID: categoryID,
		Chain:      tree.ParentChain(categoryID),
		Label:      ResolveLabel(tree, labels, categoryID),
	}, nil
}

// ListCategories returns every category node.
func (s *Service) ListCategories(ctx context.Context) (transport.CategoryListResponse, error) {
	items, err := s.repo.ListCategories(ctx)
	if err != nil {
		return transport.CategoryListResponse{}, err
	}
	groups := make([]string, 0, len(repository.TopParents))
	for _, tp := range repository.TopParents {
		groups = append(groups, string(tp))
	}
	return transport.CategoryListResponse{Items: items, TopParents: groups}, nil
}

// CreateCategory adds a node after checking group and parent invariants.
func (s *Service) CreateCategory(ctx context.Context, req transport.CategoryRequest) (repository.Category, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return repository.Category{}, err
	}
	tree := NewTree(categories)

	c := categoryFromRequest(req)
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if _, exists := tree.Get(c.ID); exists {
		return repository.Category{}, apperr.Conflict("category id already exists")
	}
	if err := validateCategory(tree, c); err != nil {
		return repository.Category{}, err
	}

	created, err := s.repo.CreateCategory(ctx, c)
	if err != nil {
		return repository.Category{}, err
	}
	s.log.Info("category created", "categoryId", created.ID, "topParent", created.TopParent)
	return created, nil
}

// UpdateCategory replaces a node's fields.
func (s *Service) UpdateCategory(ctx context.Context, id string, req transport.CategoryRequest) (repository.Category, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return repository.Category{}, err
	}
	tree := NewTree(categories)

	if _, ok := tree.Get(id); !ok {
		return repository.Category{}, apperr.NotFound("category not found")
	}
	c := categoryFromRequest(req)
	c.ID = id
	if err := validateCategory(tree, c); err != nil {
		return repository.Category{}, err
	}
	for _, child := range tree.Children(id) {
		if child.TopParent != c.TopParent {
			return repository.Category{}, apperr.Validation("child categories belong to a different group").
				WithDetails(map[string]string{"childId": child.ID})
		}
	}

	return s.repo.UpdateCategory(ctx, c)
}

// DeleteCategory removes a node that has no children and no labels.
func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	tree, labels, err := s.snapshot(ctx)
	if err != nil {
		return err
	}
	if _, ok := tree.Get(id); !ok {
		return apperr.NotFound("category not found")
	}
	if children := tree.Children(id); len(children) > 0 {
		return apperr.Conflict("category has child categories").WithDetails(map[string]int{"children": len(children)})
	}
	for _, l := range labels {
		if l.CategoryID == id {
			return apperr.Conflict("category has labels").WithDetails(map[string]string{"labelId": l.ID})
		}
	}
	return s.repo.DeleteCategory(ctx, id)
}

func categoryFromRequest(req transport.CategoryRequest) repository.Category {
	c := repository.Category{
		ID:           strings.TrimSpace(req.ID),
		Name:         strings.TrimSpace(req.Name),
		TopParent:    repository.TopParent(req.TopParent),
		LeadFormID:   strings.TrimSpace(req.LeadFormID),
		FirstContact: req.FirstContact,
		Global:       req.Global,
	}
	if req.ParentID != nil {
		if p := strings.TrimSpace(*req.ParentID); p != "" {
			c.ParentID = &p
		}
	}
	return c
}

func validateCategory(tree *Tree, c repository.Category) error {
	if !c.TopParent.Valid() {
		return apperr.Validation("unknown top-level group").WithDetails(map[string]string{"topParent": string(c.TopParent)})
	}
	if c.ParentID != nil {
		parent, ok := tree.Get(*c.ParentID)
		if !ok {
			return apperr.Validation("parent category not found")
		}
		if parent.TopParent != c.TopParent {
			return apperr.Validation("parent belongs to a different group")
		}
		if tree.createsCycle(c.ID, *c.ParentID) {
			return apperr.Validation("parent would create a cycle")
		}
	}
	if c.LeadFormID != "" {
		if other, ok := tree.FindByLeadFormID(c.LeadFormID); ok && other.ID != c.ID {
			return apperr.Conflict("lead form id already used").WithDetails(map[string]string{"categoryId": other.ID})
		}
	}
	return nil
}

// ListLabels returns every label.
func (s *Service) ListLabels(ctx context.Context) (transport.LabelListResponse, error) {
	items, err := s.repo.ListLabels(ctx)
	if err != nil {
		return transport.LabelListResponse{}, err
	}
	return transport.LabelListResponse{Items: items}, nil
}

// CreateLabel adds a label to a category or top-level group.
func (s *Service) CreateLabel(ctx context.Context, req transport.LabelRequest) (repository.Label, error) {
	l := labelFromRequest(req)
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	l.Active = req.Active == nil || *req.Active
	l.LastAssignedIndex = -1
	if req.LastAssignedIndex != nil {
		l.LastAssignedIndex = *req.LastAssignedIndex
	}
	l.NormalizeCursor()

	if err := s.checkLabelTarget(ctx, l.CategoryID); err != nil {
		return repository.Label{}, err
	}
	if _, err := s.repo.GetLabel(ctx, l.ID); err == nil {
		return repository.Label{}, apperr.Conflict("label id already exists")
	} else if !apperr.Is(err, apperr.KindNotFound) {
		return repository.Label{}, err
	}

	created, err := s.repo.CreateLabel(ctx, l)
	if err != nil {
		return repository.Label{}, err
	}
	s.log.Info("label created", "labelId", created.ID, "categoryId", created.CategoryID, "advisors", len(created.Advisors))
	return created, nil
}

// UpdateLabel replaces a label. The stored cursor is kept when still in
// range; the store settles it under the rotation lock.
func (s *Service) UpdateLabel(ctx context.Context, id string, req transport.LabelRequest) (repository.Label, error) {
	current, err := s.repo.GetLabel(ctx, id)
	if err != nil {
		return repository.Label{}, err
	}

	l := labelFromRequest(req)
	l.ID = id
	l.Active = current.Active
	if req.Active != nil {
		l.Active = *req.Active
	}

	if err := s.checkLabelTarget(ctx, l.CategoryID); err != nil {
		return repository.Label{}, err
	}
	return s.repo.UpdateLabel(ctx, l, req.LastAssignedIndex)
}

// DeleteLabel removes a label.
func (s *Service) DeleteLabel(ctx context.Context, id string) error {
	return s.repo.DeleteLabel(ctx, id)
}

// checkLabelTarget accepts an existing category id or a top-level group name.
func (s *Service) checkLabelTarget(ctx context.Context, categoryID string) error {
	if repository.TopParent(categoryID).Valid() {
		return nil
	}
	if _, err := s.repo.GetCategory(ctx, categoryID); err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return apperr.Validation("label category not found").WithDetails(map[string]string{"categoryId": categoryID})
		}
		return err
	}
	return nil
}

func labelFromRequest(req transport.LabelRequest) repository.Label {
	advisors := make([]string, 0, len(req.Advisors))
	for _, a := range req.Advisors {
		if a = strings.TrimSpace(a); a != "" {
			advisors = append(advisors, a)
		}
	}
	return repository.Label{
		ID:         strings.TrimSpace(req.ID),
		Title:      strings.TrimSpace(req.Title),
		CategoryID: strings.TrimSpace(req.CategoryID),
		Advisors:   advisors,
		Language:   strings.ToLower(strings.TrimSpace(req.Language)),
		Message:    req.Message,
	}
}
