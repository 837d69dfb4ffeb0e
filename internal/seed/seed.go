// Package seed loads routing configuration (categories, labels, assignment
// settings) from a YAML file into the configured store.
package seed

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	asvc "medcrm_backend/internal/assignment/service"
	atransport "medcrm_backend/internal/assignment/transport"
	catsvc "medcrm_backend/internal/categories/service"
	cattransport "medcrm_backend/internal/categories/transport"
	"medcrm_backend/platform/apperr"
	"medcrm_backend/platform/validator"
)

// File is the seed document. Categories are applied in order, so parents
// must come before their children.
type File struct {
	Categories []cattransport.CategoryRequest `yaml:"categories"`
	Labels     []cattransport.LabelRequest    `yaml:"labels"`
	Settings   *atransport.UpdateSettingsRequest `yaml:"settings"`
}

// Summary counts what Apply wrote.
type Summary struct {
	CategoriesCreated int
	CategoriesUpdated int
	LabelsCreated     int
	LabelsUpdated     int
	SettingsWritten   bool
}

func Load(r io.Reader) (File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return File{}, nil
		}
		return File{}, fmt.Errorf("decode seed file: %w", err)
	}
	return f, nil
}

// Applier writes a seed File through the same services the admin API uses,
// so every category and label invariant is enforced.
type Applier struct {
	categories *catsvc.Service
	assignment *asvc.Service
	val        *validator.Validator
}

func NewApplier(categories *catsvc.Service, assignment *asvc.Service, val *validator.Validator) *Applier {
	return &Applier{categories: categories, assignment: assignment, val: val}
}

// Apply upserts every entry by id. Entries without an id are always created.
func (a *Applier) Apply(ctx context.Context, f File) (Summary, error) {
	var sum Summary

	for i, req := range f.Categories {
		if err := a.val.Struct(req); err != nil {
			return sum, fmt.Errorf("category %d (%s): %w", i, req.Name, apperr.Validation("invalid category").WithDetails(validator.FieldErrors(err)))
		}
		created, err := a.upsertCategory(ctx, req)
		if err != nil {
			return sum, fmt.Errorf("category %d (%s): %w", i, req.Name, err)
		}
		if created {
			sum.CategoriesCreated++
		} else {
			sum.CategoriesUpdated++
		}
	}

	for i, req := range f.Labels {
		if err := a.val.Struct(req); err != nil {
			return sum, fmt.Errorf("label %d (%s): %w", i, req.Title, apperr.Validation("invalid label").WithDetails(validator.FieldErrors(err)))
		}
		created, err := a.upsertLabel(ctx, req)
		if err != nil {
			return sum, fmt.Errorf("label %d (%s): %w", i, req.Title, err)
		}
		if created {
			sum.LabelsCreated++
		} else {
			sum.LabelsUpdated++
		}
	}

	if f.Settings != nil {
		if err := a.val.Struct(f.Settings); err != nil {
			return sum, fmt.Errorf("settings: %w", apperr.Validation("invalid settings").WithDetails(validator.FieldErrors(err)))
		}
		if _, err := a.assignment.UpdateSettings(ctx, *f.Settings); err != nil {
			return sum, fmt.Errorf("settings: %w", err)
		}
		sum.SettingsWritten = true
	}

	return sum, nil
}

func (a *Applier) upsertCategory(ctx context.Context, req cattransport.CategoryRequest) (bool, error) {
	if req.ID != "" {
		_, err := a.categories.UpdateCategory(ctx, req.ID, req)
		if err == nil {
			return false, nil
		}
		if !apperr.Is(err, apperr.KindNotFound) {
			return false, err
		}
	}
	_, err := a.categories.CreateCategory(ctx, req)
	return err == nil, err
}

func (a *Applier) upsertLabel(ctx context.Context, req cattransport.LabelRequest) (bool, error) {
	if req.ID != "" {
		_, err := a.categories.UpdateLabel(ctx, req.ID, req)
		if err == nil {
			return false, nil
		}
		if !apperr.Is(err, apperr.KindNotFound) {
			return false, err
		}
	}
	_, err := a.categories.CreateLabel(ctx, req)
	return err == nil, err
}
