package transport

import "medcrm_backend/internal/categories/repository"

// Categories

type CategoryRequest struct {
	ID           string  `json:"id" validate:"omitempty,max=100" yaml:"id"`
	Name         string  `json:"name" validate:"required,min=1,max=200" yaml:"name"`
	TopParent    string  `json:"topParent" validate:"required,topparent" yaml:"topParent"`
	ParentID     *string `json:"parentId,omitempty" validate:"omitempty,max=100" yaml:"parentId"`
	LeadFormID   string  `json:"leadFormId" validate:"max=200" yaml:"leadFormId"`
	FirstContact bool    `json:"firstContact" yaml:"firstContact"`
	Global       bool    `json:"global" yaml:"global"`
}

type CategoryListResponse struct {
	Items      []repository.Category `json:"items"`
	TopParents []string              `json:"topParents"`
}

type ParentChainResponse struct {
	ID    string   `json:"id"`
	Chain []string `json:"chain"`
}

// Labels

type LabelRequest struct {
	ID                string   `json:"id" validate:"omitempty,max=100" yaml:"id"`
	Title             string   `json:"title" validate:"required,min=1,max=200" yaml:"title"`
	CategoryID        string   `json:"categoryId" validate:"required,max=100" yaml:"categoryId"`
	Advisors          []string `json:"advisors" validate:"omitempty,dive,max=100" yaml:"advisors"`
	Language          string   `json:"language" validate:"max=10" yaml:"language"`
	Message           string   `json:"message" validate:"max=4000" yaml:"message"`
	Active            *bool    `json:"active,omitempty" yaml:"active"`
	LastAssignedIndex *int     `json:"lastAssignedIndex,omitempty" yaml:"lastAssignedIndex"`
}

type LabelListResponse struct {
	Items []repository.Label `json:"items"`
}

// ResolveLabelResponse previews which label a lead in CategoryID would use.
type ResolveLabelResponse struct {
	CategoryID string            `json:"categoryId"`
	Chain      []string          `json:"chain"`
	Label      *repository.Label `json:"label"`
}
