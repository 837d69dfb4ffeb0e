package repository

import (
	"context"
	"time"
)

// TopParent is one of the fixed marketing-source groups the category forest
// hangs from.
type TopParent string

const (
	TopParentMeta     TopParent = "Meta"
	TopParentGoogle   TopParent = "Google"
	TopParentTikTok   TopParent = "TikTok"
	TopParentWebsite  TopParent = "Website"
	TopParentAcente   TopParent = "Acente"
	TopParentReferans TopParent = "Referans"
	TopParentDiger    TopParent = "Diger"
)

// TopParents lists every group in display order.
var TopParents = []TopParent{
	TopParentMeta, TopParentGoogle, TopParentTikTok, TopParentWebsite,
	TopParentAcente, TopParentReferans, TopParentDiger,
}

// Valid reports whether t is a known group.
func (t TopParent) Valid() bool {
	for _, tp := range TopParents {
		if tp == t {
			return true
		}
	}
	return false
}

// Category is one node of the category forest. A node with an empty
// LeadFormID is an organisational folder.
type Category struct {
	ID           string    `json:"id" yaml:"id"`
	Name         string    `json:"name" yaml:"name"`
	TopParent    TopParent `json:"topParent" yaml:"topParent"`
	ParentID     *string   `json:"parentId" yaml:"parentId"`
	LeadFormID   string    `json:"leadFormId" yaml:"leadFormId"`
	FirstContact bool      `json:"firstContact" yaml:"firstContact"`
	Global       bool      `json:"global" yaml:"global"`
	CreatedAt    time.Time `json:"createdAt" yaml:"-"`
	UpdatedAt    time.Time `json:"updatedAt" yaml:"-"`
}

// Label is a per-category messaging and assignment rule. CategoryID may also
// name a top-level group directly (e.g. "Meta").
type Label struct {
	ID                string    `json:"id" yaml:"id"`
	Title             string    `json:"title" yaml:"title"`
	CategoryID        string    `json:"categoryId" yaml:"categoryId"`
	Advisors          []string  `json:"advisors" yaml:"advisors"`
	Language          string    `json:"language" yaml:"language"`
	Message           string    `json:"message" yaml:"message"`
	Active            bool      `json:"active" yaml:"active"`
	LastAssignedIndex int       `json:"lastAssignedIndex" yaml:"lastAssignedIndex"`
	CreatedAt         time.Time `json:"createdAt" yaml:"-"`
	UpdatedAt         time.Time `json:"updatedAt" yaml:"-"`
}

// NormalizeCursor clamps LastAssignedIndex into -1 <= idx < len(Advisors).
func (l *Label) NormalizeCursor() {
	if l.LastAssignedIndex < -1 || l.LastAssignedIndex >= len(l.Advisors) {
		l.LastAssignedIndex = -1
	}
}

// SettleCursor takes override when given, otherwise the stored cursor, and
// normalizes it against the label's advisors. Writers call it while holding
// the same lock RotateLabel uses.
func (l *Label) SettleCursor(stored int, override *int) {
	l.LastAssignedIndex = stored
	if override != nil {
		l.LastAssignedIndex = *override
	}
	l.NormalizeCursor()
}

// LabelStep receives the advisors and cursor read inside the critical section
// and returns the cursor to persist. ok=false leaves the stored cursor as is.
type LabelStep func(advisors []string, cursor int) (next int, ok bool)

// CategoryReader loads the category forest.
type CategoryReader interface {
	ListCategories(ctx context.Context) ([]Category, error)
	GetCategory(ctx context.Context, id string) (Category, error)
}

// CategoryWriter mutates category nodes.
type CategoryWriter interface {
	CreateCategory(ctx context.Context, c Category) (Category, error)
	UpdateCategory(ctx context.Context, c Category) (Category, error)
	DeleteCategory(ctx context.Context, id string) error
}

// LabelReader loads labels.
type LabelReader interface {
	ListLabels(ctx context.Context) ([]Label, error)
	GetLabel(ctx context.Context, id string) (Label, error)
}

// LabelWriter mutates labels.
type LabelWriter interface {
	CreateLabel(ctx context.Context, l Label) (Label, error)
	// UpdateLabel replaces everything but the cursor, which stays as stored
	// unless cursor is non-nil.
	UpdateLabel(ctx context.Context, l Label, cursor *int) (Label, error)
	DeleteLabel(ctx context.Context, id string) error
}

// LabelCursor runs the label rotation read-modify-write as one critical section.
type LabelCursor interface {
	RotateLabel(ctx context.Context, labelID string, step LabelStep) error
}

// Repository is the full category and label store.
type Repository interface {
	CategoryReader
	CategoryWriter
	LabelReader
	LabelWriter
	LabelCursor
}
