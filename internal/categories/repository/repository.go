package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"medcrm_backend/platform/apperr"
)

const (
	categoryNotFoundMessage = "category not found"
	labelNotFoundMessage    = "label not found"
)

const categoryColumns = `id, name, top_parent, parent_id, lead_form_id, first_contact, is_global, created_at, updated_at`
const labelColumns = `id, title, category_id, advisors, language, message, active, last_assigned_index, created_at, updated_at`

// Repo implements Repository on Postgres.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new category repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

func scanCategory(row pgx.Row) (Category, error) {
	var c Category
	var topParent string
	err := row.Scan(&c.ID, &c.Name, &topParent, &c.ParentID, &c.LeadFormID, &c.FirstContact, &c.Global, &c.CreatedAt, &c.UpdatedAt)
	c.TopParent = TopParent(topParent)
	return c, err
}

func scanLabel(row pgx.Row) (Label, error) {
	var l Label
	var advisors []byte
	if err := row.Scan(&l.ID, &l.Title, &l.CategoryID, &advisors, &l.Language, &l.Message, &l.Active, &l.LastAssignedIndex, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return Label{}, err
	}
	if err := json.Unmarshal(advisors, &l.Advisors); err != nil {
		return Label{}, fmt.Errorf("decode label advisors: %w", err)
	}
	return l, nil
}

// ListCategories returns every node ordered by group and name.
func (r *Repo) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY top_parent, name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	items := make([]Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return items, nil
}

// GetCategory retrieves a node by id.
func (r *Repo) GetCategory(ctx context.Context, id string) (Category, error) {
	c, err := scanCategory(r.pool.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Category{}, apperr.NotFound(categoryNotFoundMessage)
		}
		return Category{}, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

// CreateCategory inserts a node.
func (r *Repo) CreateCategory(ctx context.Context, c Category) (Category, error) {
	query := `
		INSERT INTO categories (id, name, top_parent, parent_id, lead_form_id, first_contact, is_global)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + categoryColumns

	created, err := scanCategory(r.pool.QueryRow(ctx, query,
		c.ID, c.Name, string(c.TopParent), c.ParentID, c.LeadFormID, c.FirstContact, c.Global,
	))
	if err != nil {
		return Category{}, fmt.Errorf("create category: %w", err)
	}
	return created, nil
}

// UpdateCategory replaces the mutable fields of a node.
func (r *Repo) UpdateCategory(ctx context.Context, c Category) (Category, error) {
	query := `
		UPDATE categories
		SET name = $2, top_parent = $3, parent_id = $4, lead_form_id = $5,
			first_contact = $6, is_global = $7, updated_at = now()
		WHERE id = $1
		RETURNING ` + categoryColumns

	updated, err := scanCategory(r.pool.QueryRow(ctx, query,
		c.ID, c.Name, string(c.TopParent), c.ParentID, c.LeadFormID, c.FirstContact, c.Global,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Category{}, apperr.NotFound(categoryNotFoundMessage)
		}
		return Category{}, fmt.Errorf("update category: %w", err)
	}
	return updated, nil
}

// DeleteCategory removes a node.
func (r *Repo) DeleteCategory(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(categoryNotFoundMessage)
	}
	return nil
}

// ListLabels returns every label, active or not.
func (r *Repo) ListLabels(ctx context.Context) ([]Label, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+labelColumns+` FROM labels ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list labels: %w", err)
	}
	defer rows.Close()

	items := make([]Label, 0)
	for rows.Next() {
		l, err := scanLabel(rows)
		if err != nil {
			return nil, fmt.Errorf("scan label: %w", err)
		}
		items = append(items, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate labels: %w", err)
	}
	return items, nil
}

// GetLabel retrieves a label by id.
func (r *Repo) GetLabel(ctx context.Context, id string) (Label, error) {
	l, err := scanLabel(r.pool.QueryRow(ctx, `SELECT `+labelColumns+` FROM labels WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Label{}, apperr.NotFound(labelNotFoundMessage)
		}
		return Label{}, fmt.Errorf("get label: %w", err)
	}
	return l, nil
}

// CreateLabel inserts a label.
func (r *Repo) CreateLabel(ctx context.Context, l Label) (Label, error) {
	advisors, err := encodeAdvisors(l.Advisors)
	if err != nil {
		return Label{}, err
	}
	query := `
		INSERT INTO labels (id, title, category_id, advisors, language, message, active, last_assigned_index)
		VALUES ($1, $2, $3, $4::jsonb, $5, $6, $7, $8)
		RETURNING ` + labelColumns

	created, err := scanLabel(r.pool.QueryRow(ctx, query,
		l.ID, l.Title, l.CategoryID, advisors, l.Language, l.Message, l.Active, l.LastAssignedIndex,
	))
	if err != nil {
		return Label{}, fmt.Errorf("create label: %w", err)
	}
	return created, nil
}

// UpdateLabel replaces a label's fields. The row is locked first so the
// cursor is settled against the value RotateLabel last committed.
func (r *Repo) UpdateLabel(ctx context.Context, l Label, cursor *int) (Label, error) {
	advisors, err := encodeAdvisors(l.Advisors)
	if err != nil {
		return Label{}, err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Label{}, fmt.Errorf("begin label update: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var stored int
	err = tx.QueryRow(ctx, `SELECT last_assigned_index FROM labels WHERE id = $1 FOR UPDATE`, l.ID).Scan(&stored)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Label{}, apperr.NotFound(labelNotFoundMessage)
		}
		return Label{}, fmt.Errorf("lock label: %w", err)
	}
	l.SettleCursor(stored, cursor)

	query := `
		UPDATE labels
		SET title = $2, category_id = $3, advisors = $4::jsonb, language = $5,
			message = $6, active = $7, last_assigned_index = $8, updated_at = now()
		WHERE id = $1
		RETURNING ` + labelColumns

	updated, err := scanLabel(tx.QueryRow(ctx, query,
		l.ID, l.Title, l.CategoryID, advisors, l.Language, l.Message, l.Active, l.LastAssignedIndex,
	))
	if err != nil {
		return Label{}, fmt.Errorf("update label: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return Label{}, fmt.Errorf("commit label update: %w", err)
	}
	return updated, nil
}

// DeleteLabel removes a label.
func (r *Repo) DeleteLabel(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM labels WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete label: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(labelNotFoundMessage)
	}
	return nil
}

// RotateLabel locks the label row, hands its advisors and cursor to step and
// persists the returned cursor in the same transaction.
func (r *Repo) RotateLabel(ctx context.Context, labelID string, step LabelStep) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin label rotation: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var raw []byte
	var cursor int
	err = tx.QueryRow(ctx,
		`SELECT advisors, last_assigned_index FROM labels WHERE id = $1 FOR UPDATE`, labelID,
	).Scan(&raw, &cursor)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound(labelNotFoundMessage)
		}
		return fmt.Errorf("lock label: %w", err)
	}

	var advisors []string
	if err := json.Unmarshal(raw, &advisors); err != nil {
		return fmt.Errorf("decode label advisors: %w", err)
	}

	next, ok := step(advisors, cursor)
	if !ok {
		return nil
	}

	if _, err := tx.Exec(ctx,
		`UPDATE labels SET last_assigned_index = $2, updated_at = now() WHERE id = $1`, labelID, next,
	); err != nil {
		return fmt.Errorf("advance label cursor: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit label rotation: %w", err)
	}
	return nil
}

func encodeAdvisors(advisors []string) (string, error) {
	if advisors == nil {
		advisors = []string{}
	}
	b, err := json.Marshal(advisors)
	if err != nil {
		return "", fmt.Errorf("encode label advisors: %w", err)
	}
	return string(b), nil
}
