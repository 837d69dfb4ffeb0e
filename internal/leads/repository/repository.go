// Package repository persists customer records.
package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"medcrm_backend/internal/leads/domain"
	"medcrm_backend/platform/phone"
)

const customerColumns = `id, name, email, phone, phone_digits, advisor, category, category_id, label_id,
	status, source, lead_form_id, campaign_name, no_auto_welcome, created_at`

// Repository is the customer store used by intake and listing.
type Repository interface {
	// ListDedupCandidates returns customers that may collide with the given
	// email or phone. Implementations may return more; never fewer.
	ListDedupCandidates(ctx context.Context, email, phoneDigits string) ([]domain.Customer, error)
	CreateCustomer(ctx context.Context, c domain.Customer) (domain.Customer, error)
	ListCustomers(ctx context.Context, offset, limit int) ([]domain.Customer, int, error)
}

// Repo implements Repository on Postgres.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new customer repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

func scanCustomer(row pgx.Row) (domain.Customer, error) {
	var c domain.Customer
	var source string
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.PhoneDigits, &c.Advisor, &c.Category,
		&c.CategoryID, &c.LabelID, &c.Status, &source, &c.LeadFormID, &c.CampaignName, &c.NoAutoWelcome, &c.CreatedAt)
	c.Source = domain.Source(source)
	return c, err
}

func collect(rows pgx.Rows) ([]domain.Customer, error) {
	defer rows.Close()
	items := make([]domain.Customer, 0)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate customers: %w", err)
	}
	return items, nil
}

// ListDedupCandidates uses the email and phone-tail indexes.
func (r *Repo) ListDedupCandidates(ctx context.Context, email, phoneDigits string) ([]domain.Customer, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	tail := ""
	if len(phoneDigits) >= 6 {
		tail = phone.Last9(phoneDigits)
	}
	if email == "" && tail == "" {
		return nil, nil
	}

	query := `
		SELECT ` + customerColumns + `
		FROM customers
		WHERE ($1 <> '' AND email <> '' AND lower(email) = $1)
		   OR ($2 <> '' AND length(phone_digits) >= 6 AND right(phone_digits, 9) = $2)
		ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, email, tail)
	if err != nil {
		return nil, fmt.Errorf("list dedup candidates: %w", err)
	}
	return collect(rows)
}

// CreateCustomer inserts a customer record.
func (r *Repo) CreateCustomer(ctx context.Context, c domain.Customer) (domain.Customer, error) {
	query := `
		INSERT INTO customers (id, name, email, phone, phone_digits, advisor, category, category_id, label_id,
			status, source, lead_form_id, campaign_name, no_auto_welcome, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING ` + customerColumns

	created, err := scanCustomer(r.pool.QueryRow(ctx, query,
		c.ID, c.Name, c.Email, c.Phone, c.PhoneDigits, c.Advisor, c.Category, c.CategoryID, c.LabelID,
		c.Status, string(c.Source), c.LeadFormID, c.CampaignName, c.NoAutoWelcome, c.CreatedAt,
	))
	if err != nil {
		return domain.Customer{}, fmt.Errorf("create customer: %w", err)
	}
	return created, nil
}

// ListCustomers returns a page of customers, newest first, and the total.
func (r *Repo) ListCustomers(ctx context.Context, offset, limit int) ([]domain.Customer, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM customers`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count customers: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+customerColumns+` FROM customers ORDER BY created_at DESC, id DESC OFFSET $1 LIMIT $2`,
		offset, limit,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list customers: %w", err)
	}
	items, err := collect(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
