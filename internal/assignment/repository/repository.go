// Package repository persists the lead-assignment settings record.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"medcrm_backend/internal/assignment/domain"
)

// Repo stores the single settings row (id = 1) in Postgres.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new settings repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func loadSettings(ctx context.Context, q querier, suffix string) (domain.Settings, error) {
	var strategy string
	var raw []byte
	s := domain.DefaultSettings()

	err := q.QueryRow(ctx,
		`SELECT strategy, advisors, last_assigned_index, updated_at FROM lead_assignment_settings WHERE id = 1`+suffix,
	).Scan(&strategy, &raw, &s.LastAssignedIndex, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return s, nil
	}
	if err != nil {
		return domain.Settings{}, fmt.Errorf("load assignment settings: %w", err)
	}

	if err := json.Unmarshal(raw, &s.Advisors); err != nil {
		return domain.Settings{}, fmt.Errorf("decode assignment advisors: %w", err)
	}
	if s.Advisors == nil {
		s.Advisors = []domain.Advisor{}
	}
	var known bool
	if s.Strategy, known = domain.ParseStrategy(strategy); !known {
		s.CoercedFrom = strategy
	}
	return s, nil
}

// GetSettings reads the settings record. A missing row yields defaults.
func (r *Repo) GetSettings(ctx context.Context) (domain.Settings, error) {
	return loadSettings(ctx, r.pool, "")
}

// SaveSettings upserts the settings record. The row lock makes the cursor
// settle against the value RotateGlobal last committed.
func (r *Repo) SaveSettings(ctx context.Context, s domain.Settings, cursor *int) (domain.Settings, error) {
	advisors, err := json.Marshal(s.Advisors)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("encode assignment advisors: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("begin settings update: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	current, err := loadSettings(ctx, tx, " FOR UPDATE")
	if err != nil {
		return domain.Settings{}, err
	}
	s.SettleCursor(current.LastAssignedIndex, cursor)

	query := `
		INSERT INTO lead_assignment_settings (id, strategy, advisors, last_assigned_index, updated_at)
		VALUES (1, $1, $2::jsonb, $3, now())
		ON CONFLICT (id) DO UPDATE
		SET strategy = EXCLUDED.strategy,
			advisors = EXCLUDED.advisors,
			last_assigned_index = EXCLUDED.last_assigned_index,
			updated_at = now()
		RETURNING updated_at`

	if err := tx.QueryRow(ctx, query, string(s.Strategy), string(advisors), s.LastAssignedIndex).Scan(&s.UpdatedAt); err != nil {
		return domain.Settings{}, fmt.Errorf("save assignment settings: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Settings{}, fmt.Errorf("commit settings update: %w", err)
	}
	s.CoercedFrom = ""
	return s, nil
}

// RotateGlobal locks the settings row, hands advisors and cursor to step and
// writes the returned cursor back before releasing the lock.
func (r *Repo) RotateGlobal(ctx context.Context, step domain.GlobalStep) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin global rotation: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	s, err := loadSettings(ctx, tx, " FOR UPDATE")
	if err != nil {
		return err
	}

	next, ok := step(s.Advisors, s.LastAssignedIndex)
	if !ok {
		return nil
	}

	if _, err := tx.Exec(ctx,
		`UPDATE lead_assignment_settings SET last_assigned_index = $1, updated_at = now() WHERE id = 1`, next,
	); err != nil {
		return fmt.Errorf("advance global cursor: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit global rotation: %w", err)
	}
	return nil
}
