// Package store bundles the persistence drivers behind the interfaces the
// modules consume: Postgres when a database is configured, otherwise JSON
// files under a data directory.
package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	arepo "medcrm_backend/internal/assignment/repository"
	asvc "medcrm_backend/internal/assignment/service"
	catrepo "medcrm_backend/internal/categories/repository"
	leadrepo "medcrm_backend/internal/leads/repository"
	"medcrm_backend/internal/store/jsonfile"
	"medcrm_backend/platform/db"
)

// Stores is one driver seen through each module's repository interface.
type Stores struct {
	Driver     string
	Categories catrepo.Repository
	Settings   asvc.SettingsStore
	Customers  leadrepo.Repository
	Health     interface{ Ping(ctx context.Context) error }
}

func NewPostgres(pool *pgxpool.Pool) *Stores {
	return &Stores{
		Driver:     "postgres",
		Categories: catrepo.New(pool),
		Settings:   arepo.New(pool),
		Customers:  leadrepo.New(pool),
		Health:     db.NewPoolAdapter(pool),
	}
}

func NewJSON(dir string) (*Stores, error) {
	s, err := jsonfile.Open(dir)
	if err != nil {
		return nil, err
	}
	return &Stores{
		Driver:     "jsonfile",
		Categories: s,
		Settings:   s,
		Customers:  s,
		Health:     s,
	}, nil
}
