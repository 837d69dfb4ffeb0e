package jsonfile

import (
	"context"
	"sort"

	"medcrm_backend/internal/leads/domain"
	"medcrm_backend/internal/leads/repository"
)

// Compile-time check that Store implements the customer repository.
var _ repository.Repository = (*Store)(nil)

func (s *Store) loadCustomers() ([]domain.Customer, error) {
	items := []domain.Customer{}
	if err := s.read(customersFile, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// ListDedupCandidates returns every customer; the file store has no index.
func (s *Store) ListDedupCandidates(_ context.Context, _, _ string) ([]domain.Customer, error) {
	s.customersMu.Lock()
	defer s.customersMu.Unlock()
	return s.loadCustomers()
}

// CreateCustomer appends a customer.
func (s *Store) CreateCustomer(_ context.Context, c domain.Customer) (domain.Customer, error) {
	s.customersMu.Lock()
	defer s.customersMu.Unlock()

	items, err := s.loadCustomers()
	if err != nil {
		return domain.Customer{}, err
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	items = append(items, c)
	if err := s.write(customersFile, items); err != nil {
		return domain.Customer{}, err
	}
	return c, nil
}

// ListCustomers returns a page of customers, newest first.
func (s *Store) ListCustomers(_ context.Context, offset, limit int) ([]domain.Customer, int, error) {
	s.customersMu.Lock()
	items, err := s.loadCustomers()
	s.customersMu.Unlock()
	if err != nil {
		return nil, 0, err
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID > items[j].ID
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})

	total := len(items)
	if offset >= total {
		return []domain.Customer{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return items[offset:end], total, nil
}
