package memstore

import (
	"context"

	"github.com/dalemusser/rollbook/internal/app/store"
	"github.com/dalemusser/rollbook/internal/app/system/normalize"
	"github.com/dalemusser/rollbook/internal/domain/models"
)

type staffRow = models.StaffAccount

// StaffTable holds staff logins keyed by normalized email.
type StaffTable struct {
	t *table[string, staffRow]
}

func (s *StaffTable) GetByEmail(_ context.Context, email string) (models.StaffAccount, error) {
	s.t.mu.RLock()
	defer s.t.mu.RUnlock()
	if s.t.fail != nil {
		return models.StaffAccount{}, s.t.fail
	}
	a, ok := s.t.rows[normalize.Email(email)]
	if !ok {
		return models.StaffAccount{}, store.ErrNotFound
	}
	return a, nil
}

func (s *StaffTable) Create(_ context.Context, a models.StaffAccount) (models.StaffAccount, error) {
	s.t.mu.Lock()
	defer s.t.mu.Unlock()
	if s.t.fail != nil {
		return models.StaffAccount{}, s.t.fail
	}
	a.Email = normalize.Email(a.Email)
	if _, ok := s.t.rows[a.Email]; ok {
		return models.StaffAccount{}, store.ErrDuplicate
	}
	if a.Status == "" {
		a.Status = models.StaffActive
	}
	ts := now()
	a.CreatedAt = ts
	a.UpdatedAt = ts
	s.t.rows[a.Email] = a
	return a, nil
}
