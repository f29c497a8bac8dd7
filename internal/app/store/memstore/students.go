package memstore

import (
	"context"
	"sort"

	"github.com/dalemusser/rollbook/internal/app/store"
	"github.com/dalemusser/rollbook/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
)

type studentRow = models.Student

// StudentTable is the in-memory roster.
type StudentTable struct {
	t *table[string, studentRow]
}

// FailWith makes every call return err until called again with nil.
func (s *StudentTable) FailWith(err error) { s.t.failWith(err) }

func (s *StudentTable) Get(_ context.Context, account string) (models.Student, error) {
	s.t.mu.RLock()
	defer s.t.mu.RUnlock()
	if s.t.fail != nil {
		return models.Student{}, s.t.fail
	}
	st, ok := s.t.rows[account]
	if !ok {
		return models.Student{}, store.ErrNotFound
	}
	return st, nil
}

func (s *StudentTable) List(_ context.Context, f store.StudentFilter) ([]models.Student, error) {
	s.t.mu.RLock()
	defer s.t.mu.RUnlock()
	if s.t.fail != nil {
		return nil, s.t.fail
	}
	want := toSet(f.Accounts)
	out := make([]models.Student, 0, len(s.t.rows))
	for _, st := range s.t.rows {
		if f.Group != "" && st.Group != f.Group {
			continue
		}
		if want != nil && !want[st.Account] {
			continue
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Account < out[j].Account })
	return out, nil
}

func (s *StudentTable) Upsert(_ context.Context, st models.Student) (bool, error) {
	s.t.mu.Lock()
	defer s.t.mu.Unlock()
	if s.t.fail != nil {
		return false, s.t.fail
	}
	ts := now()
	if cur, ok := s.t.rows[st.Account]; ok {
		cur.Group = st.Group
		cur.UpdatedAt = ts
		s.t.rows[st.Account] = cur
		return false, nil
	}
	st.FullNameCI = text.Fold(st.FullName())
	st.CreatedAt = ts
	st.UpdatedAt = ts
	s.t.rows[st.Account] = st
	return true, nil
}

func (s *StudentTable) SetGroup(_ context.Context, account, group string) error {
	s.t.mu.Lock()
	defer s.t.mu.Unlock()
	if s.t.fail != nil {
		return s.t.fail
	}
	cur, ok := s.t.rows[account]
	if !ok {
		return store.ErrNotFound
	}
	cur.Group = group
	cur.UpdatedAt = now()
	s.t.rows[account] = cur
	return nil
}

func (s *StudentTable) Delete(_ context.Context, account string) error {
	s.t.mu.Lock()
	defer s.t.mu.Unlock()
	if s.t.fail != nil {
		return s.t.fail
	}
	if _, ok := s.t.rows[account]; !ok {
		return store.ErrNotFound
	}
	delete(s.t.rows, account)
	return nil
}

func toSet(xs []string) map[string]bool {
	if len(xs) == 0 {
		return nil
	}
	m := make(map[string]bool, len(xs))
	for _, x := range xs {
		m[x] = true
	}
	return m
}
