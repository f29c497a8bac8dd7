package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/dalemusser/rollbook/internal/app/store"
	"github.com/dalemusser/rollbook/internal/domain/models"
)

type gradeRow = models.GradeRecord

// GradeTable holds one grade record per account.
type GradeTable struct {
	t *table[string, gradeRow]
}

// FailWith makes every call return err until called again with nil.
func (g *GradeTable) FailWith(err error) { g.t.failWith(err) }

func (g *GradeTable) Get(_ context.Context, account string) (models.GradeRecord, error) {
	g.t.mu.RLock()
	defer g.t.mu.RUnlock()
	if g.t.fail != nil {
		return models.GradeRecord{}, g.t.fail
	}
	rec, ok := g.t.rows[account]
	if !ok {
		return models.GradeRecord{}, store.ErrNotFound
	}
	return copyGrade(rec), nil
}

func (g *GradeTable) SetCategory(_ context.Context, account string, c models.Category, value *float64, actor string, at time.Time) (models.GradeRecord, error) {
	g.t.mu.Lock()
	defer g.t.mu.Unlock()
	if g.t.fail != nil {
		return models.GradeRecord{}, g.t.fail
	}
	rec, ok := g.t.rows[account]
	if !ok {
		rec = models.GradeRecord{StudentAccount: account}
	}
	rec = copyGrade(rec)
	if value == nil {
		delete(rec.Scores, c)
	} else {
		rec.Scores[c] = *value
	}
	rec.UpdatedAt = stamp(at)
	rec.UpdatedBy = actor
	g.t.rows[account] = rec
	return copyGrade(rec), nil
}

func (g *GradeTable) SetTotal(_ context.Context, account string, total float64, actor string, at time.Time) error {
	g.t.mu.Lock()
	defer g.t.mu.Unlock()
	if g.t.fail != nil {
		return g.t.fail
	}
	rec, ok := g.t.rows[account]
	if !ok {
		return store.ErrNotFound
	}
	rec.Total = total
	rec.UpdatedAt = stamp(at)
	rec.UpdatedBy = actor
	g.t.rows[account] = rec
	return nil
}

func (g *GradeTable) List(_ context.Context, accounts []string) ([]models.GradeRecord, error) {
	g.t.mu.RLock()
	defer g.t.mu.RUnlock()
	if g.t.fail != nil {
		return nil, g.t.fail
	}
	want := toSet(accounts)
	var out []models.GradeRecord
	for _, rec := range g.t.rows {
		if want != nil && !want[rec.StudentAccount] {
			continue
		}
		out = append(out, copyGrade(rec))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StudentAccount < out[j].StudentAccount })
	return out, nil
}

func (g *GradeTable) Delete(_ context.Context, account string) error {
	g.t.mu.Lock()
	defer g.t.mu.Unlock()
	if g.t.fail != nil {
		return g.t.fail
	}
	if _, ok := g.t.rows[account]; !ok {
		return store.ErrNotFound
	}
	delete(g.t.rows, account)
	return nil
}

func copyGrade(rec models.GradeRecord) models.GradeRecord {
	scores := make(map[models.Category]float64, len(rec.Scores))
	for k, v := range rec.Scores {
		scores[k] = v
	}
	rec.Scores = scores
	return rec
}
