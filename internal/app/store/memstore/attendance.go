package memstore

import (
	"context"
	"sort"

	"github.com/dalemusser/rollbook/internal/app/store"
	"github.com/dalemusser/rollbook/internal/domain/models"
)

type attendanceKey = models.AttendanceKey
type attendanceRow = models.AttendanceRecord

// AttendanceTable keys records by (account, date).
type AttendanceTable struct {
	t *table[attendanceKey, attendanceRow]
}

// FailWith makes every call return err until called again with nil.
func (a *AttendanceTable) FailWith(err error) { a.t.failWith(err) }

// Len reports the number of stored records.
func (a *AttendanceTable) Len() int {
	a.t.mu.RLock()
	defer a.t.mu.RUnlock()
	return len(a.t.rows)
}

func (a *AttendanceTable) Get(_ context.Context, account, date string) (models.AttendanceRecord, error) {
	a.t.mu.RLock()
	defer a.t.mu.RUnlock()
	if a.t.fail != nil {
		return models.AttendanceRecord{}, a.t.fail
	}
	rec, ok := a.t.rows[attendanceKey{Account: account, Date: date}]
	if !ok {
		return models.AttendanceRecord{}, store.ErrNotFound
	}
	return rec, nil
}

func (a *AttendanceTable) Upsert(_ context.Context, u store.AttendanceUpdate) (models.AttendanceRecord, error) {
	a.t.mu.Lock()
	defer a.t.mu.Unlock()
	if a.t.fail != nil {
		return models.AttendanceRecord{}, a.t.fail
	}
	key := attendanceKey{Account: u.Account, Date: u.Date}
	rec, ok := a.t.rows[key]
	if !ok {
		rec = models.AttendanceRecord{StudentAccount: u.Account, Date: u.Date}
	}
	if u.IsPresent != nil {
		rec.IsPresent = *u.IsPresent
	}
	if u.ParticipationCount != nil {
		rec.ParticipationCount = *u.ParticipationCount
	}
	rec.UpdatedAt = stamp(u.At)
	rec.UpdatedBy = u.Actor
	a.t.rows[key] = rec
	return rec, nil
}

func (a *AttendanceTable) Query(_ context.Context, f store.AttendanceFilter, o store.Order) ([]models.AttendanceRecord, error) {
	a.t.mu.RLock()
	defer a.t.mu.RUnlock()
	if a.t.fail != nil {
		return nil, a.t.fail
	}
	want := toSet(f.Accounts)
	var out []models.AttendanceRecord
	for _, rec := range a.t.rows {
		if !matchAttendance(rec, f, want) {
			continue
		}
		out = append(out, rec)
	}
	sortAttendance(out, o)
	return out, nil
}

func (a *AttendanceTable) Delete(_ context.Context, account, date string) error {
	a.t.mu.Lock()
	defer a.t.mu.Unlock()
	if a.t.fail != nil {
		return a.t.fail
	}
	key := attendanceKey{Account: account, Date: date}
	if _, ok := a.t.rows[key]; !ok {
		return store.ErrNotFound
	}
	delete(a.t.rows, key)
	return nil
}

func (a *AttendanceTable) DistinctDates(_ context.Context, f store.AttendanceFilter) ([]string, error) {
	a.t.mu.RLock()
	defer a.t.mu.RUnlock()
	if a.t.fail != nil {
		return nil, a.t.fail
	}
	want := toSet(f.Accounts)
	seen := map[string]bool{}
	for _, rec := range a.t.rows {
		if matchAttendance(rec, f, want) {
			seen[rec.Date] = true
		}
	}
	out := make([]string, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	sort.Strings(out)
	return out, nil
}

func matchAttendance(rec models.AttendanceRecord, f store.AttendanceFilter, want map[string]bool) bool {
	if want != nil && !want[rec.StudentAccount] {
		return false
	}
	if !f.Range.Contains(rec.Date) {
		return false
	}
	if f.IsPresent != nil && rec.IsPresent != *f.IsPresent {
		return false
	}
	return true
}

func sortAttendance(recs []models.AttendanceRecord, o store.Order) {
	less := func(i, j int) bool {
		a, b := recs[i], recs[j]
		if o.Field == "student_account" {
			if a.StudentAccount != b.StudentAccount {
				return a.StudentAccount < b.StudentAccount
			}
			return a.Date < b.Date
		}
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		return a.StudentAccount < b.StudentAccount
	}
	if o.Desc {
		sort.Slice(recs, func(i, j int) bool { return less(j, i) })
		return
	}
	sort.Slice(recs, less)
}
