package memstore

import (
	"context"
	"sort"

	"github.com/dalemusser/rollbook/internal/app/store/audit"
)

// AuditTable records audit events in memory.
type AuditTable struct {
	t *table[int, audit.Event]
}

// Log appends an event, stamping it when needed.
func (a *AuditTable) Log(_ context.Context, e audit.Event) error {
	a.t.mu.Lock()
	defer a.t.mu.Unlock()
	if a.t.fail != nil {
		return a.t.fail
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = now()
	}
	a.t.rows[len(a.t.rows)] = e
	return nil
}

// Query returns matching events, newest first.
func (a *AuditTable) Query(_ context.Context, f audit.QueryFilter) ([]audit.Event, error) {
	a.t.mu.RLock()
	defer a.t.mu.RUnlock()
	if a.t.fail != nil {
		return nil, a.t.fail
	}
	type seqEvent struct {
		seq int
		e   audit.Event
	}
	var hits []seqEvent
	for seq, e := range a.t.rows {
		if f.Matches(e) {
			hits = append(hits, seqEvent{seq, e})
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].seq > hits[j].seq })
	out := make([]audit.Event, 0, len(hits))
	for _, h := range hits {
		if f.Limit > 0 && int64(len(out)) >= f.Limit {
			break
		}
		out = append(out, h.e)
	}
	return out, nil
}

// FailWith makes every call return err until called again with nil.
func (a *AuditTable) FailWith(err error) { a.t.failWith(err) }
