package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestDecision(t *testing.T) {
	before := testutil.ToFloat64(Decisions.WithLabelValues("edit_grade", "deny"))
	Decision("edit_grade", false)
	if got := testutil.ToFloat64(Decisions.WithLabelValues("edit_grade", "deny")); got != before+1 {
		t.Errorf("deny counter = %v, want %v", got, before+1)
	}
}

func TestUpsertAndBatch(t *testing.T) {
	okBefore := testutil.ToFloat64(Upserts.WithLabelValues("attendance", "ok"))
	errBefore := testutil.ToFloat64(Upserts.WithLabelValues("attendance", "error"))
	Upsert("attendance", nil)
	Upsert("attendance", errors.New("boom"))
	if got := testutil.ToFloat64(Upserts.WithLabelValues("attendance", "ok")); got != okBefore+1 {
		t.Errorf("ok = %v", got)
	}
	if got := testutil.ToFloat64(Upserts.WithLabelValues("attendance", "error")); got != errBefore+1 {
		t.Errorf("error = %v", got)
	}

	rowsBefore := testutil.ToFloat64(BatchRows.WithLabelValues("grade", "processed"))
	Batch("grade", true, 3, 0)
	if got := testutil.ToFloat64(BatchRows.WithLabelValues("grade", "processed")); got != rowsBefore+3 {
		t.Errorf("processed rows = %v", got)
	}
}
