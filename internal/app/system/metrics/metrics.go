// Package metrics exposes Prometheus counters for the record engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Decisions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rollbook", Name: "authz_decisions_total", Help: "Authorization decisions by action and outcome",
	}, []string{"action", "outcome"})
	Upserts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rollbook", Name: "record_upserts_total", Help: "Record writes by kind and result",
	}, []string{"kind", "result"})
	BatchRows = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rollbook", Name: "batch_rows_total", Help: "Batch rows by kind and outcome",
	}, []string{"kind", "outcome"})
	Batches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rollbook", Name: "batches_total", Help: "Batch imports by kind and result",
	}, []string{"kind", "result"})
	Logins = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rollbook", Name: "logins_total", Help: "Identity resolutions by method and outcome",
	}, []string{"method", "outcome"})
	SoftFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rollbook", Name: "read_soft_failures_total", Help: "Aggregate reads that fell back to empty results",
	}, []string{"op"})
)

func init() {
	prometheus.MustRegister(Decisions, Upserts, BatchRows, Batches, Logins, SoftFailures)
}

func Handler() http.Handler { return promhttp.Handler() }

func Decision(action string, allowed bool) {
	Decisions.WithLabelValues(action, outcome(allowed, "allow", "deny")).Inc()
}

func Upsert(kind string, err error) {
	Upserts.WithLabelValues(kind, outcome(err == nil, "ok", "error")).Inc()
}

func Login(method string, ok bool) {
	Logins.WithLabelValues(method, outcome(ok, "ok", "fail")).Inc()
}

func Batch(kind string, success bool, processed, failed int) {
	Batches.WithLabelValues(kind, outcome(success, "success", "rejected")).Inc()
	BatchRows.WithLabelValues(kind, "processed").Add(float64(processed))
	BatchRows.WithLabelValues(kind, "failed").Add(float64(failed))
}

func SoftFailure(op string) { SoftFailures.WithLabelValues(op).Inc() }

func outcome(ok bool, yes, no string) string {
	if ok {
		return yes
	}
	return no
}
