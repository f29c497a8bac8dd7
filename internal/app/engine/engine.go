// Package engine wires the stores and services of the record engine
// together. The service bootstrap and the CLI both build one.
package engine

import (
	"github.com/dalemusser/rollbook/internal/app/policy/recordpolicy"
	"github.com/dalemusser/rollbook/internal/app/store"
	attendancestore "github.com/dalemusser/rollbook/internal/app/store/attendance"
	"github.com/dalemusser/rollbook/internal/app/store/audit"
	gradestore "github.com/dalemusser/rollbook/internal/app/store/grades"
	permissionstore "github.com/dalemusser/rollbook/internal/app/store/permissions"
	staffstore "github.com/dalemusser/rollbook/internal/app/store/staff"
	studentstore "github.com/dalemusser/rollbook/internal/app/store/students"
	"github.com/dalemusser/rollbook/internal/app/system/aggregate"
	"github.com/dalemusser/rollbook/internal/app/system/auditlog"
	"github.com/dalemusser/rollbook/internal/app/system/batch"
	"github.com/dalemusser/rollbook/internal/app/system/identity"
	"github.com/dalemusser/rollbook/internal/app/system/permits"
	"github.com/dalemusser/rollbook/internal/app/system/records"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Options configures the services.
type Options struct {
	Identity         identity.Config
	Audit            auditlog.Config
	Bands            aggregate.Bands
	BatchConcurrency int
	// Verifier checks federated assertions; nil rejects them.
	Verifier identity.AssertionVerifier
}

// Engine holds the wired services.
type Engine struct {
	Stores   store.Set
	Audit    *auditlog.Logger
	Identity *identity.Resolver
	Permits  *permits.Service
	Guard    *recordpolicy.Guard
	Records  *records.Service
	Batch    *batch.Orchestrator
}

// New builds an Engine over stores, writing audit events to sink.
func New(stores store.Set, sink auditlog.Sink, opts Options, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	al := auditlog.New(sink, logger, opts.Audit)
	guard := recordpolicy.New(stores.Students, stores.Permissions, logger.Named("guard"))
	recs := records.New(stores, guard, records.Config{Bands: opts.Bands}, al, logger.Named("records"))

	return &Engine{
		Stores:   stores,
		Audit:    al,
		Identity: identity.New(stores, opts.Identity, opts.Verifier, al, logger.Named("identity")),
		Permits:  permits.New(stores.Permissions, guard, al, logger.Named("permits")),
		Guard:    guard,
		Records:  recs,
		Batch:    batch.New(recs, batch.Config{Concurrency: opts.BatchConcurrency}, al, logger.Named("batch")),
	}
}

// NewMongo builds an Engine over the Mongo-backed stores of db.
func NewMongo(db *mongo.Database, opts Options, logger *zap.Logger) *Engine {
	return New(MongoStores(db), audit.New(db), opts, logger)
}

// MongoStores returns the Mongo implementations of every store.
func MongoStores(db *mongo.Database) store.Set {
	return store.Set{
		Students:    studentstore.New(db),
		Permissions: permissionstore.New(db),
		Attendance:  attendancestore.New(db),
		Grades:      gradestore.New(db),
		Staff:       staffstore.New(db),
	}
}
