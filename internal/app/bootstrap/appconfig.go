// internal/app/bootstrap/appconfig.go
package bootstrap

import (
	"github.com/dalemusser/rollbook/internal/app/engine"
	"github.com/dalemusser/rollbook/internal/app/system/aggregate"
	"github.com/dalemusser/rollbook/internal/app/system/auditlog"
	"github.com/dalemusser/rollbook/internal/app/system/identity"
)

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers
// ports, TLS, logging and request limits; everything about the record
// engine lives here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Identity resolution
	StrictRosterLookup  bool     // reject accounts missing from the roster
	TeacherEmailMarkers []string // email substrings that mark a teacher

	// Attendance bands (minimum rate for A, B, C, D)
	Bands aggregate.Bands

	// Bulk import
	BatchConcurrency int

	// Audit logging
	AuditLogAuth    string // "all", "db", "log", or "off"
	AuditLogRecords string

	// BootstrapTeacherEmail gets a teacher permission on startup when set.
	BootstrapTeacherEmail string
}

// EngineOptions maps the config onto the engine's options.
func (c AppConfig) EngineOptions() engine.Options {
	return engine.Options{
		Identity: identity.Config{
			StrictRosterLookup:  c.StrictRosterLookup,
			TeacherEmailMarkers: c.TeacherEmailMarkers,
		},
		Audit:            auditlog.Config{Auth: c.AuditLogAuth, Records: c.AuditLogRecords},
		Bands:            c.Bands,
		BatchConcurrency: c.BatchConcurrency,
	}
}
