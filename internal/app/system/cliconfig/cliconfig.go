// Package cliconfig loads configuration for the command-line tools from an
// optional .env file and ROLLBOOK_* environment variables. The service reads
// the same keys through waffle's config loader.
package cliconfig

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/dalemusser/rollbook/internal/app/system/aggregate"
	"github.com/dalemusser/rollbook/internal/app/system/auditlog"
	"github.com/dalemusser/rollbook/internal/app/system/batch"
	"github.com/dalemusser/rollbook/internal/app/system/identity"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/joho/godotenv"
)

// Prefix is prepended to every environment key.
const Prefix = "ROLLBOOK_"

// Defaults shared with the service configuration.
const (
	DefaultMongoURI      = "mongodb://localhost:27017"
	DefaultMongoDatabase = "rollbook"
	DefaultMarkers       = "teacher,profesor,docente"
)

// Config is everything the CLI needs to build the record engine.
type Config struct {
	MongoURI      string
	MongoDatabase string

	StrictRosterLookup  bool
	TeacherEmailMarkers []string

	Bands            aggregate.Bands
	BatchConcurrency int

	AuditLogAuth    string
	AuditLogRecords string

	LogLevel string
	Env      string // dev|prod
}

// Load reads the given .env files (".env" when none are named; missing
// files are ignored), then the environment, then validates.
func Load(dotenv ...string) (Config, error) {
	if len(dotenv) == 0 {
		dotenv = []string{".env"}
	}
	for _, p := range dotenv {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", p, err)
		}
	}

	var (
		cfg  Config
		errs []error
	)
	cfg.MongoURI = getenv("MONGO_URI", DefaultMongoURI)
	cfg.MongoDatabase = getenv("MONGO_DATABASE", DefaultMongoDatabase)
	cfg.StrictRosterLookup = getbool("STRICT_ROSTER_LOOKUP", true, &errs)
	cfg.TeacherEmailMarkers = List(getenv("TEACHER_EMAIL_MARKERS", DefaultMarkers))
	cfg.Bands = aggregate.Bands{
		A: getfloat("BAND_A", aggregate.DefaultBands.A, &errs),
		B: getfloat("BAND_B", aggregate.DefaultBands.B, &errs),
		C: getfloat("BAND_C", aggregate.DefaultBands.C, &errs),
		D: getfloat("BAND_D", aggregate.DefaultBands.D, &errs),
	}
	cfg.BatchConcurrency = getint("BATCH_CONCURRENCY", batch.DefaultConcurrency, &errs)
	cfg.AuditLogAuth = getenv("AUDIT_LOG_AUTH", auditlog.ToAll)
	cfg.AuditLogRecords = getenv("AUDIT_LOG_RECORDS", auditlog.ToAll)
	cfg.LogLevel = getenv("LOG_LEVEL", "info")
	cfg.Env = getenv("ENV", "dev")

	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the values Load cannot check one key at a time.
func (c Config) Validate() error {
	if err := wafflemongo.ValidateURI(c.MongoURI); err != nil {
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if c.MongoDatabase == "" {
		return errors.New("mongo database name is empty")
	}
	if err := c.Bands.Validate(); err != nil {
		return err
	}
	if c.BatchConcurrency < 1 {
		return fmt.Errorf("batch concurrency must be >= 1, got %d", c.BatchConcurrency)
	}
	for key, v := range map[string]string{"audit_log_auth": c.AuditLogAuth, "audit_log_records": c.AuditLogRecords} {
		if !ValidAuditSetting(v) {
			return fmt.Errorf("%s: %q is not one of all, db, log, off", key, v)
		}
	}
	return nil
}

// Identity returns the resolver settings.
func (c Config) Identity() identity.Config {
	return identity.Config{
		StrictRosterLookup:  c.StrictRosterLookup,
		TeacherEmailMarkers: c.TeacherEmailMarkers,
	}
}

// Audit returns the audit logger settings.
func (c Config) Audit() auditlog.Config {
	return auditlog.Config{Auth: c.AuditLogAuth, Records: c.AuditLogRecords}
}

// ValidAuditSetting reports whether v is a known audit destination.
func ValidAuditSetting(v string) bool {
	switch v {
	case auditlog.ToAll, auditlog.ToDB, auditlog.ToLog, auditlog.Off:
		return true
	}
	return false
}

// List splits a comma separated value, dropping blanks and lowercasing.
func List(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getenv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(Prefix + k)); v != "" {
		return v
	}
	return def
}

func getbool(k string, def bool, errs *[]error) bool {
	v := getenv(k, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s%s: %w", Prefix, k, err))
		return def
	}
	return b
}

func getint(k string, def int, errs *[]error) int {
	v := getenv(k, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s%s: %w", Prefix, k, err))
		return def
	}
	return n
}

func getfloat(k string, def float64, errs *[]error) float64 {
	v := getenv(k, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s%s: %w", Prefix, k, err))
		return def
	}
	return f
}
