// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dalemusser/rollbook/internal/app/system/aggregate"
	"github.com/dalemusser/rollbook/internal/app/system/batch"
	"github.com/dalemusser/rollbook/internal/app/system/cliconfig"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for rollbook.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, strict_roster_lookup, etc.
//   - Environment variables: ROLLBOOK_MONGO_URI, ROLLBOOK_BAND_A, etc.
//   - Command-line flags: --mongo_uri, --band_a, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: cliconfig.DefaultMongoURI, Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: cliconfig.DefaultMongoDatabase, Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// Identity
	{Name: "strict_roster_lookup", Default: true, Desc: "Reject student accounts that are not on the roster"},
	{Name: "teacher_email_markers", Default: cliconfig.DefaultMarkers, Desc: "Comma separated email substrings that identify teachers"},

	// Attendance bands
	{Name: "band_a", Default: formatBand(aggregate.DefaultBands.A), Desc: "Minimum attendance rate for band A"},
	{Name: "band_b", Default: formatBand(aggregate.DefaultBands.B), Desc: "Minimum attendance rate for band B"},
	{Name: "band_c", Default: formatBand(aggregate.DefaultBands.C), Desc: "Minimum attendance rate for band C"},
	{Name: "band_d", Default: formatBand(aggregate.DefaultBands.D), Desc: "Minimum attendance rate for band D"},

	// Bulk import
	{Name: "batch_concurrency", Default: batch.DefaultConcurrency, Desc: "Concurrent writes per batch commit"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_records", Default: "all", Desc: "Record event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Teacher bootstrap
	{Name: "bootstrap_teacher_email", Default: "", Desc: "Email that gets a teacher permission on startup"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, ROLLBOOK_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "ROLLBOOK", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		StrictRosterLookup:  appValues.Bool("strict_roster_lookup"),
		TeacherEmailMarkers: cliconfig.List(appValues.String("teacher_email_markers")),

		BatchConcurrency: appValues.Int("batch_concurrency"),

		AuditLogAuth:    appValues.String("audit_log_auth"),
		AuditLogRecords: appValues.String("audit_log_records"),

		BootstrapTeacherEmail: appValues.String("bootstrap_teacher_email"),
	}

	for _, b := range []struct {
		key string
		dst *float64
	}{
		{"band_a", &appCfg.Bands.A},
		{"band_b", &appCfg.Bands.B},
		{"band_c", &appCfg.Bands.C},
		{"band_d", &appCfg.Bands.D},
	} {
		v, err := strconv.ParseFloat(strings.TrimSpace(appValues.String(b.key)), 64)
		if err != nil {
			return nil, AppConfig{}, fmt.Errorf("%s: %w", b.key, err)
		}
		*b.dst = v
	}

	return coreCfg, appCfg, nil
}

func formatBand(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ValidateConfig performs app-specific config validation.
//
// The MongoDB URI is checked before any connection attempt; the remaining
// checks mirror the CLI's so both entry points reject the same settings.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if err := appCfg.Bands.Validate(); err != nil {
		return err
	}
	if appCfg.BatchConcurrency < 1 {
		return fmt.Errorf("batch_concurrency must be >= 1, got %d", appCfg.BatchConcurrency)
	}
	for key, v := range map[string]string{"audit_log_auth": appCfg.AuditLogAuth, "audit_log_records": appCfg.AuditLogRecords} {
		if !cliconfig.ValidAuditSetting(v) {
			return fmt.Errorf("%s: %q is not one of all, db, log, off", key, v)
		}
	}
	return nil
}
