// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	permissionstore "github.com/dalemusser/rollbook/internal/app/store/permissions"
	"github.com/dalemusser/rollbook/internal/app/system/auditlog"
	"github.com/dalemusser/rollbook/internal/app/system/normalize"
	"github.com/dalemusser/rollbook/internal/app/system/permits"
	"github.com/dalemusser/rollbook/internal/app/system/timeouts"
	"github.com/dalemusser/rollbook/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time initialization after DB connections and schema
// setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if n := timeouts.ConfigureFromEnv(); n > 0 {
		logger.Info("timeouts overridden from environment", zap.Int("count", n))
	}
	if appCfg.BootstrapTeacherEmail != "" {
		if err := ensureTeacher(ctx, deps, appCfg.BootstrapTeacherEmail, logger); err != nil {
			return err
		}
	}
	return nil
}

// ensureTeacher gives email a full teacher permission unless it already
// has one.
func ensureTeacher(ctx context.Context, deps DBDeps, email string, logger *zap.Logger) error {
	email = normalize.Email(email)
	svc := permits.New(permissionstore.New(deps.MongoDatabase), nil, auditlog.New(nil, logger, auditlog.Config{}), logger)

	cur, found, err := svc.Get(ctx, email)
	if err != nil {
		return err
	}
	if found && cur.Role == models.RoleTeacher && cur.CanMarkAttendance && cur.CanEditGrades {
		logger.Debug("bootstrap teacher already present", zap.String("email", email))
		return nil
	}
	if _, err := svc.Seed(ctx, permits.Grant(email, models.RoleTeacher, permits.Options{}), "bootstrap"); err != nil {
		return err
	}
	logger.Info("bootstrap teacher permission set", zap.String("email", email), zap.Bool("promoted", found))
	return nil
}
