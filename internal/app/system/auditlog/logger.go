// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"strconv"

	"github.com/dalemusser/rollbook/internal/app/store/audit"
	"go.uber.org/zap"
)

// Destination settings for a category.
const (
	ToAll = "all" // MongoDB + zap
	ToDB  = "db"  // MongoDB only
	ToLog = "log" // zap only
	Off   = "off"
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls logging for login events.
	Auth string
	// Records controls logging for record, permission and roster changes.
	Records string
}

// Sink persists audit events. *audit.Store and the in-memory audit table
// both satisfy it.
type Sink interface {
	Log(ctx context.Context, event audit.Event) error
}

// Logger writes audit events to a Sink and/or zap depending on Config.
type Logger struct {
	sink   Sink
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger. A nil sink makes "db" settings behave
// like "off".
func New(sink Sink, zapLog *zap.Logger, config Config) *Logger {
	if zapLog == nil {
		zapLog = zap.NewNop()
	}
	return &Logger{sink: sink, zapLog: zapLog, config: config}
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
	}
	if event.Actor != "" {
		fields = append(fields, zap.String("actor", event.Actor))
	}
	if event.Account != "" {
		fields = append(fields, zap.String("account", event.Account))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

func (l *Logger) setting(category string) string {
	var s string
	switch category {
	case audit.CategoryAuth:
		s = l.config.Auth
	default:
		s = l.config.Records
	}
	if s == "" {
		return ToAll
	}
	return s
}

// Log records an audit event according to configuration.
// A nil Logger is a no-op.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}
	setting := l.setting(event.Category)
	if setting == Off {
		return
	}
	if setting == ToAll || setting == ToLog {
		l.logToZap(event)
	}
	if (setting == ToAll || setting == ToDB) && l.sink != nil {
		if err := l.sink.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

// --- Authentication Events ---

// LoginSuccess logs a resolved subject.
func (l *Logger) LoginSuccess(ctx context.Context, account, role, method string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		Account:   account,
		Success:   true,
		Details:   map[string]string{"role": role, "method": method},
	})
}

// LoginFailed logs a rejected credential.
func (l *Logger) LoginFailed(ctx context.Context, attempted, method, reason string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailed,
		Account:       attempted,
		FailureReason: reason,
		Details:       map[string]string{"method": method},
	})
}

// LoginProvisional logs a subject synthesized for an unknown roster account.
func (l *Logger) LoginProvisional(ctx context.Context, account string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginProvisional,
		Account:   account,
		Success:   true,
		Details:   map[string]string{"role": "student", "provisional": "true"},
	})
}

// --- Record Events ---

// RecordWritten logs a successful attendance, participation or grade write.
func (l *Logger) RecordWritten(ctx context.Context, eventType, actor, account string, details map[string]string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryRecords,
		EventType: eventType,
		Actor:     actor,
		Account:   account,
		Success:   true,
		Details:   details,
	})
}

// AccessDenied logs an authorization refusal.
func (l *Logger) AccessDenied(ctx context.Context, actor, account, action, reason string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryRecords,
		EventType:     audit.EventAccessDenied,
		Actor:         actor,
		Account:       account,
		FailureReason: reason,
		Details:       map[string]string{"action": action},
	})
}

// BatchCommitted logs the outcome of a bulk import.
func (l *Logger) BatchCommitted(ctx context.Context, actor, batchID, kind string, success bool, processed, total int) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryRecords,
		EventType: audit.EventBatchCommitted,
		Actor:     actor,
		Success:   success,
		Details: map[string]string{
			"batch_id":  batchID,
			"kind":      kind,
			"processed": strconv.Itoa(processed),
			"total":     strconv.Itoa(total),
		},
	})
}

// --- Permission and Roster Events ---

// PermissionSet logs a stored permission change.
func (l *Logger) PermissionSet(ctx context.Context, actor, account, role string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryPermissions,
		EventType: audit.EventPermissionSet,
		Actor:     actor,
		Account:   account,
		Success:   true,
		Details:   map[string]string{"role": role},
	})
}

// PermissionDeleted logs a permission reverting to defaults.
func (l *Logger) PermissionDeleted(ctx context.Context, actor, account string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryPermissions,
		EventType: audit.EventPermissionDeleted,
		Actor:     actor,
		Account:   account,
		Success:   true,
	})
}

// Roster logs a roster change (import, regroup, delete).
func (l *Logger) Roster(ctx context.Context, eventType, actor, account, group string) {
	var details map[string]string
	if group != "" {
		details = map[string]string{"group": group}
	}
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryRoster,
		EventType: eventType,
		Actor:     actor,
		Account:   account,
		Success:   true,
		Details:   details,
	})
}
