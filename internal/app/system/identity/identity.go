// Package identity resolves credentials into Subjects.
//
// Three credential kinds are accepted: a roster account, a staff email and
// password, and a federated assertion checked by an injected verifier.
// Every failure is an errs.ErrAuth error except backing-store failures,
// which are errs.ErrStorage.
package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/rollbook/internal/app/store"
	"github.com/dalemusser/rollbook/internal/app/system/auditlog"
	"github.com/dalemusser/rollbook/internal/app/system/metrics"
	"github.com/dalemusser/rollbook/internal/app/system/normalize"
	"github.com/dalemusser/rollbook/internal/domain/errs"
	"github.com/dalemusser/rollbook/internal/domain/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Credential is one of AccountCredential, PasswordCredential or
// AssertionCredential.
type Credential interface {
	method() string
}

// AccountCredential logs a student in by roster account.
type AccountCredential struct {
	Account string
}

// PasswordCredential logs staff in by email and password.
type PasswordCredential struct {
	Email    string
	Password string
}

// AssertionCredential carries an identity-provider token.
type AssertionCredential struct {
	Token string
}

func (AccountCredential) method() string   { return models.MethodAccount }
func (PasswordCredential) method() string  { return models.MethodPassword }
func (AssertionCredential) method() string { return models.MethodAssertion }

// Claims are what a verified assertion asserts about the caller.
type Claims struct {
	Email string
	Name  string
}

// AssertionVerifier validates an identity-provider token.
type AssertionVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}

// Config controls resolution.
type Config struct {
	// StrictRosterLookup rejects accounts missing from the roster. When
	// false, unknown accounts get a provisional student subject.
	StrictRosterLookup bool
	// TeacherEmailMarkers are substrings that mark an email as a teacher's.
	TeacherEmailMarkers []string
}

// DefaultConfig is strict lookup with the usual teacher markers.
func DefaultConfig() Config {
	return Config{
		StrictRosterLookup:  true,
		TeacherEmailMarkers: []string{"teacher", "profesor", "docente"},
	}
}

// Resolver turns credentials into Subjects.
type Resolver struct {
	students    store.Students
	permissions store.Permissions
	staff       store.StaffAccounts
	verifier    AssertionVerifier
	cfg         Config
	audit       *auditlog.Logger
	log         *zap.Logger
}

// New builds a Resolver over the roster, permission and staff stores.
// verifier may be nil, in which case assertions are rejected.
func New(set store.Set, cfg Config, verifier AssertionVerifier, audit *auditlog.Logger, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		students:    set.Students,
		permissions: set.Permissions,
		staff:       set.Staff,
		verifier:    verifier,
		cfg:         cfg,
		audit:       audit,
		log:         logger,
	}
}

var (
	errEmpty       = errors.New("empty credentials")
	errUnknown     = errors.New("account not on roster")
	errBadPassword = errors.New("invalid email or password")
	errDisabled    = errors.New("account disabled")
	errNoVerifier  = errors.New("assertion login not configured")
	errNoEmail     = errors.New("assertion carries no email")
)

const op = "identity.Resolve"

// Resolve authenticates c and returns the Subject it identifies.
func (r *Resolver) Resolve(ctx context.Context, c Credential) (models.Subject, error) {
	var (
		sub models.Subject
		err error
	)
	method := "unknown"
	switch c := c.(type) {
	case AccountCredential:
		method = c.method()
		sub, err = r.resolveAccount(ctx, c)
	case PasswordCredential:
		method = c.method()
		sub, err = r.resolvePassword(ctx, c)
	case AssertionCredential:
		method = c.method()
		sub, err = r.resolveAssertion(ctx, c)
	default:
		err = r.fail(ctx, "", method, errEmpty)
	}
	metrics.Login(method, err == nil)
	if err != nil {
		return models.Subject{}, err
	}
	if !sub.Provisional {
		r.audit.LoginSuccess(ctx, sub.Account, string(sub.Role), method)
	}
	return sub, nil
}

func (r *Resolver) fail(ctx context.Context, attempted, method string, cause error) error {
	r.audit.LoginFailed(ctx, attempted, method, cause.Error())
	return &errs.Error{Kind: errs.ErrAuth, Op: op, Account: attempted, Err: cause}
}

func (r *Resolver) resolveAccount(ctx context.Context, c AccountCredential) (models.Subject, error) {
	account := normalize.Account(c.Account)
	if account == "" {
		return models.Subject{}, r.fail(ctx, "", c.method(), errEmpty)
	}

	_, err := r.students.Get(ctx, account)
	switch {
	case errors.Is(err, store.ErrNotFound):
		if r.cfg.StrictRosterLookup {
			return models.Subject{}, r.fail(ctx, account, c.method(), errUnknown)
		}
		r.log.Warn("provisional login for account not on roster",
			zap.String("account", account))
		r.audit.LoginProvisional(ctx, account)
		return models.Subject{
			Account:       account,
			Role:          models.RoleStudent,
			Authenticated: true,
			Provisional:   true,
			Method:        c.method(),
		}, nil
	case err != nil:
		return models.Subject{}, errs.Storage(op, err)
	}

	sub := models.Subject{
		Account:       account,
		Role:          models.RoleStudent,
		Authenticated: true,
		Method:        c.method(),
	}
	perm, err := r.permissions.Get(ctx, account)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return models.Subject{}, errs.Storage(op, err)
	case perm.IsGroupLeader:
		sub.Role = models.RoleGroupLeader
	}
	return sub, nil
}

func (r *Resolver) resolvePassword(ctx context.Context, c PasswordCredential) (models.Subject, error) {
	email := normalize.Email(c.Email)
	if email == "" || c.Password == "" {
		return models.Subject{}, r.fail(ctx, email, c.method(), errEmpty)
	}

	acct, err := r.staff.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, store.ErrNotFound):
		// Same message as a wrong password so emails cannot be probed.
		return models.Subject{}, r.fail(ctx, email, c.method(), errBadPassword)
	case err != nil:
		return models.Subject{}, errs.Storage(op, err)
	}
	if acct.Status == models.StaffDisabled {
		return models.Subject{}, r.fail(ctx, email, c.method(), errDisabled)
	}
	if bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(c.Password)) != nil {
		return models.Subject{}, r.fail(ctx, email, c.method(), errBadPassword)
	}

	return models.Subject{
		Account:       email,
		Role:          r.InferRole(email),
		Authenticated: true,
		Method:        c.method(),
	}, nil
}

func (r *Resolver) resolveAssertion(ctx context.Context, c AssertionCredential) (models.Subject, error) {
	if strings.TrimSpace(c.Token) == "" {
		return models.Subject{}, r.fail(ctx, "", c.method(), errEmpty)
	}
	if r.verifier == nil {
		return models.Subject{}, r.fail(ctx, "", c.method(), errNoVerifier)
	}
	claims, err := r.verifier.Verify(ctx, c.Token)
	if err != nil {
		return models.Subject{}, r.fail(ctx, "", c.method(), err)
	}
	email := normalize.Email(claims.Email)
	if email == "" {
		return models.Subject{}, r.fail(ctx, "", c.method(), errNoEmail)
	}
	return models.Subject{
		Account:       email,
		Role:          r.InferRole(email),
		Authenticated: true,
		Method:        c.method(),
	}, nil
}

// InferRole maps an email to teacher when it contains any configured marker,
// otherwise student.
func (r *Resolver) InferRole(email string) models.Role {
	email = normalize.Email(email)
	for _, m := range r.cfg.TeacherEmailMarkers {
		m = strings.ToLower(strings.TrimSpace(m))
		if m != "" && strings.Contains(email, m) {
			return models.RoleTeacher
		}
	}
	return models.RoleStudent
}
