package batch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/dalemusser/rollbook/internal/app/system/auditlog"
	"github.com/dalemusser/rollbook/internal/app/system/metrics"
	"github.com/dalemusser/rollbook/internal/app/system/timeouts"
	"github.com/dalemusser/rollbook/internal/domain/errs"
	"github.com/dalemusser/rollbook/internal/domain/models"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds concurrent item writes when Config leaves it 0.
const DefaultConcurrency = 8

// Config tunes the orchestrator.
type Config struct {
	Concurrency int
	Policy      CommitPolicy
}

// Orchestrator validates and commits batches.
type Orchestrator struct {
	writer   Writer
	cfg      Config
	validate *validator.Validate
	audit    *auditlog.Logger
	log      *zap.Logger
}

// New creates an Orchestrator writing through w.
func New(w Writer, cfg Config, audit *auditlog.Logger, logger *zap.Logger) *Orchestrator {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.Policy == nil {
		cfg.Policy = AllOrNothing
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		writer:   w,
		cfg:      cfg,
		validate: newValidator(),
		audit:    audit,
		log:      logger,
	}
}

// Commit writes items concurrently. Failures are collected per row and do
// not undo the other writes.
func (o *Orchestrator) Commit(ctx context.Context, sub models.Subject, items []Item) Outcome {
	var (
		mu  sync.Mutex
		out Outcome
		g   errgroup.Group
	)
	g.SetLimit(o.cfg.Concurrency)

	for _, it := range items {
		g.Go(func() error {
			err := ctx.Err()
			if err == nil {
				err = o.writer.WriteItem(ctx, sub, it)
			}
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				re := RowError{Row: it.Line, Account: it.Account, Error: errs.Message(err)}
				var e *errs.Error
				if errors.As(err, &e) {
					re.Field = e.Field
					if e.Kind == errs.ErrPermissionDenied {
						re.Error = "permission denied: " + e.Message()
					}
				}
				out.Errors = append(out.Errors, re)
				return nil
			}
			out.Processed++
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(out.Errors, func(i, j int) bool { return out.Errors[i].Row < out.Errors[j].Row })
	return out
}

// Import validates rows against s, applies the commit policy and commits.
func (o *Orchestrator) Import(ctx context.Context, sub models.Subject, rows []Row, s Schema) Result {
	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Batch(), o.log, "batch import")
	defer cancel()

	batchID := uuid.NewString()
	log := o.log.With(
		zap.String("batch_id", batchID),
		zap.String("kind", string(s.Kind)),
		zap.String("actor", sub.Account))

	total := len(dataRows(rows))
	items, rowErrs := o.ValidateRows(rows, s)
	res := Result{
		Errors:     rowErrs,
		TotalCount: total,
		ValidCount: len(items),
		BatchID:    batchID,
	}

	if !o.cfg.Policy.Allow(items, rowErrs) {
		switch {
		case len(rowErrs) == 1 && rowErrs[0].Row == 0:
			res.Message = "upload rejected: " + rowErrs[0].Error
		case total == 0:
			res.Message = "no data rows"
		default:
			res.Message = fmt.Sprintf("upload rejected: %d of %d rows are invalid; nothing was saved", total-len(items), total)
		}
		log.Info("batch rejected",
			zap.String("policy", o.cfg.Policy.Name()),
			zap.Int("total", total),
			zap.Int("valid", len(items)),
			zap.Int("row_errors", len(rowErrs)))
		o.finish(ctx, sub, s, &res)
		return res
	}

	outcome := o.Commit(ctx, sub, items)
	res.ProcessedCount = outcome.Processed
	res.Errors = outcome.Errors
	res.Success = len(outcome.Errors) == 0
	if res.Success {
		res.Message = fmt.Sprintf("%d rows saved", outcome.Processed)
	} else {
		res.Message = fmt.Sprintf("%d of %d rows saved; %d failed", outcome.Processed, len(items), len(outcome.Errors))
	}
	log.Info("batch committed",
		zap.Int("processed", outcome.Processed),
		zap.Int("failed", len(outcome.Errors)))
	o.finish(ctx, sub, s, &res)
	return res
}

func (o *Orchestrator) finish(ctx context.Context, sub models.Subject, s Schema, res *Result) {
	if res.Errors == nil {
		res.Errors = []RowError{}
	}
	failed := res.TotalCount - res.ProcessedCount
	metrics.Batch(string(s.Kind), res.Success, res.ProcessedCount, failed)
	o.audit.BatchCommitted(context.WithoutCancel(ctx), sub.Account, res.BatchID, string(s.Kind), res.Success, res.ProcessedCount, res.TotalCount)
}
