// internal/app/store/audit/store.go
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Event categories
const (
	CategoryAuth        = "auth"
	CategoryRecords     = "records"
	CategoryPermissions = "permissions"
	CategoryRoster      = "roster"
)

// Auth event types
const (
	EventLoginSuccess      = "login_success"
	EventLoginFailed       = "login_failed"
	EventLoginProvisional  = "login_provisional"
	EventAssertionRejected = "assertion_rejected"
)

// Record and administration event types
const (
	EventAttendanceMarked     = "attendance_marked"
	EventParticipationUpdated = "participation_updated"
	EventGradeEdited          = "grade_edited"
	EventAttendanceDeleted    = "attendance_deleted"
	EventGradeDeleted         = "grade_deleted"
	EventAccessDenied         = "access_denied"
	EventBatchCommitted       = "batch_committed"
	EventPermissionSet        = "permission_set"
	EventPermissionDeleted    = "permission_deleted"
	EventStudentImported      = "student_imported"
	EventStudentRegrouped     = "student_regrouped"
	EventStudentDeleted       = "student_deleted"
)

// Event is one audit trail entry.
type Event struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Timestamp time.Time          `bson:"timestamp"`

	Category  string `bson:"category"`
	EventType string `bson:"event_type"`

	Actor   string `bson:"actor,omitempty"`   // who performed the action
	Account string `bson:"account,omitempty"` // affected student account

	Success       bool   `bson:"success"`
	FailureReason string `bson:"failure_reason,omitempty"`

	Details map[string]string `bson:"details,omitempty"`
}

// QueryFilter narrows audit queries. Zero fields match everything.
type QueryFilter struct {
	Account   string
	Actor     string
	Category  string
	EventType string
	StartTime *time.Time
	EndTime   *time.Time
	Limit     int64
}

// Matches reports whether e satisfies f. Used by in-memory sinks.
func (f QueryFilter) Matches(e Event) bool {
	switch {
	case f.Account != "" && e.Account != f.Account,
		f.Actor != "" && e.Actor != f.Actor,
		f.Category != "" && e.Category != f.Category,
		f.EventType != "" && e.EventType != f.EventType,
		f.StartTime != nil && e.Timestamp.Before(*f.StartTime),
		f.EndTime != nil && e.Timestamp.After(*f.EndTime):
		return false
	}
	return true
}

func (f QueryFilter) query() bson.M {
	q := bson.M{}
	if f.Account != "" {
		q["account"] = f.Account
	}
	if f.Actor != "" {
		q["actor"] = f.Actor
	}
	if f.Category != "" {
		q["category"] = f.Category
	}
	if f.EventType != "" {
		q["event_type"] = f.EventType
	}
	if f.StartTime != nil || f.EndTime != nil {
		tq := bson.M{}
		if f.StartTime != nil {
			tq["$gte"] = *f.StartTime
		}
		if f.EndTime != nil {
			tq["$lte"] = *f.EndTime
		}
		q["timestamp"] = tq
	}
	return q
}

// Store manages audit event records.
type Store struct {
	c *mongo.Collection
}

// New creates a new audit Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("audit_events")}
}

// Log records an audit event.
func (s *Store) Log(ctx context.Context, event Event) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, event)
	return err
}

// Query returns matching events, newest first. Limit defaults to 100.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit)

	cur, err := s.c.Find(ctx, filter.query(), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var events []Event
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// Count returns the number of events matching the filter.
func (s *Store) Count(ctx context.Context, filter QueryFilter) (int64, error) {
	return s.c.CountDocuments(ctx, filter.query())
}
