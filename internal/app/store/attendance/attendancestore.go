// internal/app/store/attendance/attendancestore.go
package attendancestore

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/dalemusser/rollbook/internal/app/store"
	"github.com/dalemusser/rollbook/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store provides access to the attendance collection. The natural key is
// (student_account, date), enforced by a unique index.
type Store struct {
	c *mongo.Collection
}

// New creates a new attendance store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("attendance")}
}

var _ store.Attendance = (*Store)(nil)

func keyFilter(account, date string) bson.M {
	return bson.M{"student_account": account, "date": date}
}

// Get returns the record for (account, date).
func (s *Store) Get(ctx context.Context, account, date string) (models.AttendanceRecord, error) {
	var rec models.AttendanceRecord
	err := s.c.FindOne(ctx, keyFilter(account, date)).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.AttendanceRecord{}, store.ErrNotFound
	}
	if err != nil {
		return models.AttendanceRecord{}, err
	}
	return rec, nil
}

// Upsert writes the fields present in u. On insert, absent fields take their
// zero value (absent, zero participation).
func (s *Store) Upsert(ctx context.Context, u store.AttendanceUpdate) (models.AttendanceRecord, error) {
	at := u.At
	if at.IsZero() {
		at = time.Now()
	}
	set := bson.M{
		"updated_at": at.UTC(),
		"updated_by": u.Actor,
	}
	onInsert := bson.M{
		"_id":             primitive.NewObjectID(),
		"student_account": u.Account,
		"date":            u.Date,
	}
	if u.IsPresent != nil {
		set["is_present"] = *u.IsPresent
	} else {
		onInsert["is_present"] = false
	}
	if u.ParticipationCount != nil {
		set["participation_count"] = *u.ParticipationCount
	} else {
		onInsert["participation_count"] = 0
	}

	update := bson.M{"$set": set, "$setOnInsert": onInsert}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var out models.AttendanceRecord
	err := s.c.FindOneAndUpdate(ctx, keyFilter(u.Account, u.Date), update, opts).Decode(&out)
	if err != nil {
		return models.AttendanceRecord{}, err
	}
	return out, nil
}

func buildFilter(f store.AttendanceFilter) bson.M {
	filter := bson.M{}
	if len(f.Accounts) > 0 {
		filter["student_account"] = bson.M{"$in": f.Accounts}
	}
	if f.Range.From != "" || f.Range.To != "" {
		dr := bson.M{}
		if f.Range.From != "" {
			dr["$gte"] = f.Range.From
		}
		if f.Range.To != "" {
			dr["$lte"] = f.Range.To
		}
		filter["date"] = dr
	}
	if f.IsPresent != nil {
		filter["is_present"] = *f.IsPresent
	}
	return filter
}

// Query returns the records matching f in the requested order.
func (s *Store) Query(ctx context.Context, f store.AttendanceFilter, o store.Order) ([]models.AttendanceRecord, error) {
	dir := 1
	if o.Desc {
		dir = -1
	}
	var sortDoc bson.D
	if o.Field == "student_account" {
		sortDoc = bson.D{{Key: "student_account", Value: dir}, {Key: "date", Value: dir}}
	} else {
		sortDoc = bson.D{{Key: "date", Value: dir}, {Key: "student_account", Value: dir}}
	}

	cur, err := s.c.Find(ctx, buildFilter(f), options.Find().SetSort(sortDoc))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.AttendanceRecord
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes the record for (account, date).
func (s *Store) Delete(ctx context.Context, account, date string) error {
	res, err := s.c.DeleteOne(ctx, keyFilter(account, date))
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DistinctDates returns the sorted session days matching f.
func (s *Store) DistinctDates(ctx context.Context, f store.AttendanceFilter) ([]string, error) {
	raw, err := s.c.Distinct(ctx, "date", buildFilter(f))
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if d, ok := v.(string); ok {
			out = append(out, d)
		}
	}
	sort.Strings(out)
	return out, nil
}
