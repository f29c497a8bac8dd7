// internal/app/store/grades/gradestore.go
package gradestore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/rollbook/internal/app/store"
	"github.com/dalemusser/rollbook/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store provides access to the grades collection, one document per
// student_account with category scores under "scores".
type Store struct {
	c *mongo.Collection
}

// New creates a new grade store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("grades")}
}

var _ store.Grades = (*Store)(nil)

// Get returns the grade record for account.
func (s *Store) Get(ctx context.Context, account string) (models.GradeRecord, error) {
	var rec models.GradeRecord
	err := s.c.FindOne(ctx, bson.M{"student_account": account}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.GradeRecord{}, store.ErrNotFound
	}
	if err != nil {
		return models.GradeRecord{}, err
	}
	if rec.Scores == nil {
		rec.Scores = map[models.Category]float64{}
	}
	return rec, nil
}

// SetCategory writes one category score, or unsets it when value is nil.
// Other categories are untouched.
func (s *Store) SetCategory(ctx context.Context, account string, c models.Category, value *float64, actor string, at time.Time) (models.GradeRecord, error) {
	if at.IsZero() {
		at = time.Now()
	}
	field := "scores." + string(c)
	set := bson.M{"updated_at": at.UTC(), "updated_by": actor}
	update := bson.M{
		"$setOnInsert": bson.M{
			"_id":             primitive.NewObjectID(),
			"student_account": account,
			"total":           0.0,
		},
	}
	if value != nil {
		set[field] = *value
	} else {
		update["$unset"] = bson.M{field: ""}
	}
	update["$set"] = set

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var out models.GradeRecord
	err := s.c.FindOneAndUpdate(ctx, bson.M{"student_account": account}, update, opts).Decode(&out)
	if err != nil {
		return models.GradeRecord{}, err
	}
	if out.Scores == nil {
		out.Scores = map[models.Category]float64{}
	}
	return out, nil
}

// SetTotal stores the recomputed weighted total.
func (s *Store) SetTotal(ctx context.Context, account string, total float64, actor string, at time.Time) error {
	if at.IsZero() {
		at = time.Now()
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"student_account": account},
		bson.M{"$set": bson.M{"total": total, "updated_at": at.UTC(), "updated_by": actor}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// List returns grade records for the given accounts (all when empty),
// sorted by account.
func (s *Store) List(ctx context.Context, accounts []string) ([]models.GradeRecord, error) {
	filter := bson.M{}
	if len(accounts) > 0 {
		filter["student_account"] = bson.M{"$in": accounts}
	}
	opts := options.Find().SetSort(bson.D{{Key: "student_account", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.GradeRecord
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].Scores == nil {
			out[i].Scores = map[models.Category]float64{}
		}
	}
	return out, nil
}

// Delete removes the grade record for account.
func (s *Store) Delete(ctx context.Context, account string) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"student_account": account})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}
