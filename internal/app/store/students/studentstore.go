// internal/app/store/students/studentstore.go
package studentstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/rollbook/internal/app/store"
	"github.com/dalemusser/rollbook/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store provides access to the students collection (the roster).
// Documents are keyed by the unique student_account field.
type Store struct {
	c *mongo.Collection
}

// New creates a new student store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("students")}
}

var _ store.Students = (*Store)(nil)

// Get returns the roster entry for account.
func (s *Store) Get(ctx context.Context, account string) (models.Student, error) {
	var st models.Student
	err := s.c.FindOne(ctx, bson.M{"account": account}).Decode(&st)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Student{}, store.ErrNotFound
	}
	if err != nil {
		return models.Student{}, err
	}
	return st, nil
}

// List returns roster entries sorted by account.
func (s *Store) List(ctx context.Context, f store.StudentFilter) ([]models.Student, error) {
	filter := bson.M{}
	if f.Group != "" {
		filter["group"] = f.Group
	}
	if len(f.Accounts) > 0 {
		filter["account"] = bson.M{"$in": f.Accounts}
	}
	opts := options.Find().SetSort(bson.D{{Key: "account", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Student
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Upsert inserts the student or reassigns the group of an existing one.
// Name fields are written only when the document is created.
func (s *Store) Upsert(ctx context.Context, st models.Student) (bool, error) {
	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"group":      st.Group,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{
			"account": st.Account,
			"name":            st.Name,
			"surname":         st.Surname,
			"full_name_ci":    text.Fold(st.FullName()),
			"created_at":      now,
		},
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"account": st.Account}, update, options.Update().SetUpsert(true))
	if err != nil {
		return false, err
	}
	return res.UpsertedCount > 0, nil
}

// SetGroup moves an existing student to group.
func (s *Store) SetGroup(ctx context.Context, account, group string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"account": account},
		bson.M{"$set": bson.M{"group": group, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Delete removes a student from the roster. Attendance and grade documents
// are left in place.
func (s *Store) Delete(ctx context.Context, account string) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"account": account})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}
