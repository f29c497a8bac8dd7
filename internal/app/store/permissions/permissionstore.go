// internal/app/store/permissions/permissionstore.go
package permissionstore

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

var errUnknownCapability = errors.New("unknown capability")

// Store provides access to the permissions collection. There is at most one
// document per student_account.
type Store struct {
	c *mongo.Collection
}

// New creates a new permission store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("permissions")}
}

var _ store.Permissions = (*Store)(nil)

// Get returns the stored permission for account, or store.ErrNotFound.
// Callers that need the effective permission fall back to
// models.DefaultPermission themselves.
func (s *Store) Get(ctx context.Context, account string) (models.Permission, error) {
	var p models.Permission
	err := s.c.FindOne(ctx, bson.M{"student_account": account}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Permission{}, store.ErrNotFound
	}
	if err != nil {
		return models.Permission{}, err
	}
	return p, nil
}

// Set writes p with merge semantics. created_at and created_by are only set
// when the document is first inserted.
func (s *Store) Set(ctx context.Context, p models.Permission, actor string) (models.Permission, error) {
	if err := p.Validate(); err != nil {
		return models.Permission{}, err
	}
	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"can_mark_attendance": p.CanMarkAttendance,
			"can_edit_grades":     p.CanEditGrades,
			"is_group_leader":     p.IsGroupLeader,
			"role":                p.Role,
			"updated_at":          now,
		},
		"$setOnInsert": bson.M{
			"_id":             primitive.NewObjectID(),
			"student_account": p.StudentAccount,
			"created_at":      now,
			"created_by":      actor,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var out models.Permission
	err := s.c.FindOneAndUpdate(ctx, bson.M{"student_account": p.StudentAccount}, update, opts).Decode(&out)
	if err != nil {
		return models.Permission{}, err
	}
	return out, nil
}

// Delete removes the stored permission; the account reverts to defaults.
func (s *Store) Delete(ctx context.Context, account string) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"student_account": account})
	return err
}

// ListByCapability returns every stored permission holding c, sorted by account.
func (s *Store) ListByCapability(ctx context.Context, c models.Capability) ([]models.Permission, error) {
	field, ok := c.Field()
	if !ok {
		return nil, errUnknownCapability
	}
	opts := options.Find().SetSort(bson.D{{Key: "student_account", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{field: true}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Permission
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
