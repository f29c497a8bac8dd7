// internal/app/store/staff/staffstore.go
package staffstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/rollbook/internal/app/store"
	"github.com/dalemusser/rollbook/internal/app/system/normalize"
	"github.com/dalemusser/rollbook/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Store provides access to the staff_accounts collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new staff store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("staff_accounts")}
}

var _ store.StaffAccounts = (*Store)(nil)

// GetByEmail looks up a staff login by normalized email.
func (s *Store) GetByEmail(ctx context.Context, email string) (models.StaffAccount, error) {
	var a models.StaffAccount
	err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.StaffAccount{}, store.ErrNotFound
	}
	if err != nil {
		return models.StaffAccount{}, err
	}
	return a, nil
}

// Create inserts a new staff account. The password must already be hashed.
// A taken email yields store.ErrDuplicate.
func (s *Store) Create(ctx context.Context, a models.StaffAccount) (models.StaffAccount, error) {
	now := time.Now().UTC()
	a.ID = primitive.NewObjectID()
	a.Email = normalize.Email(a.Email)
	if a.Status == "" {
		a.Status = models.StaffActive
	}
	a.CreatedAt = now
	a.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, a); err != nil {
		if wafflemongo.IsDup(err) {
			return models.StaffAccount{}, store.ErrDuplicate
		}
		return models.StaffAccount{}, err
	}
	return a, nil
}
