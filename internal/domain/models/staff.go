// internal/domain/models/staff.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Staff account statuses.
const (
	StaffActive   = "active"
	StaffDisabled = "disabled"
)

// StaffAccount is a non-roster login (teachers and other staff) that signs in
// with email and password.
type StaffAccount struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	Email        string             `bson:"email" json:"email"` // normalized lower-case
	FullName     string             `bson:"full_name" json:"full_name"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	Status       string             `bson:"status" json:"status"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
