// internal/domain/models/student.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Student is a roster entry.
//
// NOTE:
//   - Account is the natural key (a numeric-string class roster ID).
//   - Name and Surname are fixed at import; only Group may change afterwards.
type Student struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	Account    string             `bson:"account" json:"account"`
	Name       string             `bson:"name" json:"name"`
	Surname    string             `bson:"surname" json:"surname"`
	FullNameCI string             `bson:"full_name_ci" json:"-"` // lowercase, diacritics-stripped
	Group      string             `bson:"group" json:"group"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// FullName returns "Name Surname" without stray spaces.
func (s Student) FullName() string {
	switch {
	case s.Surname == "":
		return s.Name
	case s.Name == "":
		return s.Surname
	}
	return s.Name + " " + s.Surname
}
