// internal/domain/models/grade.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Category is one of the seven graded components.
type Category string

const (
	CatMidterm       Category = "midterm"
	CatFinal         Category = "final"
	CatAssignment1   Category = "assignment1"
	CatAssignment2   Category = "assignment2"
	CatAssignment3   Category = "assignment3"
	CatProject       Category = "project"
	CatParticipation Category = "participation"
)

// Categories lists every category in display order.
var Categories = []Category{
	CatMidterm, CatFinal, CatAssignment1, CatAssignment2, CatAssignment3, CatProject, CatParticipation,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, k := range Categories {
		if c == k {
			return true
		}
	}
	return false
}

// Score bounds for every category.
const (
	MinScore = 0.0
	MaxScore = 10.0
)

// GradeRecord holds one student's category scores. Absent categories are
// simply missing from Scores. Total is derived and never written by clients.
type GradeRecord struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty" json:"-"`
	StudentAccount string               `bson:"student_account" json:"student_account"`
	Scores         map[Category]float64 `bson:"scores" json:"scores"`
	Total          float64              `bson:"total" json:"total"`

	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
	UpdatedBy string    `bson:"updated_by" json:"updated_by"`
}

// Score returns the category score and whether it is present.
func (g GradeRecord) Score(c Category) (float64, bool) {
	v, ok := g.Scores[c]
	return v, ok
}
