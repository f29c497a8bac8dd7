// internal/domain/models/attendance.go
package models

import (
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DateLayout is the calendar-day granularity used for attendance keys.
const DateLayout = "2006-01-02"

// AttendanceRecord is one student's attendance for one session day.
// Exactly one document per (student_account, date).
type AttendanceRecord struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	StudentAccount     string             `bson:"student_account" json:"student_account"`
	Date               string             `bson:"date" json:"date"` // YYYY-MM-DD
	IsPresent          bool               `bson:"is_present" json:"is_present"`
	ParticipationCount int                `bson:"participation_count" json:"participation_count"`

	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
	UpdatedBy string    `bson:"updated_by" json:"updated_by"`
}

// AttendanceKey is the composite identity of an AttendanceRecord.
type AttendanceKey struct {
	Account string
	Date    string
}

// Key returns the record's composite key.
func (r AttendanceRecord) Key() AttendanceKey {
	return AttendanceKey{Account: r.StudentAccount, Date: r.Date}
}

var ErrBadDate = errors.New("date must be YYYY-MM-DD")

// ParseDate normalizes a calendar day. Timestamps are truncated to the day.
func ParseDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(DateLayout) {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t.Format(DateLayout), nil
		}
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return "", ErrBadDate
	}
	return t.Format(DateLayout), nil
}

// DateRange is an inclusive range of calendar days. Empty bounds are open.
type DateRange struct {
	From string
	To   string
}

// Contains reports whether date falls inside the range. Dates compare
// lexically because of the fixed YYYY-MM-DD layout.
func (r DateRange) Contains(date string) bool {
	if r.From != "" && date < r.From {
		return false
	}
	if r.To != "" && date > r.To {
		return false
	}
	return true
}
