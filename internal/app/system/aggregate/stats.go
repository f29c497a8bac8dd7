package aggregate

import (
	"errors"
	"sort"

	"github.com/dalemusser/rollbook/internal/domain/models"
)

// Bands are the minimum attendance rates (percent) for letter bands A-D.
// Anything below D is F.
type Bands struct {
	A float64
	B float64
	C float64
	D float64
}

// DefaultBands is A ≥ 85, B ≥ 70, C ≥ 55, D ≥ 40.
var DefaultBands = Bands{A: 85, B: 70, C: 55, D: 40}

var ErrBands = errors.New("bands must be strictly decreasing within 0..100")

// Validate checks the thresholds are ordered A > B > C > D and within range.
func (b Bands) Validate() error {
	if b.A > 100 || b.D < 0 || !(b.A > b.B && b.B > b.C && b.C > b.D) {
		return ErrBands
	}
	return nil
}

// Band returns the letter for a rate.
func (b Bands) Band(rate float64) string {
	switch {
	case rate >= b.A:
		return "A"
	case rate >= b.B:
		return "B"
	case rate >= b.C:
		return "C"
	case rate >= b.D:
		return "D"
	default:
		return "F"
	}
}

// BandLetters lists the band letters in order.
var BandLetters = []string{"A", "B", "C", "D", "F"}

// DateStat is the attendance of one session day.
type DateStat struct {
	Date    string  `json:"date"`
	Present int     `json:"present"`
	Total   int     `json:"total"`
	Rate    float64 `json:"rate"`
}

// Stats summarizes attendance over a date range.
type Stats struct {
	Range        models.DateRange `json:"range"`
	Dates        []DateStat       `json:"dates"`
	Records      int              `json:"records"`
	Present      int              `json:"present"`
	OverallRate  float64          `json:"overall_rate"`
	Students     int              `json:"students"`
	Distribution map[string]int   `json:"distribution"`
}

// EmptyStats is the zero result for a range, with every band present.
func EmptyStats(r models.DateRange) Stats {
	dist := make(map[string]int, len(BandLetters))
	for _, l := range BandLetters {
		dist[l] = 0
	}
	return Stats{Range: r, Dates: []DateStat{}, Distribution: dist}
}

// AttendanceStats computes per-date rates, the overall rate (present over
// records in range) and the distribution of per-student rates into bands.
// Records outside r are ignored.
func AttendanceStats(records []models.AttendanceRecord, r models.DateRange, b Bands) Stats {
	out := EmptyStats(r)

	byDate := map[string]*DateStat{}
	type tally struct{ present, total int }
	byStudent := map[string]*tally{}

	for _, rec := range records {
		if !r.Contains(rec.Date) {
			continue
		}
		ds, ok := byDate[rec.Date]
		if !ok {
			ds = &DateStat{Date: rec.Date}
			byDate[rec.Date] = ds
		}
		st, ok := byStudent[rec.StudentAccount]
		if !ok {
			st = &tally{}
			byStudent[rec.StudentAccount] = st
		}
		ds.Total++
		st.total++
		out.Records++
		if rec.IsPresent {
			ds.Present++
			st.present++
			out.Present++
		}
	}

	for _, ds := range byDate {
		ds.Rate = rate(ds.Present, ds.Total)
		out.Dates = append(out.Dates, *ds)
	}
	sort.Slice(out.Dates, func(i, j int) bool { return out.Dates[i].Date < out.Dates[j].Date })

	out.OverallRate = rate(out.Present, out.Records)
	out.Students = len(byStudent)
	for _, st := range byStudent {
		out.Distribution[b.Band(rate(st.present, st.total))]++
	}
	return out
}

// Summary is one student's attendance over a number of sessions.
type Summary struct {
	Student            models.Student `json:"student"`
	TotalSessions      int            `json:"total_sessions"`
	Present            int            `json:"present"`
	Absent             int            `json:"absent"`
	Rate               float64        `json:"rate"`
	TotalParticipation int            `json:"total_participation"`
}

// StudentSummary counts present sessions and participation from the
// student's records. Absent is totalSessions - present, never negative.
func StudentSummary(student models.Student, records []models.AttendanceRecord, totalSessions int) Summary {
	s := Summary{Student: student, TotalSessions: totalSessions}
	for _, rec := range records {
		if rec.StudentAccount != "" && rec.StudentAccount != student.Account {
			continue
		}
		if rec.IsPresent {
			s.Present++
		}
		s.TotalParticipation += rec.ParticipationCount
	}
	if s.Absent = totalSessions - s.Present; s.Absent < 0 {
		s.Absent = 0
	}
	s.Rate = rate(s.Present, totalSessions)
	return s
}

func rate(n, d int) float64 {
	if d <= 0 {
		return 0
	}
	return Round2(float64(n) / float64(d) * 100)
}
