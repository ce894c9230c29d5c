// Package storage defines the persistence records and store contracts used by
// the schoolmate services. Implementations live in the sqlite and memory
// subpackages.
package storage

import (
	"context"
	"time"

	"github.com/hupe1980/schoolmate/core"
)

// DateLayout is the calendar date format used for grade, event and test dates.
const DateLayout = "2006-01-02"

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = core.ErrNotFound

// Student is a learner record.
type Student struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Class     string    `json:"class"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Grade is a single scored assessment of a student on a subject topic.
type Grade struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	Subject   string    `json:"subject"`
	Topic     string    `json:"topic"`
	Score     float64   `json:"score"`
	GradeDate time.Time `json:"grade_date"`
}

// Event is a school event such as an olympiad or competition.
type Event struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	Type           string    `json:"type"`
	EventDate      time.Time `json:"event_date"`
	Location       string    `json:"location,omitempty"`
	InvitationLink string    `json:"invitation_link,omitempty"`
}

// EventFilter narrows ListEvents. Zero fields do not filter.
type EventFilter struct {
	Type string
	From time.Time // inclusive
	To   time.Time // inclusive
}

// Match reports whether ev passes the filter.
func (f EventFilter) Match(ev Event) bool {
	if f.Type != "" && ev.Type != f.Type {
		return false
	}
	day := truncateDay(ev.EventDate)
	if !f.From.IsZero() && day.Before(truncateDay(f.From)) {
		return false
	}
	if !f.To.IsZero() && day.After(truncateDay(f.To)) {
		return false
	}
	return true
}

// ExamResult is a mock national test result with its predicted final score.
type ExamResult struct {
	ID             string    `json:"id"`
	StudentID      string    `json:"student_id"`
	TestDate       time.Time `json:"test_date"`
	TotalScore     int       `json:"total_score"`
	PredictedScore int       `json:"predicted_score"`
}

// StudentStore persists students.
type StudentStore interface {
	PutStudent(ctx context.Context, s Student) error
	GetStudent(ctx context.Context, id string) (Student, error)
	// ListStudents returns students ordered by name. An empty class lists all.
	ListStudents(ctx context.Context, class string) ([]Student, error)
	DeleteStudent(ctx context.Context, id string) error
}

// GradeStore persists grades.
type GradeStore interface {
	PutGrade(ctx context.Context, g Grade) error
	GetGrade(ctx context.Context, id string) (Grade, error)
	// ListGrades returns the student's grades, most recent first.
	ListGrades(ctx context.Context, studentID string) ([]Grade, error)
	DeleteGrade(ctx context.Context, id string) error
}

// EventStore persists events.
type EventStore interface {
	PutEvent(ctx context.Context, ev Event) error
	GetEvent(ctx context.Context, id string) (Event, error)
	// ListEvents returns matching events ordered by date ascending.
	ListEvents(ctx context.Context, filter EventFilter) ([]Event, error)
	DeleteEvent(ctx context.Context, id string) error
}

// ExamStore persists exam results.
type ExamStore interface {
	PutExamResult(ctx context.Context, r ExamResult) error
	// ListExamResults returns the student's results, most recent first.
	ListExamResults(ctx context.Context, studentID string) ([]ExamResult, error)
}

// Store aggregates every record store.
type Store interface {
	StudentStore
	GradeStore
	EventStore
	ExamStore
	Close() error
}

// ParseDate parses a YYYY-MM-DD date in UTC.
func ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, value, time.UTC)
}

// FormatDate formats t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
