package testutil

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/schoolmate/storage"
)

// SchoolBuilder seeds a store with fluent chaining for tests.
// Example:
//
//	err := NewSchoolBuilder().
//		Student("s1", "Aida", "10A").
//		Grade("s1", "Math", "Fractions", 50, "2026-09-01").
//		Seed(ctx, store)
//
// Record ids not given explicitly are derived from their position.
type SchoolBuilder struct {
	students []storage.Student
	grades   []storage.Grade
	events   []storage.Event
	exams    []storage.ExamResult
}

// NewSchoolBuilder creates an empty builder.
func NewSchoolBuilder() *SchoolBuilder { return &SchoolBuilder{} }

// Student adds a student (chainable).
func (b *SchoolBuilder) Student(id, name, class string) *SchoolBuilder {
	b.students = append(b.students, storage.Student{ID: id, Name: name, Class: class})
	return b
}

// Grade adds a grade dated day (YYYY-MM-DD) (chainable).
func (b *SchoolBuilder) Grade(studentID, subject, topic string, score float64, day string) *SchoolBuilder {
	b.grades = append(b.grades, storage.Grade{
		ID:        fmt.Sprintf("grade-%d", len(b.grades)+1),
		StudentID: studentID,
		Subject:   subject,
		Topic:     topic,
		Score:     score,
		GradeDate: Date(day),
	})
	return b
}

// Event adds an event dated day (chainable).
func (b *SchoolBuilder) Event(title, eventType, day string) *SchoolBuilder {
	b.events = append(b.events, storage.Event{
		ID:        fmt.Sprintf("event-%d", len(b.events)+1),
		Title:     title,
		Type:      eventType,
		EventDate: Date(day),
	})
	return b
}

// Exam adds a mock exam result with its predicted score (chainable).
func (b *SchoolBuilder) Exam(studentID string, total, predicted int, day string) *SchoolBuilder {
	b.exams = append(b.exams, storage.ExamResult{
		ID:             fmt.Sprintf("exam-%d", len(b.exams)+1),
		StudentID:      studentID,
		TestDate:       Date(day),
		TotalScore:     total,
		PredictedScore: predicted,
	})
	return b
}

// Seed writes every record to store, students first.
func (b *SchoolBuilder) Seed(ctx context.Context, store storage.Store) error {
	for _, st := range b.students {
		if err := store.PutStudent(ctx, st); err != nil {
			return fmt.Errorf("seed student %s: %w", st.ID, err)
		}
	}
	for _, g := range b.grades {
		if err := store.PutGrade(ctx, g); err != nil {
			return fmt.Errorf("seed grade %s: %w", g.ID, err)
		}
	}
	for _, ev := range b.events {
		if err := store.PutEvent(ctx, ev); err != nil {
			return fmt.Errorf("seed event %s: %w", ev.ID, err)
		}
	}
	for _, r := range b.exams {
		if err := store.PutExamResult(ctx, r); err != nil {
			return fmt.Errorf("seed exam %s: %w", r.ID, err)
		}
	}
	return nil
}

// Date parses a YYYY-MM-DD literal and panics on malformed input.
func Date(day string) time.Time {
	d, err := storage.ParseDate(day)
	if err != nil {
		panic(err)
	}
	return d
}
