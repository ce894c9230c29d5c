package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hupe1980/schoolmate/cache"
	"github.com/hupe1980/schoolmate/logging"
	"github.com/hupe1980/schoolmate/storage"
)

// Students manages student records.
type Students struct {
	store storage.StudentStore
}

// NewStudents creates a student service.
func NewStudents(store storage.StudentStore) *Students {
	return &Students{store: store}
}

// Create stores a new student and assigns its id.
func (s *Students) Create(ctx context.Context, st storage.Student) (storage.Student, error) {
	if strings.TrimSpace(st.Name) == "" {
		return storage.Student{}, invalid("student name is required")
	}
	st.ID = uuid.NewString()
	if err := s.store.PutStudent(ctx, st); err != nil {
		return storage.Student{}, fmt.Errorf("create student: %w", err)
	}
	return s.store.GetStudent(ctx, st.ID)
}

// Get returns one student.
func (s *Students) Get(ctx context.Context, id string) (storage.Student, error) {
	return s.store.GetStudent(ctx, id)
}

// Exists reports whether a student with id exists.
func (s *Students) Exists(ctx context.Context, id string) (bool, error) {
	_, err := s.store.GetStudent(ctx, id)
	switch {
	case err == nil:
		return true, nil
	case isNotFound(err):
		return false, nil
	default:
		return false, err
	}
}

// List returns students ordered by name, optionally restricted to a class.
func (s *Students) List(ctx context.Context, class string) ([]storage.Student, error) {
	return s.store.ListStudents(ctx, class)
}

// Update replaces an existing student.
func (s *Students) Update(ctx context.Context, st storage.Student) (storage.Student, error) {
	if strings.TrimSpace(st.Name) == "" {
		return storage.Student{}, invalid("student name is required")
	}
	if _, err := s.store.GetStudent(ctx, st.ID); err != nil {
		return storage.Student{}, err
	}
	if err := s.store.PutStudent(ctx, st); err != nil {
		return storage.Student{}, fmt.Errorf("update student: %w", err)
	}
	return s.store.GetStudent(ctx, st.ID)
}

// Delete removes a student.
func (s *Students) Delete(ctx context.Context, id string) error {
	return s.store.DeleteStudent(ctx, id)
}

// Grades records grades and keeps cached advice fresh.
type Grades struct {
	store  storage.GradeStore
	cache  cache.Cache
	logger logging.Logger
}

// NewGrades creates a grade service. c may be nil.
func NewGrades(store storage.GradeStore, c cache.Cache, logger logging.Logger) *Grades {
	if c == nil {
		c = cache.Noop{}
	}
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Grades{store: store, cache: c, logger: logger}
}

// Add stores a new grade and invalidates the student's cached advice.
func (g *Grades) Add(ctx context.Context, grade storage.Grade) (storage.Grade, error) {
	if strings.TrimSpace(grade.Subject) == "" {
		return storage.Grade{}, invalid("subject is required")
	}
	if grade.Score < 0 || grade.Score > 100 {
		return storage.Grade{}, invalid("score must be between 0 and 100")
	}
	if grade.GradeDate.IsZero() {
		return storage.Grade{}, invalid("grade date is required")
	}
	grade.ID = uuid.NewString()
	if err := g.store.PutGrade(ctx, grade); err != nil {
		return storage.Grade{}, fmt.Errorf("add grade: %w", err)
	}
	if err := g.cache.Delete(ctx, AdviceCacheKey(grade.StudentID)); err != nil {
		g.logger.Warn("advice.cache.invalidate.error", "student_id", grade.StudentID, "error", err.Error())
	}
	return grade, nil
}

// Get returns one grade.
func (g *Grades) Get(ctx context.Context, id string) (storage.Grade, error) {
	return g.store.GetGrade(ctx, id)
}

// List returns the student's grades, most recent first.
func (g *Grades) List(ctx context.Context, studentID string) ([]storage.Grade, error) {
	return g.store.ListGrades(ctx, studentID)
}

// Delete removes a grade and invalidates the owner's cached advice.
func (g *Grades) Delete(ctx context.Context, id string) error {
	grade, err := g.store.GetGrade(ctx, id)
	if err != nil {
		return err
	}
	if err := g.store.DeleteGrade(ctx, id); err != nil {
		return err
	}
	if err := g.cache.Delete(ctx, AdviceCacheKey(grade.StudentID)); err != nil {
		g.logger.Warn("advice.cache.invalidate.error", "student_id", grade.StudentID, "error", err.Error())
	}
	return nil
}
