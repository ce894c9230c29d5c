// Package memory provides a volatile, process local schoolmate store. It is
// safe for concurrent access and suited for tests and demo servers. Records
// are copied in and out so callers cannot mutate internal state.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hupe1980/schoolmate/storage"
)

// Store is an in-memory storage.Store.
type Store struct {
	mu       sync.RWMutex
	students map[string]storage.Student
	grades   map[string]storage.Grade
	events   map[string]storage.Event
	exams    map[string]storage.ExamResult
}

// New constructs an empty in-memory store.
func New() *Store {
	return &Store{
		students: make(map[string]storage.Student),
		grades:   make(map[string]storage.Grade),
		events:   make(map[string]storage.Event),
		exams:    make(map[string]storage.ExamResult),
	}
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

// PutStudent inserts or replaces a student. CreatedAt of an existing record is kept.
func (s *Store) PutStudent(ctx context.Context, st storage.Student) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.students[st.ID]; ok {
		st.CreatedAt = prev.CreatedAt
	} else if st.CreatedAt.IsZero() {
		st.CreatedAt = time.Now().UTC()
	}
	s.students[st.ID] = st
	return nil
}

// GetStudent returns a student by id.
func (s *Store) GetStudent(ctx context.Context, id string) (storage.Student, error) {
	if err := ctx.Err(); err != nil {
		return storage.Student{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.students[id]
	if !ok {
		return storage.Student{}, storage.ErrNotFound
	}
	return st, nil
}

// ListStudents returns students ordered by name, optionally by class.
func (s *Store) ListStudents(ctx context.Context, class string) ([]storage.Student, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]storage.Student, 0, len(s.students))
	for _, st := range s.students {
		if class == "" || st.Class == class {
			out = append(out, st)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// DeleteStudent removes a student together with their grades and exam results.
func (s *Store) DeleteStudent(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.students[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.students, id)
	for gid, g := range s.grades {
		if g.StudentID == id {
			delete(s.grades, gid)
		}
	}
	for rid, r := range s.exams {
		if r.StudentID == id {
			delete(s.exams, rid)
		}
	}
	return nil
}

// PutGrade inserts or replaces a grade. The student must exist.
func (s *Store) PutGrade(ctx context.Context, g storage.Grade) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.students[g.StudentID]; !ok {
		return storage.ErrNotFound
	}
	s.grades[g.ID] = g
	return nil
}

// GetGrade returns a grade by id.
func (s *Store) GetGrade(ctx context.Context, id string) (storage.Grade, error) {
	if err := ctx.Err(); err != nil {
		return storage.Grade{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.grades[id]
	if !ok {
		return storage.Grade{}, storage.ErrNotFound
	}
	return g, nil
}

// ListGrades returns the student's grades, most recent first.
func (s *Store) ListGrades(ctx context.Context, studentID string) ([]storage.Grade, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]storage.Grade, 0)
	for _, g := range s.grades {
		if g.StudentID == studentID {
			out = append(out, g)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].GradeDate.Equal(out[j].GradeDate) {
			return out[i].GradeDate.After(out[j].GradeDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// DeleteGrade removes a grade.
func (s *Store) DeleteGrade(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.grades[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.grades, id)
	return nil
}

// PutEvent inserts or replaces an event.
func (s *Store) PutEvent(ctx context.Context, ev storage.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[ev.ID] = ev
	return nil
}

// GetEvent returns an event by id.
func (s *Store) GetEvent(ctx context.Context, id string) (storage.Event, error) {
	if err := ctx.Err(); err != nil {
		return storage.Event{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	ev, ok := s.events[id]
	if !ok {
		return storage.Event{}, storage.ErrNotFound
	}
	return ev, nil
}

// ListEvents returns matching events ordered by date ascending.
func (s *Store) ListEvents(ctx context.Context, filter storage.EventFilter) ([]storage.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]storage.Event, 0)
	for _, ev := range s.events {
		if filter.Match(ev) {
			out = append(out, ev)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].EventDate.Equal(out[j].EventDate) {
			return out[i].EventDate.Before(out[j].EventDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// DeleteEvent removes an event.
func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.events, id)
	return nil
}

// PutExamResult inserts or replaces an exam result. The student must exist.
func (s *Store) PutExamResult(ctx context.Context, r storage.ExamResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.students[r.StudentID]; !ok {
		return storage.ErrNotFound
	}
	s.exams[r.ID] = r
	return nil
}

// ListExamResults returns the student's results, most recent first.
func (s *Store) ListExamResults(ctx context.Context, studentID string) ([]storage.ExamResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]storage.ExamResult, 0)
	for _, r := range s.exams {
		if r.StudentID == studentID {
			out = append(out, r)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].TestDate.Equal(out[j].TestDate) {
			return out[i].TestDate.After(out[j].TestDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

var _ storage.Store = (*Store)(nil)
