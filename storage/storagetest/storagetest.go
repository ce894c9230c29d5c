// Package storagetest holds behavioural tests shared by every storage.Store
// implementation.
package storagetest

import (
	"context"
	"testing"
	"time"

	"github.com/hupe1980/schoolmate/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns a fresh, empty store for one subtest.
type Factory func(t *testing.T) storage.Store

func date(s string) time.Time {
	d, err := storage.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Run exercises the storage.Store contract against newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("students", func(t *testing.T) { testStudents(t, newStore(t)) })
	t.Run("grades", func(t *testing.T) { testGrades(t, newStore(t)) })
	t.Run("events", func(t *testing.T) { testEvents(t, newStore(t)) })
	t.Run("exam results", func(t *testing.T) { testExamResults(t, newStore(t)) })
	t.Run("cascade delete", func(t *testing.T) { testCascade(t, newStore(t)) })
}

func testStudents(t *testing.T, s storage.Store) {
	ctx := context.Background()

	require.NoError(t, s.PutStudent(ctx, storage.Student{ID: "s2", Name: "Zarina", Class: "10A"}))
	require.NoError(t, s.PutStudent(ctx, storage.Student{ID: "s1", Name: "Aibek", Class: "10A", Email: "a@example.com"}))
	require.NoError(t, s.PutStudent(ctx, storage.Student{ID: "s3", Name: "Dana", Class: "11B"}))

	got, err := s.GetStudent(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Aibek", got.Name)
	assert.Equal(t, "a@example.com", got.Email)
	assert.False(t, got.CreatedAt.IsZero())

	all, err := s.ListStudents(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Aibek", all[0].Name)

	class, err := s.ListStudents(ctx, "10A")
	require.NoError(t, err)
	require.Len(t, class, 2)
	assert.Equal(t, "s1", class[0].ID)
	assert.Equal(t, "s2", class[1].ID)

	require.NoError(t, s.PutStudent(ctx, storage.Student{ID: "s1", Name: "Aibek K.", Class: "10A"}))
	got, err = s.GetStudent(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Aibek K.", got.Name)

	require.NoError(t, s.DeleteStudent(ctx, "s3"))
	_, err = s.GetStudent(ctx, "s3")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, s.DeleteStudent(ctx, "s3"), storage.ErrNotFound)
}

func testGrades(t *testing.T, s storage.Store) {
	ctx := context.Background()
	require.NoError(t, s.PutStudent(ctx, storage.Student{ID: "s1", Name: "Aibek"}))

	require.NoError(t, s.PutGrade(ctx, storage.Grade{ID: "g1", StudentID: "s1", Subject: "Math", Topic: "Algebra", Score: 55, GradeDate: date("2024-09-01")}))
	require.NoError(t, s.PutGrade(ctx, storage.Grade{ID: "g2", StudentID: "s1", Subject: "Math", Topic: "Geometry", Score: 80, GradeDate: date("2024-10-01")}))

	grades, err := s.ListGrades(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, grades, 2)
	assert.Equal(t, "g2", grades[0].ID)
	assert.Equal(t, date("2024-10-01"), grades[0].GradeDate)

	g, err := s.GetGrade(ctx, "g1")
	require.NoError(t, err)
	assert.InDelta(t, 55.0, g.Score, 0.001)

	assert.ErrorIs(t, s.PutGrade(ctx, storage.Grade{ID: "g3", StudentID: "missing", Subject: "Math", Score: 10, GradeDate: date("2024-10-01")}), storage.ErrNotFound)

	require.NoError(t, s.DeleteGrade(ctx, "g1"))
	_, err = s.GetGrade(ctx, "g1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	empty, err := s.ListGrades(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func testEvents(t *testing.T, s storage.Store) {
	ctx := context.Background()

	require.NoError(t, s.PutEvent(ctx, storage.Event{ID: "e1", Title: "Math Olympiad", Type: "olympiad", EventDate: date("2024-11-20"), Location: "Almaty"}))
	require.NoError(t, s.PutEvent(ctx, storage.Event{ID: "e2", Title: "Science Fair", Type: "competition", EventDate: date("2024-10-05")}))
	require.NoError(t, s.PutEvent(ctx, storage.Event{ID: "e3", Title: "Physics Olympiad", Type: "olympiad", EventDate: date("2024-12-01")}))

	all, err := s.ListEvents(ctx, storage.EventFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"e2", "e1", "e3"}, []string{all[0].ID, all[1].ID, all[2].ID})

	olympiads, err := s.ListEvents(ctx, storage.EventFilter{Type: "olympiad"})
	require.NoError(t, err)
	require.Len(t, olympiads, 2)

	window, err := s.ListEvents(ctx, storage.EventFilter{From: date("2024-11-01"), To: date("2024-11-30")})
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, "e1", window[0].ID)
	assert.Equal(t, "Almaty", window[0].Location)

	inclusive, err := s.ListEvents(ctx, storage.EventFilter{From: date("2024-12-01"), To: date("2024-12-01")})
	require.NoError(t, err)
	assert.Len(t, inclusive, 1)

	require.NoError(t, s.DeleteEvent(ctx, "e2"))
	_, err = s.GetEvent(ctx, "e2")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testExamResults(t *testing.T, s storage.Store) {
	ctx := context.Background()
	require.NoError(t, s.PutStudent(ctx, storage.Student{ID: "s1", Name: "Aibek"}))

	require.NoError(t, s.PutExamResult(ctx, storage.ExamResult{ID: "r1", StudentID: "s1", TestDate: date("2024-03-01"), TotalScore: 90, PredictedScore: 97}))
	require.NoError(t, s.PutExamResult(ctx, storage.ExamResult{ID: "r2", StudentID: "s1", TestDate: date("2024-05-01"), TotalScore: 100, PredictedScore: 108}))

	results, err := s.ListExamResults(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "r2", results[0].ID)
	assert.Equal(t, 108, results[0].PredictedScore)

	assert.ErrorIs(t, s.PutExamResult(ctx, storage.ExamResult{ID: "r3", StudentID: "missing", TestDate: date("2024-05-01")}), storage.ErrNotFound)
}

func testCascade(t *testing.T, s storage.Store) {
	ctx := context.Background()
	require.NoError(t, s.PutStudent(ctx, storage.Student{ID: "s1", Name: "Aibek"}))
	require.NoError(t, s.PutGrade(ctx, storage.Grade{ID: "g1", StudentID: "s1", Subject: "Math", Score: 70, GradeDate: date("2024-09-01")}))
	require.NoError(t, s.PutExamResult(ctx, storage.ExamResult{ID: "r1", StudentID: "s1", TestDate: date("2024-03-01"), TotalScore: 90}))

	require.NoError(t, s.DeleteStudent(ctx, "s1"))

	grades, err := s.ListGrades(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, grades)

	results, err := s.ListExamResults(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, results)
}
