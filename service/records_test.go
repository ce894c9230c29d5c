package service

import (
	"context"
	"testing"
	"time"

	"github.com/hupe1980/schoolmate/core"
	"github.com/hupe1980/schoolmate/storage"
	"github.com/hupe1980/schoolmate/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gradeFor(studentID string, day time.Time) storage.Grade {
	return storage.Grade{StudentID: studentID, Subject: "Math", Topic: "Algebra", Score: 80, GradeDate: day}
}

func TestPredictFinalScore(t *testing.T) {
	tests := []struct {
		score, want int
	}{
		{0, 0},
		{80, 86},
		{100, 108},
		{130, 140},
		{140, 140},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PredictFinalScore(tt.score), "score %d", tt.score)
	}
}

func TestExams(t *testing.T) {
	ctx := context.Background()
	store := seedStudent(t, "s1", "Aibek")
	exams := NewExams(store)

	latest, err := exams.LatestPrediction(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, latest)

	_, err = exams.Record(ctx, storage.ExamResult{StudentID: "s1", TestDate: date(t, "2024-03-01"), TotalScore: 90})
	require.NoError(t, err)
	rec, err := exams.Record(ctx, storage.ExamResult{StudentID: "s1", TestDate: date(t, "2024-04-01"), TotalScore: 100})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, 108, rec.PredictedScore)

	latest, err = exams.LatestPrediction(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, rec.ID, latest.ID)

	_, err = exams.Record(ctx, storage.ExamResult{StudentID: "s1", TestDate: date(t, "2024-04-01"), TotalScore: 141})
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	_, err = exams.Record(ctx, storage.ExamResult{StudentID: "missing", TestDate: date(t, "2024-04-01"), TotalScore: 50})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestStudents(t *testing.T) {
	ctx := context.Background()
	students := NewStudents(memory.New())

	_, err := students.Create(ctx, storage.Student{})
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	st, err := students.Create(ctx, storage.Student{Name: "Aibek", Class: "10A"})
	require.NoError(t, err)
	assert.NotEmpty(t, st.ID)

	ok, err := students.Exists(ctx, st.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = students.Exists(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	st.Class = "11A"
	updated, err := students.Update(ctx, st)
	require.NoError(t, err)
	assert.Equal(t, "11A", updated.Class)

	_, err = students.Update(ctx, storage.Student{ID: "missing", Name: "X"})
	assert.ErrorIs(t, err, core.ErrNotFound)

	list, err := students.List(ctx, "11A")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, students.Delete(ctx, st.ID))
	_, err = students.Get(ctx, st.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestGrades(t *testing.T) {
	ctx := context.Background()
	store := seedStudent(t, "s1", "Aibek")
	grades := NewGrades(store, nil, nil)

	_, err := grades.Add(ctx, storage.Grade{StudentID: "s1", Subject: "Math", Score: 101, GradeDate: date(t, "2024-09-01")})
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	_, err = grades.Add(ctx, gradeFor("missing", date(t, "2024-09-01")))
	assert.ErrorIs(t, err, core.ErrNotFound)

	g, err := grades.Add(ctx, gradeFor("s1", date(t, "2024-09-01")))
	require.NoError(t, err)

	list, err := grades.List(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, grades.Delete(ctx, g.ID))
	assert.ErrorIs(t, grades.Delete(ctx, g.ID), core.ErrNotFound)
}

func TestEvents(t *testing.T) {
	ctx := context.Background()
	events := NewEvents(memory.New())

	_, err := events.Create(ctx, storage.Event{Type: "olympiad", EventDate: date(t, "2024-11-01")})
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	olympiad, err := events.Create(ctx, storage.Event{Title: "Math Olympiad", Type: "olympiad", EventDate: date(t, "2024-11-01")})
	require.NoError(t, err)
	_, err = events.Create(ctx, storage.Event{Title: "Hackathon", Type: "competition", EventDate: date(t, "2024-10-01")})
	require.NoError(t, err)

	list, err := events.Upcoming(ctx, storage.EventFilter{Type: "olympiad"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, olympiad.ID, list[0].ID)

	all, err := events.Upcoming(ctx, storage.EventFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Hackathon", all[0].Title)

	olympiad.Location = "Astana"
	_, err = events.Update(ctx, olympiad)
	require.NoError(t, err)
	got, err := events.Get(ctx, olympiad.ID)
	require.NoError(t, err)
	assert.Equal(t, "Astana", got.Location)

	require.NoError(t, events.Delete(ctx, olympiad.ID))
}
