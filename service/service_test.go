package service

import (
	"context"
	"testing"
	"time"

	"github.com/hupe1980/schoolmate/storage"
	"github.com/hupe1980/schoolmate/storage/memory"
	"github.com/stretchr/testify/require"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := storage.ParseDate(s)
	require.NoError(t, err)
	return d
}

type gradeSeed struct {
	subject, topic string
	score          float64
	day            string
}

// seedStudent stores a student with the given grades in a fresh memory store.
func seedStudent(t *testing.T, id, name string, grades ...gradeSeed) *memory.Store {
	t.Helper()
	store := memory.New()
	addStudent(t, store, id, name, "10A", grades...)
	return store
}

func addStudent(t *testing.T, store *memory.Store, id, name, class string, grades ...gradeSeed) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.PutStudent(ctx, storage.Student{ID: id, Name: name, Class: class}))
	for i, g := range grades {
		require.NoError(t, store.PutGrade(ctx, storage.Grade{
			ID:        id + "-g" + string(rune('a'+i)),
			StudentID: id,
			Subject:   g.subject,
			Topic:     g.topic,
			Score:     g.score,
			GradeDate: date(t, g.day),
		}))
	}
}
