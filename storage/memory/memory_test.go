package memory

import (
	"context"
	"testing"

	"github.com/hupe1980/schoolmate/storage"
	"github.com/hupe1980/schoolmate/storage/storagetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Store { return New() })
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().GetStudent(ctx, "s1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPutStudentKeepsCreatedAt(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.PutStudent(ctx, storage.Student{ID: "s1", Name: "A"}))
	first, err := s.GetStudent(ctx, "s1")
	require.NoError(t, err)

	require.NoError(t, s.PutStudent(ctx, storage.Student{ID: "s1", Name: "B"}))
	second, err := s.GetStudent(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.Equal(t, "B", second.Name)
}
