package service

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/hupe1980/schoolmate/core"
	"github.com/hupe1980/schoolmate/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func santaStore(t *testing.T, ids ...string) *memory.Store {
	t.Helper()
	store := memory.New()
	for _, id := range ids {
		addStudent(t, store, id, "Student "+id, "7B")
	}
	return store
}

func TestSecretSantaGenerate(t *testing.T) {
	ids := []string{"s1", "s2", "s3", "s4", "s5"}
	store := santaStore(t, ids...)
	rng := rand.New(rand.NewPCG(7, 11))
	santa := NewSecretSanta(store, func(o *SecretSantaOptions) { o.Shuffle = rng.Shuffle })

	for range 20 {
		pairs, err := santa.Generate(context.Background(), ids)
		require.NoError(t, err)
		require.Len(t, pairs, len(ids))

		received := map[string]int{}
		for i, p := range pairs {
			assert.Equal(t, ids[i], p.GiverID)
			assert.NotEqual(t, p.GiverID, p.ReceiverID)
			assert.Equal(t, "Student "+p.ReceiverID, p.ReceiverName)
			received[p.ReceiverID]++
		}
		assert.Len(t, received, len(ids))
		for id, n := range received {
			assert.Equal(t, 1, n, id)
		}
	}
}

func TestSecretSantaSkipsUnknownAndDuplicates(t *testing.T) {
	store := santaStore(t, "s1", "s2")
	santa := NewSecretSanta(store)

	pairs, err := santa.Generate(context.Background(), []string{"s1", "ghost", "s2", "s1"})
	require.NoError(t, err)
	require.Len(t, pairs, 2)
	assert.Equal(t, "s2", pairs[0].ReceiverID)
	assert.Equal(t, "s1", pairs[1].ReceiverID)
}

func TestSecretSantaNotEnoughStudents(t *testing.T) {
	store := santaStore(t, "s1")
	santa := NewSecretSanta(store)
	ctx := context.Background()

	_, err := santa.Generate(ctx, []string{"s1"})
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	_, err = santa.Generate(ctx, []string{"s1", "ghost"})
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	_, err = santa.Generate(ctx, []string{"s1", "s1"})
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
}

func TestSecretSantaAttemptsExhausted(t *testing.T) {
	store := santaStore(t, "s1", "s2", "s3")
	shuffles := 0
	santa := NewSecretSanta(store, func(o *SecretSantaOptions) {
		o.MaxAttempts = 3
		o.Shuffle = func(int, func(i, j int)) { shuffles++ }
	})

	_, err := santa.Generate(context.Background(), []string{"s1", "s2", "s3"})
	assert.ErrorIs(t, err, ErrPairingFailed)
	assert.Equal(t, 3, shuffles)
}
