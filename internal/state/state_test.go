package state_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alecgard/tripboard/internal/state"
)

func exerciseStore(t *testing.T, s state.Store) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Put(ctx, "a", []byte("one")))
	require.NoError(t, s.Put(ctx, "a", []byte("two")))
	v, ok, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "two", string(v))

	require.NoError(t, s.Delete(ctx, "a"))
	require.NoError(t, s.Delete(ctx, "a"))
	_, ok, err = s.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, state.NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	exerciseStore(t, state.NewFileStore(filepath.Join(t.TempDir(), "nested", "state.json")))
}

func TestFileStore_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.json")

	require.NoError(t, state.NewFileStore(path).Put(ctx, state.KeyUnreadCount, []byte("3")))

	v, ok, err := state.NewFileStore(path).Get(ctx, state.KeyUnreadCount)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "3", string(v))
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, _, err := state.NewFileStore(path).Get(context.Background(), "a")
	assert.Error(t, err)
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	s := state.NewMemoryStore()

	type flags struct {
		TripID string `json:"tripId"`
		Done   bool   `json:"done"`
	}

	var got []flags
	ok, err := state.GetJSON(ctx, s, state.KeyNotifiedTrip, &got)
	require.NoError(t, err)
	assert.False(t, ok)

	want := []flags{{TripID: "t1", Done: true}}
	require.NoError(t, state.PutJSON(ctx, s, state.KeyNotifiedTrip, want))
	ok, err = state.GetJSON(ctx, s, state.KeyNotifiedTrip, &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, got)

	require.NoError(t, s.Put(ctx, "bad", []byte("nope")))
	_, err = state.GetJSON(ctx, s, "bad", &got)
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, closeFn, err := state.Open(ctx, state.Options{Driver: "file", Path: filepath.Join(t.TempDir(), "s.json")})
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, &state.FileStore{}, s)

	s, _, err = state.Open(ctx, state.Options{Driver: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &state.MemoryStore{}, s)

	_, _, err = state.Open(ctx, state.Options{Driver: "sqlite"})
	assert.Error(t, err)
}
