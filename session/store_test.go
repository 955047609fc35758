package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreContract exercises behavior every Store must share.
func runStoreContract(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Load(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	sess := New([]string{"Duty (Karma Yoga) - desc", "Devotion (Bhakti) - love"})
	require.NoError(t, store.Save(ctx, sess))

	got, err := store.Load(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
	assert.Equal(t, sess.Themes, got.Themes)
	assert.Empty(t, got.Turns)

	got.AddTurn("Duty (Karma Yoga) - desc", SourceAction, "Arjun...", false)
	require.NoError(t, store.Save(ctx, got))

	again, err := store.Load(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, again.Turns, 1)
	assert.Equal(t, SourceAction, again.Turns[0].Source)
	assert.Equal(t, "Arjun...", again.Turns[0].Digest)

	require.NoError(t, store.Delete(ctx, sess.ID))
	_, err = store.Load(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_Contract(t *testing.T) {
	runStoreContract(t, NewMemoryStore(time.Hour))
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)
	sess := New([]string{"a (b) - c"})
	require.NoError(t, store.Save(ctx, sess))

	sess.Themes[0] = "mutated"
	got, err := store.Load(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "a (b) - c", got.Themes[0])
}

func TestMemoryStore_TTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore(time.Minute)
	store.now = func() time.Time { return now }

	sess := New(nil)
	require.NoError(t, store.Save(ctx, sess))
	assert.Equal(t, 1, store.Len())

	now = now.Add(59 * time.Second)
	_, err := store.Load(ctx, sess.ID)
	require.NoError(t, err)

	now = now.Add(time.Second)
	_, err = store.Load(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, store.Len())
}

func newMiniredis(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	return mr, backend.NewClient(&backend.Options{Addr: mr.Addr()})
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newMiniredis(t)
	store := NewRedisStoreFromClient(client)
	defer store.Close()

	require.NoError(t, store.Ping(context.Background()))
	runStoreContract(t, store)
}

func TestRedisStore_TTLAndPrefix(t *testing.T) {
	mr, client := newMiniredis(t)
	store := NewRedisStoreFromClient(client, WithTTL(time.Minute), WithPrefix("test:"))
	defer store.Close()
	ctx := context.Background()

	sess := New([]string{"Duty (Karma Yoga) - desc"})
	require.NoError(t, store.Save(ctx, sess))
	assert.True(t, mr.Exists("test:"+sess.ID))
	assert.Equal(t, time.Minute, mr.TTL("test:"+sess.ID))

	mr.FastForward(2 * time.Minute)
	_, err := store.Load(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_CorruptPayload(t *testing.T) {
	mr, client := newMiniredis(t)
	store := NewRedisStoreFromClient(client)
	defer store.Close()

	require.NoError(t, mr.Set(defaultRedisPrefix+"bad", "{not json"))
	_, err := store.Load(context.Background(), "bad")
	assert.ErrorContains(t, err, "unmarshal")
}
