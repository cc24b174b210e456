package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_GetSet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, ok, err := m.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	value := []byte(`{"id":1}`)
	require.NoError(t, m.Set(ctx, "k", value, time.Minute))
	value[0] = 'X' // el cache guarda una copia

	got, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"id":1}`, string(got))
}

func TestMemory_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "short", []byte("a"), time.Second))
	require.NoError(t, m.Set(ctx, "forever", []byte("b"), 0))

	now = now.Add(2 * time.Second)

	_, ok, _ := m.Get(ctx, "short")
	assert.False(t, ok)
	_, ok, _ = m.Get(ctx, "forever")
	assert.True(t, ok)
	assert.Equal(t, 1, m.Len())
}

func TestNew(t *testing.T) {
	c, err := New(context.Background(), Config{Driver: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, c)

	_, err = New(context.Background(), Config{Driver: "memcached"})
	assert.Error(t, err)
}

func TestMemory_Delete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Set(ctx, "k", []byte("v"), 0))

	require.NoError(t, m.Delete(ctx, "k"))
	require.NoError(t, m.Delete(ctx, "missing"))

	_, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, m.Len())
}
