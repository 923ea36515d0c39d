package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryKV(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()

	_, err := kv.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	value := []byte(`["a"]`)
	require.NoError(t, kv.Set(ctx, "k", value))
	value[0] = 'X'

	got, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `["a"]`, string(got))

	require.NoError(t, kv.Remove(ctx, "k"))
	_, err = kv.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

type brokenKV struct{ calls int }

var errConnRefused = errors.New("connection refused")

func (b *brokenKV) Get(context.Context, string) ([]byte, error) {
	b.calls++
	return nil, errConnRefused
}

func (b *brokenKV) Set(context.Context, string, []byte) error {
	b.calls++
	return errConnRefused
}

func (b *brokenKV) Remove(context.Context, string) error {
	b.calls++
	return errConnRefused
}

func TestBreakerKVOpensAfterFailures(t *testing.T) {
	ctx := context.Background()
	inner := &brokenKV{}
	kv := NewBreakerKV(inner, "test-open")

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, kv.Set(ctx, "k", nil), errConnRefused)
	}
	assert.Equal(t, "open", kv.State())

	err := kv.Set(ctx, "k", nil)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 3, inner.calls)
}

func TestBreakerKVTreatsNotFoundAsSuccess(t *testing.T) {
	ctx := context.Background()
	kv := NewBreakerKV(NewMemoryKV(), "test-notfound")

	for i := 0; i < 5; i++ {
		_, err := kv.Get(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	}
	assert.Equal(t, "closed", kv.State())

	require.NoError(t, kv.Set(ctx, "k", []byte("1")))
	got, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "1", string(got))
}
