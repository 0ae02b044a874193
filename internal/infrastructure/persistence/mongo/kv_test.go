package mongo

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKV_Key(t *testing.T) {
	kv := &KV{namespace: "hub"}
	assert.Equal(t, "hub:theme", kv.Key("theme"))
}

func TestKV_Integration(t *testing.T) {
	uri := os.Getenv("HUB_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("HUB_TEST_MONGO_URI not set")
	}
	ctx := context.Background()

	cfg := DefaultConfig()
	cfg.URI = uri
	cfg.Namespace = "test-" + uuid.NewString()[:8]

	kv, err := Open(ctx, cfg)
	require.NoError(t, err)
	defer kv.Close()
	defer kv.Delete(ctx, "theme", "ubaya_students_db")

	_, ok, err := kv.Get(ctx, "theme")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.Set(ctx, "theme", []byte("day")))
	require.NoError(t, kv.Set(ctx, "theme", []byte("night")))

	got, ok, err := kv.Get(ctx, "theme")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "night", string(got))

	require.NoError(t, kv.Delete(ctx, "theme"))
	_, ok, err = kv.Get(ctx, "theme")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = kv.Get(ctx, "")
	assert.ErrorIs(t, err, ErrKeyEmpty)
}
