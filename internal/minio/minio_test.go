package minio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	require.NoError(t, store.PutObject(ctx, "cfg", "cameras/a.yaml", []byte("a"), "application/yaml"))
	require.NoError(t, store.PutObject(ctx, "cfg", "cameras/b.yaml", []byte("bb"), ""))
	require.NoError(t, store.PutObject(ctx, "cfg", "heat-profiles/x.yaml", []byte("x"), ""))

	data, err := store.GetObject(ctx, "cfg", "cameras/b.yaml")
	require.NoError(t, err)
	assert.Equal(t, "bb", string(data))

	_, err = store.GetObject(ctx, "cfg", "cameras/missing.yaml")
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = store.GetObject(ctx, "nope", "x")
	assert.True(t, errors.Is(err, ErrNotFound))

	objects, err := store.ListObjects(ctx, "cfg", "cameras/")
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, "cameras/b.yaml", objects[0].Key, "newest first")
	assert.Equal(t, int64(2), objects[0].Size)

	require.NoError(t, store.RemoveObject(ctx, "cfg", "cameras/b.yaml"))
	require.NoError(t, store.RemoveObject(ctx, "nope", "x"))
	objects, err = store.ListObjects(ctx, "cfg", "cameras/")
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, "cameras/a.yaml", objects[0].Key)
}

func TestMinioConnection(t *testing.T) {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	accessKey := os.Getenv("MINIO_ACCESS_KEY")
	secretKey := os.Getenv("MINIO_SECRET_KEY")
	if endpoint == "" || accessKey == "" || secretKey == "" {
		t.Skip("Skipping test: MinIO credentials not provided")
	}

	client, err := NewClient(Config{
		Endpoint:        endpoint,
		AccessKeyID:     accessKey,
		SecretAccessKey: secretKey,
	})
	require.NoError(t, err)

	ctx := context.Background()
	key := fmt.Sprintf("test-object-%d", time.Now().UnixNano())
	require.NoError(t, client.PutObject(ctx, "surveillance-test", key, []byte("payload"), "text/plain"))

	data, err := client.GetObject(ctx, "surveillance-test", key)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	_, err = client.GetObject(ctx, "surveillance-test", "non-existent-object")
	assert.True(t, errors.Is(err, ErrNotFound))

	objects, err := client.ListObjects(ctx, "surveillance-test", "test-object-")
	require.NoError(t, err)
	assert.NotEmpty(t, objects)
}
