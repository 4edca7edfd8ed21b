package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalDiskLifecycle(t *testing.T) {
	ctx := context.Background()
	d, err := NewLocal(t.TempDir(), "http://localhost:5000/storage/")
	require.NoError(t, err)

	require.NoError(t, d.Put(ctx, "products/3/basket.jpg", strings.NewReader("jpeg"), "image/jpeg"))

	ok, err := d.Exists(ctx, "products/3/basket.jpg")
	require.NoError(t, err)
	assert.True(t, ok)

	rc, err := d.Get(ctx, "products/3/basket.jpg")
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "jpeg", string(data))

	assert.Equal(t, "http://localhost:5000/storage/products/3/basket.jpg", d.URL("products/3/basket.jpg"))

	require.NoError(t, d.Delete(ctx, "products/3/basket.jpg"))
	require.NoError(t, d.Delete(ctx, "products/3/basket.jpg"))
	ok, _ = d.Exists(ctx, "products/3/basket.jpg")
	assert.False(t, ok)
}

func TestCleanKeyRejectsTraversal(t *testing.T) {
	for _, k := range []string{"", "../etc/passwd", "a/../../b", "/"} {
		_, err := cleanKey(k)
		assert.ErrorIs(t, err, ErrInvalidPath, k)
	}
	k, err := cleanKey("/products//1/a.png")
	require.NoError(t, err)
	assert.Equal(t, "products/1/a.png", k)
}

func TestNewS3RequiresBucket(t *testing.T) {
	_, err := NewS3(context.Background(), S3Options{})
	assert.ErrorContains(t, err, "S3_BUCKET")
}
