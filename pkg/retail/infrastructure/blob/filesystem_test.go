package blob_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailservice/pkg/retail/infrastructure/blob"
)

func TestFileStorePut(t *testing.T) {
	root := t.TempDir()
	s := blob.NewFileStore(root, "http://localhost:8080/content/")
	ctx := context.Background()

	location, err := s.Put(ctx, blob.ProductImages, "kettle.png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/content/product-images/kettle.png", location)

	data, err := os.ReadFile(filepath.Join(root, blob.ProductImages, "kettle.png"))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	t.Run("Create once", func(t *testing.T) {
		_, err := s.Put(ctx, blob.ProductImages, "kettle.png", strings.NewReader("other"))
		assert.ErrorIs(t, err, blob.ErrBlobExists)

		data, err := os.ReadFile(filepath.Join(root, blob.ProductImages, "kettle.png"))
		require.NoError(t, err)
		assert.Equal(t, "png-bytes", string(data))
	})

	t.Run("Rejects path traversal", func(t *testing.T) {
		_, err := s.Put(ctx, blob.Contracts, "../escape.txt", strings.NewReader("x"))
		assert.ErrorIs(t, err, blob.ErrInvalidName)
	})

	t.Run("Cancelled context leaves no blob", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := s.Put(cancelled, blob.Contracts, "late.pdf", strings.NewReader("x"))
		assert.ErrorIs(t, err, context.Canceled)
		assert.NoFileExists(t, filepath.Join(root, blob.Contracts, "late.pdf"))
	})
}
