// Package storage stores uploaded files (product images) on the local
// filesystem or an S3-compatible bucket, chosen by STORAGE_DISK.
//
//	disk, err := storage.New(ctx)
//	err = disk.Put(ctx, "products/3/basket.jpg", file, "image/jpeg")
//	url := disk.URL("products/3/basket.jpg")
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/shashiranjanraj/storefront/config"
)

// ErrInvalidPath is returned for paths that escape the disk root.
var ErrInvalidPath = errors.New("storage: invalid path")

// Disk is a flat object store addressed by slash-separated keys.
type Disk interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Exists(ctx context.Context, key string) (bool, error)
	// Delete is a no-op for a missing key.
	Delete(ctx context.Context, key string) error
	// URL is the public address of key.
	URL(key string) string
}

// New builds the disk named by STORAGE_DISK (local | s3).
func New(ctx context.Context) (Disk, error) {
	switch d := config.StorageDefault(); d {
	case "local", "":
		return NewLocal(config.StorageLocalRoot(), config.StorageURL())
	case "s3":
		return NewS3(ctx, S3Options{
			Bucket:   config.StorageS3Bucket(),
			Region:   config.StorageS3Region(),
			Key:      config.StorageS3Key(),
			Secret:   config.StorageS3Secret(),
			Endpoint: config.StorageS3Endpoint(),
			BaseURL:  config.StorageS3URL(),
		})
	default:
		return nil, fmt.Errorf("storage: unknown disk %q", d)
	}
}

// cleanKey normalises key and rejects traversal outside the root.
func cleanKey(key string) (string, error) {
	slashed := strings.ReplaceAll(key, "\\", "/")
	for _, seg := range strings.Split(slashed, "/") {
		if seg == ".." {
			return "", fmt.Errorf("%w: %q", ErrInvalidPath, key)
		}
	}
	k := strings.TrimPrefix(path.Clean("/"+slashed), "/")
	if k == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, key)
	}
	return k, nil
}
