package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalDisk stores files under a root directory and serves them from
// baseURL (the HTTP server mounts Root at /storage).
type LocalDisk struct {
	root    string
	baseURL string
}

// NewLocal creates root if needed. A relative root is resolved against the
// working directory.
func NewLocal(root, baseURL string) (*LocalDisk, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage/local: resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("storage/local: mkdir root: %w", err)
	}
	return &LocalDisk{root: abs, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Root is the absolute directory files are written under.
func (d *LocalDisk) Root() string { return d.root }

func (d *LocalDisk) abs(key string) (string, error) {
	k, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(d.root, filepath.FromSlash(k)), nil
}

func (d *LocalDisk) Put(_ context.Context, key string, r io.Reader, _ string) error {
	full, err := d.abs(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("storage/local: mkdir: %w", err)
	}
	// Write to a temp file first so readers never see a partial image.
	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return fmt.Errorf("storage/local: create %s: %w", key, err)
	}
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("storage/local: write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("storage/local: close %s: %w", key, err)
	}
	return os.Rename(tmp.Name(), full)
}

func (d *LocalDisk) Get(_ context.Context, key string) (io.ReadCloser, error) {
	full, err := d.abs(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		return nil, fmt.Errorf("storage/local: open %s: %w", key, err)
	}
	return f, nil
}

func (d *LocalDisk) Exists(_ context.Context, key string) (bool, error) {
	full, err := d.abs(key)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(full)
	if os.IsNotExist(err) {
		return false, nil
	}
	return err == nil, err
}

func (d *LocalDisk) Delete(_ context.Context, key string) error {
	full, err := d.abs(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage/local: delete %s: %w", key, err)
	}
	return nil
}

func (d *LocalDisk) URL(key string) string {
	k, _ := cleanKey(key)
	return d.baseURL + "/" + k
}
