// Package assets fetches decorative assets (logos, fonts, music, watermark)
// from storage into a job's workspace.
package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Kondomino/kondo-movie-sub001/internal/config"
)

// ErrNotFound is returned when storage has no object for a key.
var ErrNotFound = errors.New("asset not found")

// Fetcher copies the object stored under key to the local file dst.
type Fetcher interface {
	Fetch(ctx context.Context, key, dst string) error
}

// NewFetcher builds the fetcher selected by cfg.Backend.
func NewFetcher(ctx context.Context, cfg config.StorageConfig, logger zerolog.Logger) (Fetcher, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "local":
		return &LocalStore{Root: cfg.LocalDir}, nil
	case "s3":
		if cfg.Bucket == "" {
			return nil, errors.New("s3 storage requires a bucket")
		}
		client, err := NewS3(ctx, S3Config{Region: cfg.Region, Profile: cfg.Profile, UsePathStyle: cfg.UsePathStyle})
		if err != nil {
			return nil, fmt.Errorf("init s3: %w", err)
		}
		logger.Debug().Str("bucket", cfg.Bucket).Msg("using s3 asset storage")
		return &S3Store{Client: client, Bucket: cfg.Bucket}, nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}

// LocalStore serves assets from a directory tree.
type LocalStore struct {
	Root string
}

func (s *LocalStore) Fetch(ctx context.Context, key, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	src, err := os.Open(filepath.Join(s.Root, filepath.FromSlash(key)))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return err
	}
	defer src.Close()
	return writeFile(dst, src)
}

func writeFile(dst string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(dst)
		return err
	}
	return f.Close()
}
