package exports

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"qr_generator_client/internal/adapters/storage"
)

// Sink receives exported files.
type Sink interface {
	// Put stores data under name and returns where it ended up.
	Put(ctx context.Context, name, contentType string, data []byte) (string, error)
}

// DirSink writes files into a local directory.
type DirSink struct {
	dir string
}

// NewDirSink creates dir if needed.
func NewDirSink(dir string) (*DirSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}
	return &DirSink{dir: dir}, nil
}

// Put writes data to dir/name and returns the file path.
func (s *DirSink) Put(_ context.Context, name, _ string, data []byte) (string, error) {
	path := filepath.Join(s.dir, filepath.Base(name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// BucketSink uploads files into a folder of an object storage bucket.
type BucketSink struct {
	store  storage.StorageService
	bucket string
	folder string
}

// NewBucketSink makes sure the bucket exists before anything is uploaded.
func NewBucketSink(ctx context.Context, store storage.StorageService, bucket, folder string) (*BucketSink, error) {
	if err := store.EnsureBucketExists(ctx, bucket); err != nil {
		return nil, err
	}
	return &BucketSink{store: store, bucket: bucket, folder: folder}, nil
}

// Put uploads data and returns a presigned download URL for it.
func (s *BucketSink) Put(ctx context.Context, name, contentType string, data []byte) (string, error) {
	key, err := s.store.UploadFile(ctx, s.bucket, s.folder, name, contentType, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	link, err := s.store.GenerateDownloadURL(ctx, s.bucket, key)
	if err != nil {
		return "", fmt.Errorf("presign %s/%s: %w", s.bucket, key, err)
	}
	return link.URL, nil
}
