//go:build gcp

package archive

import (
	"context"
	"errors"
	"fmt"
	"path"

	"cloud.google.com/go/storage"
)

// GCSStore archives device files to a Google Cloud Storage bucket under
// <prefix>/<sessionDir>/<name>.
type GCSStore struct {
	client *storage.Client
	bucket string
	prefix string
}

// GCSConfig holds GCS archive settings.
type GCSConfig struct {
	Bucket string
	Prefix string
}

// NewGCSStore builds a client from application default credentials.
func NewGCSStore(ctx context.Context, cfg GCSConfig) (*GCSStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("archive: creating GCS client: %w", err)
	}
	return &GCSStore{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

// Put uploads one device file, leaving an existing object alone.
func (s *GCSStore) Put(ctx context.Context, sessionDir, name string, data []byte) error {
	key := path.Join(s.prefix, sessionDir, name)
	obj := s.client.Bucket(s.bucket).Object(key)
	if _, err := obj.Attrs(ctx); err == nil {
		return nil
	} else if !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("archive: checking gs://%s/%s: %w", s.bucket, key, err)
	}
	w := obj.NewWriter(ctx)
	w.ContentType = "application/octet-stream"
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("archive: uploading gs://%s/%s: %w", s.bucket, key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("archive: committing gs://%s/%s: %w", s.bucket, key, err)
	}
	return nil
}
