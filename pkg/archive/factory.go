package archive

import (
	"context"
	"fmt"
)

// Options selects and configures an archive backend.
type Options struct {
	// Kind is "none", "dir", "s3", or "gcs".
	Kind   string
	Dir    string
	Bucket string
	Prefix string
	Region string
}

// NewStore builds the configured backend. Kind "none" (or empty) returns
// a nil Store: archiving is optional.
func NewStore(ctx context.Context, opts Options) (Store, error) {
	switch opts.Kind {
	case "", "none":
		return nil, nil
	case "dir":
		return NewDirStore(opts.Dir)
	case "s3":
		return NewS3Store(ctx, S3Config{
			Bucket: opts.Bucket,
			Region: opts.Region,
			Prefix: opts.Prefix,
		})
	case "gcs":
		return newGCSStore(ctx, opts)
	default:
		return nil, fmt.Errorf("archive: unsupported kind %q", opts.Kind)
	}
}
