package archive

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Store archives device files to an S3 bucket under
// <prefix>/<sessionDir>/<name>.
type S3Store struct {
	client *s3.Client
	bucket string
	prefix string
}

// S3Config holds S3 archive settings.
type S3Config struct {
	Bucket string
	Region string
	// Endpoint overrides the AWS endpoint, for MinIO and LocalStack.
	Endpoint string
	Prefix   string
}

// NewS3Store builds a client from the ambient AWS credentials.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("archive: loading AWS config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Store{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

// Put uploads one device file. Device files are immutable once published,
// so an object that already exists is left alone.
func (s *S3Store) Put(ctx context.Context, sessionDir, name string, data []byte) error {
	key := path.Join(s.prefix, sessionDir, name)
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return nil
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/octet-stream"),
	})
	if err != nil {
		return fmt.Errorf("archive: uploading s3://%s/%s: %w", s.bucket, key, err)
	}
	return nil
}
