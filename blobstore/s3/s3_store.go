package s3

import (
	"context"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/hupe1980/phonodist/blobstore"
)

var _ blobstore.Store = (*Store)(nil)

// Store implements blobstore.Store on an S3 bucket.
type Store struct {
	client Client
	bucket string
	prefix string
	upload UploadConfig
}

// Options configure New.
type Options struct {
	// Prefix is prepended to every key (e.g. "phonodist/").
	Prefix string

	// Region overrides the region of the default AWS configuration.
	Region string

	// Endpoint selects an S3-compatible endpoint and path-style addressing.
	Endpoint string

	// Upload configures uploads.
	Upload UploadConfig
}

// NewStore creates a store on an existing client. rootPrefix is prepended to
// all keys.
func NewStore(client Client, bucket, rootPrefix string, optFns ...func(o *Options)) *Store {
	opts := Options{Prefix: rootPrefix, Upload: DefaultUploadConfig()}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Store{
		client: client,
		bucket: bucket,
		prefix: opts.Prefix,
		upload: opts.Upload,
	}
}

// New creates a store from the default AWS configuration chain.
func New(ctx context.Context, bucket string, optFns ...func(o *Options)) (*Store, error) {
	opts := Options{Upload: DefaultUploadConfig()}
	for _, fn := range optFns {
		fn(&opts)
	}

	var loadOpts []func(*config.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.Region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &Store{client: client, bucket: bucket, prefix: opts.Prefix, upload: opts.Upload}, nil
}

func (s *Store) key(name string) string {
	return path.Join(s.prefix, name)
}

// Open issues a HEAD request; reads are ranged GETs.
func (s *Store) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	return openBlob(ctx, s.client, s.bucket, s.key(name))
}

// Create starts a streaming upload that completes on Close.
func (s *Store) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	}
	if s.upload.EnableChecksum {
		input.ChecksumAlgorithm = types.ChecksumAlgorithmCrc32c
	}
	return newWritableBlob(ctx, newUploader(s.client, s.upload), input), nil
}

// Put uploads data in a single request.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	return putObject(ctx, s.client, s.bucket, s.key(name), data, s.upload.EnableChecksum)
}

// Delete removes an object. S3 deletes are idempotent.
func (s *Store) Delete(ctx context.Context, name string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	return err
}

// List returns the names below prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	full := s.prefix + prefix
	if s.prefix != "" && prefix != "" {
		full = s.key(prefix)
	}
	return listObjects(ctx, s.client, s.bucket, full, s.prefix)
}
