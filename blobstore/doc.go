// Package blobstore is the storage layer for feature tables, distance
// matrices and alignment reports.
//
// # Implementations
//
//   - LocalStore: local filesystem; reads are memory-mapped
//   - MemoryStore: in-process, for tests and pipelines
//   - CachingStore: block cache in front of a remote store
//   - s3.Store: Amazon S3 with range reads and multipart uploads
//   - minio.Store: MinIO and other S3-compatible services
//
// Custom backends implement Store:
//
//	type Store interface {
//	    Open(ctx, name) (Blob, error)
//	    Create(ctx, name) (WritableBlob, error)
//	    Put(ctx, name, data) error
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
//
// ReadAll and Write cover the common whole-blob cases.
package blobstore
