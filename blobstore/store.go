package blobstore

import (
	"context"
	"errors"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations return an error that satisfies errors.Is(err, ErrNotFound).
var ErrNotFound = os.ErrNotExist

// Store reads and writes named blobs: feature tables, distance matrices and
// alignment reports. Implementations are safe for concurrent use.
type Store interface {
	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (Blob, error)
	// Create opens a blob for streaming writes. The blob becomes visible
	// when the writer is closed.
	Create(ctx context.Context, name string) (WritableBlob, error)
	// Put writes a blob in one call.
	Put(ctx context.Context, name string, data []byte) error
	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error
	// List returns the sorted names starting with prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob is a read-only handle to a stored blob.
type Blob interface {
	io.Closer
	// ReadAt reads len(p) bytes at off. It returns io.EOF when fewer bytes
	// remain.
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)
	// ReadRange streams length bytes starting at off.
	ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error)
	// Size returns the size of the blob in bytes.
	Size() int64
}

// WritableBlob is a blob being written.
type WritableBlob interface {
	io.WriteCloser
	// Sync flushes buffered data where the backend supports it.
	Sync() error
}

// Mappable is implemented by blobs that expose their contents without a copy.
type Mappable interface {
	// Bytes returns the contents. The slice is valid until the Blob is closed.
	Bytes() ([]byte, error)
}

// ReadAll returns the full contents of a blob.
func ReadAll(ctx context.Context, s Store, name string) ([]byte, error) {
	b, err := s.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer b.Close()

	if b.Size() == 0 {
		return []byte{}, nil
	}
	if m, ok := b.(Mappable); ok {
		data, err := m.Bytes()
		if err != nil {
			return nil, err
		}
		return append([]byte(nil), data...), nil
	}

	rc, err := b.ReadRange(ctx, 0, b.Size())
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// Write streams a blob produced by fn. The blob is only committed when fn
// succeeds; on failure the partial blob is discarded where the backend
// allows it.
func Write(ctx context.Context, s Store, name string, fn func(w io.Writer) error) error {
	w, err := s.Create(ctx, name)
	if err != nil {
		return err
	}
	if err := fn(w); err != nil {
		if a, ok := w.(interface{ Abort() error }); ok {
			return errors.Join(err, a.Abort())
		}
		return errors.Join(err, w.Close())
	}
	return w.Close()
}
