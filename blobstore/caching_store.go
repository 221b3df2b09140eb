package blobstore

import (
	"context"
	"errors"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/phonodist/internal/cache"
)

// DefaultBlockSize is the cache block size used when none is given.
const DefaultBlockSize = 64 << 10

type blockKey struct {
	name  string
	block int64
}

// CachingStore wraps a Store with an LRU block cache for reads. It suits
// remote stores from which the same feature table or matrix is read
// repeatedly. Writes and deletes pass through and drop the blob's blocks.
type CachingStore struct {
	inner     Store
	cache     *cache.LRU[blockKey, []byte]
	blockSize int64
}

// NewCachingStore caches up to blocks blocks of blockSize bytes. A
// non-positive blockSize selects DefaultBlockSize.
func NewCachingStore(inner Store, blocks int, blockSize int64) (*CachingStore, error) {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	c, err := cache.NewLRU[blockKey, []byte](blocks)
	if err != nil {
		return nil, err
	}
	return &CachingStore{inner: inner, cache: c, blockSize: blockSize}, nil
}

// Stats returns the block cache counters.
func (s *CachingStore) Stats() cache.Stats {
	return s.cache.Stats()
}

func (s *CachingStore) invalidate(name string) {
	s.cache.Invalidate(func(k blockKey) bool { return k.name == name })
}

// Open opens a blob whose reads go through the block cache.
func (s *CachingStore) Open(ctx context.Context, name string) (Blob, error) {
	b, err := s.inner.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	return &cachingBlob{inner: b, store: s, name: name}, nil
}

// Create passes through; cached blocks of name are dropped.
func (s *CachingStore) Create(ctx context.Context, name string) (WritableBlob, error) {
	s.invalidate(name)
	return s.inner.Create(ctx, name)
}

// Put passes through; cached blocks of name are dropped.
func (s *CachingStore) Put(ctx context.Context, name string, data []byte) error {
	s.invalidate(name)
	return s.inner.Put(ctx, name, data)
}

// Delete passes through; cached blocks of name are dropped.
func (s *CachingStore) Delete(ctx context.Context, name string) error {
	s.invalidate(name)
	return s.inner.Delete(ctx, name)
}

// List passes through.
func (s *CachingStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

type cachingBlob struct {
	inner Blob
	store *CachingStore
	name  string
}

func (b *cachingBlob) Close() error { return b.inner.Close() }
func (b *cachingBlob) Size() int64  { return b.inner.Size() }

func (b *cachingBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	size := b.Size()
	if off >= size {
		return 0, io.EOF
	}

	bs := b.store.blockSize
	end := min(off+int64(len(p)), size)
	first, last := off/bs, (end-1)/bs

	if err := b.fill(ctx, first, last); err != nil {
		return 0, err
	}

	n := 0
	for blk := first; blk <= last; blk++ {
		data, err := b.block(ctx, blk)
		if err != nil {
			return n, err
		}
		start := max(blk*bs, off) - blk*bs
		if start >= int64(len(data)) {
			break
		}
		n += copy(p[n:], data[start:])
	}
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// fill loads every missing block in [first, last], one backend read per
// contiguous run of missing blocks.
func (b *cachingBlob) fill(ctx context.Context, first, last int64) error {
	type run struct{ start, count int64 }
	var runs []run
	for blk := first; blk <= last; blk++ {
		if _, ok := b.store.cache.Get(blockKey{b.name, blk}); ok {
			continue
		}
		if n := len(runs); n > 0 && runs[n-1].start+runs[n-1].count == blk {
			runs[n-1].count++
		} else {
			runs = append(runs, run{start: blk, count: 1})
		}
	}

	bs := b.store.blockSize
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, r := range runs {
		g.Go(func() error {
			start := r.start * bs
			length := min(r.count*bs, b.Size()-start)
			buf := make([]byte, length)
			n, err := b.inner.ReadAt(gctx, buf, start)
			if err != nil && !errors.Is(err, io.EOF) {
				return err
			}
			buf = buf[:n]
			for i := int64(0); i < r.count && i*bs < int64(len(buf)); i++ {
				chunk := buf[i*bs : min((i+1)*bs, int64(len(buf)))]
				b.store.cache.Set(blockKey{b.name, r.start + i}, chunk)
			}
			return nil
		})
	}
	return g.Wait()
}

// block returns one block, reading it if it was evicted since fill.
func (b *cachingBlob) block(ctx context.Context, blk int64) ([]byte, error) {
	if data, ok := b.store.cache.Get(blockKey{b.name, blk}); ok {
		return data, nil
	}
	bs := b.store.blockSize
	start := blk * bs
	buf := make([]byte, min(bs, b.Size()-start))
	n, err := b.inner.ReadAt(ctx, buf, start)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	b.store.cache.Set(blockKey{b.name, blk}, buf[:n])
	return buf[:n], nil
}

func (b *cachingBlob) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	return io.NopCloser(io.NewSectionReader(readerAt{ctx: ctx, b: b}, off, length)), nil
}

// readerAt adapts a Blob to io.ReaderAt for a fixed context.
type readerAt struct {
	ctx context.Context
	b   Blob
}

func (r readerAt) ReadAt(p []byte, off int64) (int, error) {
	return r.b.ReadAt(r.ctx, p, off)
}
