// Package resource bounds the resources used while building matrices and
// writing them out.
//
// A Controller manages three limits:
//
//   - Memory: matrix buffers are reserved before allocation (non-blocking, fail-fast)
//   - Workers: the number of goroutines computing matrix rows
//   - IO: a token bucket shared by every writer and reader that persists matrices
//
// Rows of a matrix build hold a worker slot while they run.
//
// Usage:
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes:   64 << 20,
//	    Workers:            4,
//	    IOLimitBytesPerSec: 8 << 20,
//	})
//
//	if err := rc.AcquireMemory(n * n * 8); err != nil {
//	    return err // ErrMemoryLimitExceeded
//	}
//	defer rc.ReleaseMemory(n * n * 8)
//
//	w := resource.NewRateLimitedWriter(ctx, file, rc)
//
// All methods are safe for concurrent use and treat a nil Controller as
// unlimited.
package resource
