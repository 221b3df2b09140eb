package phonodist

import (
	"context"
	"io"

	"github.com/hupe1980/phonodist/align"
	"github.com/hupe1980/phonodist/blobstore"
	"github.com/hupe1980/phonodist/internal/resource"
	"github.com/hupe1980/phonodist/matrix"
	"github.com/hupe1980/phonodist/matrixio"
)

// ErrFormat is returned for malformed persisted matrices and alignments.
var ErrFormat = matrixio.ErrFormat

// throttle charges persistence reads and writes to the IO limit.
func (e *Engine) throttle(ctx context.Context) func(o *matrixio.Options) {
	return func(o *matrixio.Options) {
		o.WrapWriter = func(w io.Writer) io.Writer {
			return resource.NewRateLimitedWriter(ctx, w, e.rc)
		}
		o.WrapReader = func(r io.Reader) io.Reader {
			return resource.NewRateLimitedReader(ctx, r, e.rc)
		}
	}
}

// SaveMatrix writes m to the blob name of store in format f. Writes are
// throttled by WithIOLimit.
//
// Example:
//
//	m, _ := e.Matrix().Method("hamming").Build(ctx)
//	err := e.SaveMatrix(ctx, store, "matrices/hamming.bin", m, matrixio.Binary,
//		func(o *matrixio.Options) { o.Compression = matrixio.CompressionLZ4 })
func (e *Engine) SaveMatrix(ctx context.Context, store blobstore.Store, name string, m *matrix.Matrix, f matrixio.Format, optFns ...func(o *matrixio.Options)) error {
	optFns = append([]func(o *matrixio.Options){e.throttle(ctx)}, optFns...)
	err := matrixio.Save(ctx, store, name, m, f, optFns...)
	e.logger.LogPersist(ctx, "matrix saved", name, f.String(), err)
	return err
}

// LoadMatrix reads a matrix from the blob name of store, detecting its
// format from the name and content. Reads are throttled by WithIOLimit.
func (e *Engine) LoadMatrix(ctx context.Context, store blobstore.Store, name string) (*matrix.Matrix, error) {
	m, err := matrixio.Load(ctx, store, name, e.throttle(ctx))
	e.logger.LogPersist(ctx, "matrix loaded", name, "", err)
	return m, err
}

// SaveAlignments writes alignment results as a JSON list.
func (e *Engine) SaveAlignments(ctx context.Context, store blobstore.Store, name string, results []*align.Result) error {
	err := blobstore.Write(ctx, store, name, func(w io.Writer) error {
		return matrixio.EncodeAlignments(resource.NewRateLimitedWriter(ctx, w, e.rc), results)
	})
	e.logger.LogPersist(ctx, "alignments saved", name, matrixio.JSON.String(), err)
	return err
}

// LoadAlignments reads alignment results written by SaveAlignments.
func (e *Engine) LoadAlignments(ctx context.Context, store blobstore.Store, name string) ([]*align.Result, error) {
	results, err := matrixio.LoadAlignments(ctx, store, name, e.throttle(ctx))
	e.logger.LogPersist(ctx, "alignments loaded", name, matrixio.JSON.String(), err)
	return results, err
}

// ExportFeatures writes the feature rows of phonemes as TSV or CSV. The
// phonemes are normalized first; nil exports the whole system.
func (e *Engine) ExportFeatures(ctx context.Context, w io.Writer, phonemes []string, f matrixio.Format, optFns ...func(o *LookupOptions)) error {
	sys, _, err := e.resolveLookup(ctx, optFns)
	if err != nil {
		return err
	}
	var keys []string
	if phonemes != nil {
		keys = make([]string, len(phonemes))
		for i, p := range phonemes {
			keys[i] = e.normalizer.Normalize(p)
		}
	}
	return translateError(matrixio.EncodeFeatures(w, sys, keys, f))
}
