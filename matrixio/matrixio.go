package matrixio

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/hupe1980/phonodist/blobstore"
	"github.com/hupe1980/phonodist/matrix"
)

// Encode writes m to w in format f.
func Encode(w io.Writer, m *matrix.Matrix, f Format, optFns ...func(o *Options)) error {
	opts := applyOptions(optFns)
	switch f {
	case TSV, CSV:
		return encodeText(w, m, f, opts.Precision)
	case JSON:
		return encodeJSON(w, m, opts.Precision)
	case Binary:
		return encodeBinary(w, m, opts.Compression)
	}
	return fmt.Errorf("%w: unknown format %s", ErrFormat, f)
}

// Decode reads a matrix in format f from r.
func Decode(r io.Reader, f Format) (*matrix.Matrix, error) {
	switch f {
	case TSV, CSV:
		return decodeText(bufio.NewReader(r), f)
	case JSON:
		return decodeJSON(r)
	case Binary:
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		return decodeBinary(data)
	}
	return nil, fmt.Errorf("%w: unknown format %s", ErrFormat, f)
}

// Unmarshal decodes data, detecting the format from name and content.
func Unmarshal(name string, data []byte) (*matrix.Matrix, error) {
	f, err := Detect(name, data)
	if err != nil {
		return nil, err
	}
	if f == Binary {
		return decodeBinary(data)
	}
	return Decode(bytes.NewReader(data), f)
}

// Save writes m to the blob name of store.
func Save(ctx context.Context, store blobstore.Store, name string, m *matrix.Matrix, f Format, optFns ...func(o *Options)) error {
	opts := applyOptions(optFns)
	return blobstore.Write(ctx, store, name, func(w io.Writer) error {
		if opts.WrapWriter != nil {
			w = opts.WrapWriter(w)
		}
		bw := bufio.NewWriter(w)
		if err := Encode(bw, m, f, func(o *Options) { *o = opts }); err != nil {
			return err
		}
		return bw.Flush()
	})
}

// Load reads the blob name of store, detecting its format. Only
// Options.WrapReader applies.
func Load(ctx context.Context, store blobstore.Store, name string, optFns ...func(o *Options)) (*matrix.Matrix, error) {
	data, err := readBlob(ctx, store, name, applyOptions(optFns).WrapReader)
	if err != nil {
		return nil, err
	}
	m, err := Unmarshal(name, data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	return m, nil
}

func readBlob(ctx context.Context, store blobstore.Store, name string, wrap func(io.Reader) io.Reader) ([]byte, error) {
	if wrap == nil {
		return blobstore.ReadAll(ctx, store, name)
	}
	b, err := store.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer b.Close()

	rc, err := b.ReadRange(ctx, 0, b.Size())
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(wrap(rc))
}
