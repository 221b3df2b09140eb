package matrixio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/hupe1980/phonodist/align"
	"github.com/hupe1980/phonodist/blobstore"
)

// EncodeAlignments writes results as an indented JSON list.
func EncodeAlignments(w io.Writer, results []*align.Result) error {
	if results == nil {
		results = []*align.Result{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(results)
}

// DecodeAlignments reads a JSON list of alignment results.
func DecodeAlignments(r io.Reader) ([]*align.Result, error) {
	var results []*align.Result
	if err := json.NewDecoder(r).Decode(&results); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	for i, res := range results {
		if res == nil || len(res.Seq1) != len(res.Seq2) {
			return nil, fmt.Errorf("%w: alignment %d has unequal sequences", ErrFormat, i)
		}
	}
	return results, nil
}

// SaveAlignments writes results to the blob name of store.
func SaveAlignments(ctx context.Context, store blobstore.Store, name string, results []*align.Result) error {
	return blobstore.Write(ctx, store, name, func(w io.Writer) error {
		return EncodeAlignments(w, results)
	})
}

// LoadAlignments reads results from the blob name of store.
func LoadAlignments(ctx context.Context, store blobstore.Store, name string, optFns ...func(o *Options)) ([]*align.Result, error) {
	data, err := readBlob(ctx, store, name, applyOptions(optFns).WrapReader)
	if err != nil {
		return nil, err
	}
	return DecodeAlignments(bytes.NewReader(data))
}
