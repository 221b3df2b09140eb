package matrixio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

// ErrFormat is returned for malformed or unrecognized input.
var ErrFormat = errors.New("matrixio: invalid format")

// Format identifies a matrix encoding.
type Format uint8

const (
	// TSV is the tab separated UNIPA layout.
	TSV Format = iota
	// CSV is the comma separated layout.
	CSV
	// JSON is the object layout with metadata.
	JSON
	// Binary is the compressed binary layout.
	Binary
)

// String returns the canonical name of f.
func (f Format) String() string {
	switch f {
	case TSV:
		return "tsv"
	case CSV:
		return "csv"
	case JSON:
		return "json"
	case Binary:
		return "bin"
	default:
		return fmt.Sprintf("Format(%d)", uint8(f))
	}
}

// Ext returns the file extension for f, including the dot.
func (f Format) Ext() string { return "." + f.String() }

// ParseFormat parses a format name. "binary" is accepted as an alias of "bin".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tsv":
		return TSV, nil
	case "csv":
		return CSV, nil
	case "json":
		return JSON, nil
	case "bin", "binary":
		return Binary, nil
	}
	return 0, fmt.Errorf("%w: unknown format %q", ErrFormat, s)
}

// Detect guesses the format of a named payload, first by extension and then
// by content.
func Detect(name string, head []byte) (Format, error) {
	if f, err := ParseFormat(strings.TrimPrefix(path.Ext(name), ".")); err == nil {
		return f, nil
	}
	if bytes.HasPrefix(head, magic[:]) {
		return Binary, nil
	}
	first := head
	if i := bytes.IndexByte(first, '\n'); i >= 0 {
		first = first[:i]
	}
	switch {
	case bytes.HasPrefix(bytes.TrimSpace(first), []byte("{")):
		return JSON, nil
	case bytes.IndexByte(first, '\t') >= 0:
		return TSV, nil
	case bytes.IndexByte(first, ',') >= 0:
		return CSV, nil
	}
	return 0, fmt.Errorf("%w: cannot detect format of %q", ErrFormat, name)
}

// DefaultPrecision is the number of decimals written by text formats.
const DefaultPrecision = 4

// Options configures encoding.
type Options struct {
	// Precision is the number of decimals for TSV, CSV and JSON cells.
	// A negative value writes the shortest exact representation.
	Precision int

	// Compression selects the binary block codec.
	Compression Compression

	// WrapWriter, if set, wraps the destination writer of Save. It is used
	// to throttle persistence.
	WrapWriter func(io.Writer) io.Writer

	// WrapReader, if set, wraps the blob reader of Load and LoadAlignments.
	WrapReader func(io.Reader) io.Reader
}

func defaultOptions() Options {
	return Options{
		Precision:   DefaultPrecision,
		Compression: CompressionZSTD,
	}
}

func applyOptions(optFns []func(o *Options)) Options {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return opts
}
