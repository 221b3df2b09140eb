package matrixio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/hupe1980/phonodist/internal/hash"
	"github.com/hupe1980/phonodist/matrix"
)

// Binary layout:
//
//	magic    [4]byte "PDMX"
//	version  uint8
//	codec    uint8 (Compression)
//	block    [UncompressedSize uint32][CompressedSize uint32][Data...]
//	checksum uint32 CRC32-C of the uncompressed payload
//
// The payload holds uvarint n, n labels as uvarint length plus UTF-8 bytes,
// and the n(n-1)/2 upper-triangle cells as little-endian float64 bits.
var magic = [4]byte{'P', 'D', 'M', 'X'}

const (
	binaryVersion = 1
	preambleSize  = len(magic) + 2
)

func encodeBinary(w io.Writer, m *matrix.Matrix, c Compression) error {
	labels := m.Labels()
	n := len(labels)

	payload := binary.AppendUvarint(nil, uint64(n))
	for _, l := range labels {
		payload = binary.AppendUvarint(payload, uint64(len(l)))
		payload = append(payload, l...)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			payload = binary.LittleEndian.AppendUint64(payload, math.Float64bits(m.At(i, j)))
		}
	}

	block, err := compressBlock(payload, c)
	if err != nil {
		return fmt.Errorf("compress %s: %w", c, err)
	}

	out := make([]byte, 0, preambleSize+len(block)+4)
	out = append(out, magic[:]...)
	out = append(out, binaryVersion, byte(c))
	out = append(out, block...)
	out = binary.LittleEndian.AppendUint32(out, hash.CRC32C(payload))
	_, err = w.Write(out)
	return err
}

func decodeBinary(data []byte) (*matrix.Matrix, error) {
	if len(data) < preambleSize+blockHeaderSize+4 || [4]byte(data[:4]) != magic {
		return nil, fmt.Errorf("%w: not a binary matrix", ErrFormat)
	}
	if v := data[4]; v != binaryVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrFormat, v)
	}
	c := Compression(data[5])

	block := data[preambleSize : len(data)-4]
	payload, err := decompressBlock(block, c)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if want, got := binary.LittleEndian.Uint32(data[len(data)-4:]), hash.CRC32C(payload); want != got {
		return nil, fmt.Errorf("%w: checksum mismatch %08x != %08x", ErrFormat, got, want)
	}

	p := payload
	next := func() (uint64, bool) {
		v, k := binary.Uvarint(p)
		if k <= 0 {
			return 0, false
		}
		p = p[k:]
		return v, true
	}

	n64, ok := next()
	if !ok || n64 > uint64(len(p)) {
		return nil, fmt.Errorf("%w: bad label count", ErrFormat)
	}
	n := int(n64)
	labels := make([]string, n)
	for i := range labels {
		l, ok := next()
		if !ok || l > uint64(len(p)) {
			return nil, fmt.Errorf("%w: bad label %d", ErrFormat, i)
		}
		labels[i] = string(p[:l])
		p = p[l:]
	}
	if want := n * (n - 1) / 2 * 8; len(p) != want {
		return nil, fmt.Errorf("%w: %d cell bytes, want %d", ErrFormat, len(p), want)
	}

	m := matrix.New(labels)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			m.Set(i, j, math.Float64frombits(binary.LittleEndian.Uint64(p)))
			p = p[8:]
		}
	}
	return m, nil
}
