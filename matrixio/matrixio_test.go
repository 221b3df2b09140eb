package matrixio

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/phonodist/align"
	"github.com/hupe1980/phonodist/blobstore"
	"github.com/hupe1980/phonodist/feature"
	"github.com/hupe1980/phonodist/matrix"
)

func fixture(t *testing.T) *matrix.Matrix {
	t.Helper()
	m, err := matrix.FromRows([]string{"p", "b", "a"}, [][]float64{
		{0, 0.25, 1},
		{0.25, 0, 0.75},
		{1, 0.75, 0},
	})
	require.NoError(t, err)
	return m
}

func unbounded(t *testing.T) *matrix.Matrix {
	t.Helper()
	m := matrix.New([]string{"p", "x", "ʃ"})
	m.Set(0, 1, math.Inf(1))
	m.Set(0, 2, 2)
	m.Set(1, 2, math.Inf(1))
	return m
}

func TestEncode_TSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, fixture(t), TSV))
	assert.Equal(t, "\tp\tb\ta\n"+
		"p\t0.0000\t0.2500\t1.0000\n"+
		"b\t0.2500\t0.0000\t0.7500\n"+
		"a\t1.0000\t0.7500\t0.0000\n", buf.String())
}

func TestEncode_Precision(t *testing.T) {
	m := matrix.New([]string{"p", "b"})
	m.Set(0, 1, 1.0/3)

	tests := []struct {
		prec int
		want string
	}{
		{2, ",p,b\np,0.00,0.33\nb,0.33,0.00\n"},
		{0, ",p,b\np,0,0\nb,0,0\n"},
		{-1, ",p,b\np,0,0.3333333333333333\nb,0.3333333333333333,0\n"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.prec), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, m, CSV, func(o *Options) { o.Precision = tt.prec }))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestRoundTrip(t *testing.T) {
	formats := []Format{TSV, CSV, JSON, Binary}

	for _, f := range formats {
		t.Run(f.String(), func(t *testing.T) {
			for name, m := range map[string]*matrix.Matrix{"finite": fixture(t), "unbounded": unbounded(t)} {
				var buf bytes.Buffer
				require.NoError(t, Encode(&buf, m, f))

				got, err := Decode(bytes.NewReader(buf.Bytes()), f)
				require.NoError(t, err, name)
				assert.Equal(t, m.Labels(), got.Labels(), name)
				assert.Equal(t, m.Rows(), got.Rows(), name)
			}
		})
	}
}

func TestEncode_TextUnbounded(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, unbounded(t), TSV))
	assert.Contains(t, buf.String(), "p\t0.0000\tinf\t2.0000\n")
}

func TestEncode_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, unbounded(t), JSON))
	assert.Contains(t, buf.String(), `"ʃ"`)

	var doc struct {
		Phonemes []string     `json:"phonemes"`
		Matrix   [][]*float64 `json:"matrix"`
		Metadata map[string]any
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, []string{"p", "x", "ʃ"}, doc.Phonemes)
	assert.Nil(t, doc.Matrix[0][1])
	require.NotNil(t, doc.Matrix[0][2])
	assert.Equal(t, 2.0, *doc.Matrix[0][2])
	assert.Equal(t, 3.0, doc.Metadata["size"])
	assert.Equal(t, true, doc.Metadata["symmetric"])
	assert.Equal(t, 2.0, doc.Metadata["max"])
}

func TestEncode_JSONRounds(t *testing.T) {
	m := matrix.New([]string{"p", "b"})
	m.Set(0, 1, 1.0/3)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, m, JSON))

	got, err := Decode(&buf, JSON)
	require.NoError(t, err)
	assert.Equal(t, 0.3333, got.At(0, 1))
}

func TestBinary(t *testing.T) {
	labels := make([]string, 40)
	for i := range labels {
		labels[i] = fmt.Sprintf("p%d", i)
	}
	m := matrix.New(labels)
	for i := range labels {
		for j := i + 1; j < len(labels); j++ {
			m.Set(i, j, 0.5)
		}
	}

	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		t.Run(c.String(), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, m, Binary, func(o *Options) { o.Compression = c }))
			data := buf.Bytes()

			assert.Equal(t, magic[:], data[:4])
			assert.Equal(t, byte(c), data[5])
			compressed := binary.LittleEndian.Uint32(data[10:14])
			if c == CompressionNone {
				assert.Zero(t, compressed)
			} else {
				assert.NotZero(t, compressed)
			}

			got, err := Unmarshal("matrix", data)
			require.NoError(t, err)
			assert.Equal(t, m.Rows(), got.Rows())
		})
	}

	t.Run("checksum", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Encode(&buf, fixture(t), Binary))
		data := buf.Bytes()
		data[len(data)-1] ^= 0xff

		_, err := Decode(bytes.NewReader(data), Binary)
		assert.ErrorIs(t, err, ErrFormat)
	})

	t.Run("truncated", func(t *testing.T) {
		_, err := Decode(bytes.NewReader(magic[:]), Binary)
		assert.ErrorIs(t, err, ErrFormat)
	})
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		f     Format
	}{
		{"empty", "", TSV},
		{"missing rows", "\tp\tb\np\t0\t1\n", TSV},
		{"short row", ",p,b\np,0\nb,1,0\n", CSV},
		{"bad cell", ",p,b\np,0,x\nb,x,0\n", CSV},
		{"bad json", "{", JSON},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.input), tt.f)
			assert.ErrorIs(t, err, ErrFormat)
		})
	}

	_, err := Decode(strings.NewReader(",p,b\np,0,1\nb,2,0\n"), CSV)
	assert.ErrorIs(t, err, matrix.ErrNotSymmetric)
}

func TestDecode_HeaderWithoutCorner(t *testing.T) {
	m, err := Decode(strings.NewReader("p\tb\n0\t1\n1\t0\n"), TSV)
	require.NoError(t, err)
	assert.Equal(t, []string{"p", "b"}, m.Labels())
	assert.Equal(t, 1.0, m.At(0, 1))
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		head string
		want Format
	}{
		{"m.tsv", "", TSV},
		{"m.CSV", "", CSV},
		{"dir/m.json", "", JSON},
		{"m.bin", "", Binary},
		{"m.txt", "\tp\tb\n", TSV},
		{"m.txt", ",p,b\n", CSV},
		{"m", "  {\"phonemes\": []}", JSON},
		{"m", "PDMX\x01\x02", Binary},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Detect(tt.name, []byte(tt.head))
			require.NoError(t, err)
			assert.Equal(t, tt.want, f)
		})
	}

	_, err := Detect("m.txt", []byte("p b"))
	assert.ErrorIs(t, err, ErrFormat)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("Binary")
	require.NoError(t, err)
	assert.Equal(t, Binary, f)
	assert.Equal(t, ".bin", f.Ext())

	_, err = ParseFormat("npz")
	assert.ErrorIs(t, err, ErrFormat)

	c, err := ParseCompression("LZ4")
	require.NoError(t, err)
	assert.Equal(t, CompressionLZ4, c)
}

func TestSaveLoad(t *testing.T) {
	ctx := context.Background()
	stores := map[string]blobstore.Store{
		"memory": blobstore.NewMemoryStore(),
		"local":  blobstore.NewLocalStore(t.TempDir()),
	}

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			for _, f := range []Format{TSV, CSV, JSON, Binary} {
				blob := "matrices/stops" + f.Ext()

				var wrapped int
				require.NoError(t, Save(ctx, store, blob, unbounded(t), f, func(o *Options) {
					o.WrapWriter = func(w io.Writer) io.Writer {
						wrapped++
						return w
					}
				}))
				assert.Equal(t, 1, wrapped)

				got, err := Load(ctx, store, blob)
				require.NoError(t, err, blob)
				assert.Equal(t, unbounded(t).Rows(), got.Rows(), blob)

				raw, err := blobstore.ReadAll(ctx, store, blob)
				require.NoError(t, err)
				var read int
				got, err = Load(ctx, store, blob, func(o *Options) {
					o.WrapReader = func(r io.Reader) io.Reader {
						return &countingReader{r: r, n: &read}
					}
				})
				require.NoError(t, err, blob)
				assert.Equal(t, unbounded(t).Rows(), got.Rows(), blob)
				assert.Equal(t, len(raw), read, blob)
			}

			names, err := store.List(ctx, "matrices/")
			require.NoError(t, err)
			assert.Len(t, names, 4)
		})
	}

	_, err := Load(ctx, blobstore.NewMemoryStore(), "missing.tsv")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestAlignments(t *testing.T) {
	ctx := context.Background()
	results := []*align.Result{
		{Seq1: []string{"p", "a", "t"}, Seq2: []string{"b", "a", align.Gap}, Score: 1.25, NormalizedScore: 0.4167},
	}

	var buf bytes.Buffer
	require.NoError(t, EncodeAlignments(&buf, results))
	assert.Contains(t, buf.String(), `"seq1_aligned"`)
	assert.Contains(t, buf.String(), `"normalized_distance": 0.4167`)

	store := blobstore.NewMemoryStore()
	require.NoError(t, SaveAlignments(ctx, store, "alignments.json", results))
	got, err := LoadAlignments(ctx, store, "alignments.json")
	require.NoError(t, err)
	assert.Equal(t, results, got)

	buf.Reset()
	require.NoError(t, EncodeAlignments(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())

	_, err = DecodeAlignments(strings.NewReader(`[{"seq1_aligned":["p"],"seq2_aligned":[]}]`))
	assert.ErrorIs(t, err, ErrFormat)
}

func TestEncodeFeatures(t *testing.T) {
	sys, err := feature.NewSystem("stops", []string{"voice", "labial"}, []feature.Entry{
		{Phoneme: "p", Vector: feature.Vector{feature.Negative, feature.Positive}},
		{Phoneme: "b", Vector: feature.Vector{feature.Positive, feature.Positive}},
		{Phoneme: "ʔ", Vector: feature.Vector{feature.Negative, feature.Undefined}},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, EncodeFeatures(&buf, sys, []string{"p", "ʔ"}, TSV))
	assert.Equal(t, "phoneme\tvoice\tlabial\np\t-\t+\nʔ\t-\t0\n", buf.String())

	t.Run("custom reload", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, EncodeFeatures(&buf, sys, nil, CSV))
		back, err := feature.ReadCustomTable("stops", &buf, feature.CustomOptions{})
		require.NoError(t, err)
		assert.Equal(t, sys.Phonemes(), back.Phonemes())

		// custom tables read "-" as undefined
		want := map[string]feature.Vector{
			"p": {feature.Undefined, feature.Positive},
			"b": {feature.Positive, feature.Positive},
			"ʔ": {feature.Undefined, feature.Undefined},
		}
		for p, w := range want {
			got, ok := back.Vector(p)
			require.True(t, ok, p)
			assert.Equal(t, w, got, p)
		}
	})

	t.Run("missing phoneme", func(t *testing.T) {
		err := EncodeFeatures(&bytes.Buffer{}, sys, []string{"x"}, CSV)
		assert.ErrorIs(t, err, feature.ErrNotFound)
	})

	t.Run("wrong format", func(t *testing.T) {
		err := EncodeFeatures(&bytes.Buffer{}, sys, nil, JSON)
		assert.ErrorIs(t, err, ErrFormat)
	})
}

type countingReader struct {
	r io.Reader
	n *int
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	*c.n += n
	return n, err
}
