package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/phonodist/blobstore"
	"github.com/hupe1980/phonodist/config"
	"github.com/hupe1980/phonodist/matrixio"
)

const table = "phoneme\tname\talias\tsyllabic\tconsonantal\tvoice\tcontinuant\n" +
	"p\tvoiceless bilabial stop\tp\t-\t+\t-\t-\n" +
	"b\tvoiced bilabial stop\tb\t-\t+\t+\t-\n" +
	"t\tvoiceless alveolar stop\tt\t-\t+\t-\t-\n" +
	"d\tvoiced alveolar stop\td\t-\t+\t+\t-\n" +
	"a\topen vowel\ta\t+\t-\t+\t+\n"

func configStorage(backend string) config.Storage {
	return config.Storage{Backend: backend}
}

type harness struct {
	root  string
	table string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	root := t.TempDir()
	path := filepath.Join(root, "table.tsv")
	require.NoError(t, os.WriteFile(path, []byte(table), 0o644))
	return &harness{root: root, table: path}
}

// run executes a command with the fixture table and the harness root as
// local storage. Common flags go between the command and its arguments.
func (h *harness) run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	full := append([]string{args[0], "-table", h.table, "-root", h.root}, args[1:]...)
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), full, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Usage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 2, run(context.Background(), nil, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "usage: phonodist")
	assert.Contains(t, stderr.String(), "cognates")

	stderr.Reset()
	assert.Equal(t, 2, run(context.Background(), []string{"nope"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), `unknown command "nope"`)

	stderr.Reset()
	assert.Equal(t, 0, run(context.Background(), []string{"distance", "-h"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "-clusters")
}

func TestRun_Distance(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"default", []string{"distance", "p", "b"}, "0.2500\n"},
		{"raw", []string{"distance", "-raw", "p", "b"}, "1.0000\n"},
		{"precision", []string{"distance", "-precision", "1", "p", "a"}, "1.0\n"},
		{"method", []string{"distance", "-method", "manhattan", "-raw", "p", "a"}, "8.0000\n"},
		{"kmeans", []string{"distance", "-method", "kmeans", "-clusters", "2", "p", "t"}, "0.0000\n"},
		{"missing", []string{"distance", "p", "x"}, "missing\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := h.run(t, tt.args...)
			require.Equal(t, 0, code, stderr)
			assert.Equal(t, tt.want, stdout)
		})
	}

	t.Run("raise", func(t *testing.T) {
		code, _, stderr := h.run(t, "distance", "-on-error", "raise", "p", "x")
		assert.Equal(t, 1, code)
		assert.Contains(t, stderr, `phoneme "x" not found`)
	})

	t.Run("arguments", func(t *testing.T) {
		code, _, stderr := h.run(t, "distance", "p")
		assert.Equal(t, 1, code)
		assert.Contains(t, stderr, "wrong number of arguments")
	})

	t.Run("invalid flag value", func(t *testing.T) {
		code, _, _ := h.run(t, "distance", "-on-error", "explode", "p", "b")
		assert.Equal(t, 2, code)
	})
}

func TestRun_CustomSystem(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(h.root, "vowels.csv")
	require.NoError(t, os.WriteFile(path, []byte("phoneme,high,back\ni,1,-1\na,-1,1\nə,0,0\n"), 0o644))

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"hamming", []string{"distance", "-custom", "vowels=" + path, "-system", "vowels", "-raw", "i", "a"}, "2.0000\n"},
		{"manhattan", []string{"distance", "-custom", "vowels=" + path, "-system", "vowels", "-method", "manhattan", "-raw", "i", "a"}, "4.0000\n"},
		{"undefined cells", []string{"distance", "-custom", "vowels=" + path, "-system", "vowels", "-method", "manhattan", "-raw", "i", "ə"}, "2.0000\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := h.run(t, tt.args...)
			require.Equal(t, 0, code, stderr)
			assert.Equal(t, tt.want, stdout)
		})
	}

	t.Run("malformed flag", func(t *testing.T) {
		code, _, stderr := h.run(t, "distance", "-custom", "vowels", "i", "a")
		assert.Equal(t, 2, code)
		assert.Contains(t, stderr, "want name=path")
	})

	t.Run("missing file", func(t *testing.T) {
		code, _, _ := h.run(t, "distance", "-custom", "vowels="+filepath.Join(h.root, "nope.csv"), "i", "a")
		assert.Equal(t, 2, code)
	})
}

func TestRun_Normalize(t *testing.T) {
	h := newHarness(t)
	code, stdout, _ := h.run(t, "normalize", "-check", " P ", "ʃa")
	require.Equal(t, 0, code)
	assert.Equal(t, "p\tfalse\nʃa\ttrue\n", stdout)
}

func TestRun_Lookup(t *testing.T) {
	h := newHarness(t)
	code, stdout, _ := h.run(t, "lookup", "-csv", "a")
	require.Equal(t, 0, code)
	assert.Equal(t, "phoneme,syllabic,consonantal,voice,continuant\na,+,-,+,+\n", stdout)
}

func TestRun_Matrix(t *testing.T) {
	h := newHarness(t)

	code, stdout, _ := h.run(t, "matrix", "-format", "csv", "p", "b")
	require.Equal(t, 0, code)
	assert.Equal(t, ",p,b\np,0.0000,0.2500\nb,0.2500,0.0000\n", stdout)

	code, _, stderr := h.run(t, "matrix", "-o", "out/all.bin", "-compression", "lz4")
	require.Equal(t, 0, code, stderr)

	m, err := matrixio.Load(context.Background(), blobstore.NewLocalStore(h.root), "out/all.bin")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "d", "p", "t"}, m.Labels())
	d, ok := m.Get("p", "b")
	require.True(t, ok)
	assert.Equal(t, 0.25, d)

	code, _, _ = h.run(t, "matrix", "-format", "npz", "p")
	assert.Equal(t, 1, code)
}

func TestRun_Align(t *testing.T) {
	h := newHarness(t)

	for i := 0; i < 2; i++ {
		code, stdout, stderr := h.run(t, "align", "-o", "alignments.json", "p a t", "b a")
		require.Equal(t, 0, code, stderr)
		assert.True(t, strings.HasSuffix(stdout, "p a t\nb a -\n"), stdout)
	}

	results, err := matrixio.LoadAlignments(context.Background(), blobstore.NewLocalStore(h.root), "alignments.json")
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestRun_Cognates(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, os.WriteFile(filepath.Join(h.root, "cognates.tsv"), []byte(
		"concept\tlanguage\tsegments\tcognacy\n"+
			"two\tA\tt a\t1\n"+
			"two\tB\td a\t1\n"+
			"father\tA\tp a\t2\n"+
			"father\tB\tb a\t2\n"), 0o644))

	code, stdout, stderr := h.run(t, "cognates", "-delimiter", "\t", "cognates.tsv")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, `"n_cognate_sets": 2`)
	assert.Contains(t, stdout, `"has_threshold": true`)

	code, _, _ = h.run(t, "cognates", "missing.csv")
	assert.Equal(t, 1, code)
}

func TestRun_Methods(t *testing.T) {
	h := newHarness(t)
	code, stdout, _ := h.run(t, "methods")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "hamming\tbuiltin\n")
	assert.Contains(t, stdout, "kmeans\tbuiltin\n")
}

func TestRun_ConfigAndMetrics(t *testing.T) {
	h := newHarness(t)
	cfg := filepath.Join(h.root, "phonodist.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("default_distance_method: euclidean\ndefault_normalize: false\ndefault_precision: 2\n"), 0o644))
	metrics := filepath.Join(h.root, "phonodist.prom")

	code, stdout, stderr := h.run(t, "distance", "-config", cfg, "-metrics-out", metrics, "p", "b")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "2.00\n", stdout)

	data, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(data), `phonodist_distance_computations_total{method="euclidean",status="ok"} 1`)

	t.Run("invalid config", func(t *testing.T) {
		bad := filepath.Join(h.root, "bad.yaml")
		require.NoError(t, os.WriteFile(bad, []byte("cache_size: 0\n"), 0o644))
		code, _, _ := h.run(t, "distance", "-config", bad, "p", "b")
		assert.Equal(t, 2, code)
	})
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	s, err := openStore(ctx, configStorage("memory"))
	require.NoError(t, err)
	assert.IsType(t, &blobstore.MemoryStore{}, s)

	s, err = openStore(ctx, configStorage(""))
	require.NoError(t, err)
	assert.IsType(t, &blobstore.LocalStore{}, s)

	_, err = openStore(ctx, configStorage("s3"))
	assert.ErrorContains(t, err, "needs a bucket")

	_, err = openStore(ctx, configStorage("minio"))
	assert.ErrorContains(t, err, "needs an endpoint")
}
