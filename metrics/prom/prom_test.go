package prom_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/phonodist"
	"github.com/hupe1980/phonodist/feature"
	"github.com/hupe1980/phonodist/metrics/prom"
)

var _ phonodist.MetricsCollector = (*prom.Collector)(nil)

const table = "phoneme\tname\talias\tvoice\tlabial\n" +
	"p\tp\tp\t-\t+\n" +
	"b\tb\tb\t+\t+\n" +
	"a\ta\ta\t+\t-\n"

// sample sums counter values and histogram sample counts of a family,
// restricted to series carrying every given label pair.
func sample(t *testing.T, g prometheus.Gatherer, name string, labels ...string) float64 {
	t.Helper()
	mfs, err := g.Gather()
	require.NoError(t, err)

	var total float64
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
	series:
		for _, m := range mf.GetMetric() {
			have := map[string]string{}
			for _, lp := range m.GetLabel() {
				have[lp.GetName()] = lp.GetValue()
			}
			for i := 0; i+1 < len(labels); i += 2 {
				if have[labels[i]] != labels[i+1] {
					continue series
				}
			}
			total += m.GetCounter().GetValue() + float64(m.GetHistogram().GetSampleCount())
		}
	}
	return total
}

func TestCollector(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()

	e, err := phonodist.New(
		phonodist.WithMetricsCollector(prom.New(reg)),
		phonodist.WithFeatureLoader(func(context.Context) (*feature.System, error) {
			return feature.ReadTable(feature.DefaultSystem, strings.NewReader(table))
		}),
	)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, _, err := e.Distance(ctx, "p", "b")
		require.NoError(t, err)
	}
	_, err = e.Align(ctx, []string{"p", "a"}, []string{"b", "a"})
	require.NoError(t, err)
	_, err = e.BuildDistanceMatrix(ctx, []string{"p", "b", "x"})
	require.NoError(t, err)

	tests := []struct {
		metric string
		labels []string
		want   float64
	}{
		{"phonodist_cache_requests_total", []string{"result", "hit"}, 3},
		{"phonodist_cache_requests_total", []string{"result", "miss"}, 4},
		{"phonodist_distance_computations_total", []string{"method", "hamming", "status", "ok"}, 4},
		{"phonodist_distance_duration_seconds", []string{"method", "hamming"}, 4},
		{"phonodist_alignments_total", []string{"status", "ok"}, 1},
		{"phonodist_alignment_duration_seconds", nil, 1},
		{"phonodist_matrix_builds_total", []string{"status", "ok"}, 1},
		{"phonodist_matrix_cells_total", nil, 9},
		{"phonodist_matrix_missing_phonemes_total", nil, 1},
		{"phonodist_matrix_duration_seconds", nil, 1},
	}
	for _, tt := range tests {
		t.Run(tt.metric+strings.Join(tt.labels, "_"), func(t *testing.T) {
			assert.Equal(t, tt.want, sample(t, reg, tt.metric, tt.labels...))
		})
	}

	t.Run("textfile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "phonodist.prom")
		require.NoError(t, prometheus.WriteToTextfile(path, reg))
	})
}

func TestCollector_Errors(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prom.New(reg)

	c.RecordMatrix(4, 0, 0, assert.AnError)
	c.RecordAlignment(0, assert.AnError)
	c.RecordDistance("cosine", 0, assert.AnError)

	assert.Equal(t, 1.0, sample(t, reg, "phonodist_matrix_builds_total", "status", "error"))
	assert.Zero(t, sample(t, reg, "phonodist_matrix_cells_total"))
	assert.Equal(t, 1.0, sample(t, reg, "phonodist_alignments_total", "status", "error"))
	assert.Equal(t, 1.0, sample(t, reg, "phonodist_distance_computations_total", "method", "cosine", "status", "error"))
}
