package phonodist

import (
	"context"
	"io"
	"time"

	"github.com/hupe1980/phonodist/align"
	"github.com/hupe1980/phonodist/feature"
)

// AlignOptions configures sequence alignment.
type AlignOptions struct {
	DistanceOptions

	// GapPenalty is charged per gap.
	GapPenalty float64
}

// aligner builds an align.Aligner whose substitution costs are engine
// distances. Missing tokens are never an error; the aligner substitutes its
// fallback cost.
func (e *Engine) aligner(ctx context.Context, optFns []func(o *AlignOptions)) (*align.Aligner, error) {
	o := AlignOptions{DistanceOptions: e.defaults, GapPenalty: e.gapPenalty}
	for _, fn := range optFns {
		fn(&o)
	}
	if o.GapPenalty < 0 {
		return nil, &ConfigError{Field: "gap_penalty", Value: o.GapPenalty}
	}
	if o.Clusters <= 0 {
		return nil, &ConfigError{Field: "clusters", Value: o.Clusters}
	}
	m, err := e.methods.Lookup(o.Method)
	if err != nil {
		return nil, translateError(err)
	}
	sys, err := e.System(ctx, o.System)
	if err != nil {
		return nil, err
	}

	dopts := o.DistanceOptions
	dopts.OnError = feature.Ignore

	oracle := align.OracleFunc(func(ctx context.Context, a, b string) (float64, bool, error) {
		return e.distance(ctx, sys, m, e.Normalize(a), e.Normalize(b), dopts)
	})
	return align.New(oracle, align.Options{GapPenalty: o.GapPenalty, Normalized: o.Normalize}), nil
}

// Align globally aligns two phoneme sequences, minimizing the summed
// distance of aligned pairs plus one gap penalty per gap. Tokens are
// normalized for lookup but reported as given.
//
// Example:
//
//	r, err := e.Align(ctx, []string{"p", "a", "t"}, []string{"b", "a", "d"})
//	fmt.Println(r.NormalizedScore)
func (e *Engine) Align(ctx context.Context, seq1, seq2 []string, optFns ...func(o *AlignOptions)) (*align.Result, error) {
	start := time.Now()
	a, err := e.aligner(ctx, optFns)
	if err != nil {
		return nil, err
	}
	r, err := a.Align(ctx, seq1, seq2)
	e.metrics.RecordAlignment(time.Since(start), err)
	if err != nil {
		e.logger.LogAlignment(ctx, len(seq1), len(seq2), 0, err)
		return nil, err
	}
	e.logger.LogAlignment(ctx, len(seq1), len(seq2), r.NormalizedScore, nil)
	return r, nil
}

// AlignCognateSet returns the mean normalized alignment distance over all
// unordered pairs of a cognate set; 0 for fewer than two sequences.
func (e *Engine) AlignCognateSet(ctx context.Context, set [][]string, optFns ...func(o *AlignOptions)) (float64, error) {
	a, err := e.aligner(ctx, optFns)
	if err != nil {
		return 0, err
	}
	return a.AlignCognateSet(ctx, set)
}

// OptimizeFromCognates derives a cognate decision threshold from intra-set
// and inter-set alignment distances. See align.Aligner.Optimize.
func (e *Engine) OptimizeFromCognates(ctx context.Context, sets [][][]string, optFns ...func(o *AlignOptions)) (*align.Statistics, error) {
	a, err := e.aligner(ctx, optFns)
	if err != nil {
		return nil, err
	}
	s, err := a.Optimize(ctx, sets)
	if err != nil {
		e.logger.LogOptimize(ctx, len(sets), 0, 0, err)
		return nil, err
	}
	e.logger.LogOptimize(ctx, s.Sets, s.IntraPairs, s.InterPairs, nil)
	return s, nil
}

// LoadCognates reads a cognate table; see align.LoadCognates.
func LoadCognates(r io.Reader, opts align.LoadOptions) (align.Corpus, error) {
	c, err := align.LoadCognates(r, opts)
	return c, translateError(err)
}
