// Package phonodist computes distances between phonemes from their
// phonological feature vectors and aligns phoneme sequences with those
// distances.
//
// An Engine owns everything a computation needs:
//
//   - Feature systems: an embedded default table plus any number of named
//     custom tables (see the feature package)
//   - A registry of distance methods: hamming, jaccard, euclidean, cosine,
//     manhattan, a cluster-derived kmeans method and user functions
//   - A bounded LRU cache of computed distances
//   - Needleman-Wunsch alignment with distances as substitution costs
//
// # Quick Start
//
//	ctx := context.Background()
//	e, err := phonodist.New(
//	    phonodist.WithDefaultMethod("hamming"),
//	    phonodist.WithCacheSize(4096),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	d, _, err := e.Distance(ctx, "p", "b")
//
// Distance matrices use a fluent builder:
//
//	m, err := e.Matrix("p", "b", "t", "d").
//	    Method("euclidean").
//	    Build(ctx)
//
// Alignment and cognate statistics:
//
//	r, err := e.Align(ctx, []string{"h", "a", "n", "t"}, []string{"h", "æ", "n", "d"})
//	stats, err := e.OptimizeFromCognates(ctx, corpus.Sequences())
//
// # Missing phonemes
//
// Lookups and distances take an OnError policy (feature.Raise, feature.Warn
// or feature.Ignore). Raise returns a PhonemeNotFoundError; the other two
// report an absent result, Warn after logging. Matrix builds and alignments
// never fail on a missing phoneme: matrices use the maximum distance and
// alignments a fixed fallback cost.
//
// Persistence of matrices and alignments lives in the matrixio package,
// storage backends in blobstore, and file/env configuration in config.
// Engine.SaveMatrix and Engine.SaveAlignments write through the engine's
// IO rate limit (WithIOLimit).
package phonodist
