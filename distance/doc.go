// Package distance computes distances between phoneme feature vectors.
//
// # Builtin Methods
//
//   - hamming: number of differing features
//   - jaccard: 1 - |P(u) ∩ P(v)| / |P(u) ∪ P(v)| over the positive-feature sets
//   - euclidean: L2 norm of u - v
//   - cosine: 1 - cosine similarity
//   - manhattan: L1 norm of u - v
//   - kmeans: inter-centroid distance of the phonemes' clusters
//
// Ternary values are mapped to {-1, 0, 1}. With normalization every builtin
// result lies in [0, 1]: hamming divides by N, euclidean by 2·sqrt(N) and
// manhattan by 2N (the largest value each can take over N ternary features),
// while jaccard and cosine are self-normalizing.
//
// User functions are registered as Custom methods next to the builtins in a
// Registry. Registering an existing name replaces it.
//
// # Usage
//
//	reg := distance.NewRegistry()
//	m, _ := reg.Lookup("hamming")
//	d, _ := m.Compute(u, v, true)
package distance
