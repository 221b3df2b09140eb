// Package kmeans implements seeded k-means clustering of feature vectors.
//
// Training is deterministic for a given seed. The cluster-derived distance
// method uses the trained centroids as a coarse proxy for phoneme distance.
package kmeans
