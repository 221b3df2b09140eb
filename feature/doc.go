// Package feature maps normalized phonemes to ternary feature vectors.
//
// A System is an immutable table: every phoneme has a Vector whose length
// and order follow the system's FeatureNames. Systems are built from
// delimited tables with ReadTable (standard layout) or ReadCustomTable
// (named phoneme column, free-form cells), and are owned by a Registry that
// lazily loads the embedded default table once.
//
// Besides forward lookup, a System supports reverse lookup from a partial
// feature set, constraint matching over roaring posting lists, and the
// minimal/shared feature sets of a phoneme class.
package feature
