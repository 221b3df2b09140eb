// Package matrixio reads and writes distance matrices, alignment results and
// feature exports.
//
// Matrices are stored in one of four formats:
//
//   - TSV: the UNIPA layout, a header row with an empty corner cell followed
//     by one labelled row per phoneme.
//   - CSV: the same layout with comma separators.
//   - JSON: an object with "phonemes", "matrix" and "metadata" keys.
//   - Binary: a self-describing block compressed with zstd or lz4 and
//     guarded by a CRC32-C checksum.
//
// Text formats write unbounded cells as "inf" and JSON writes them as null;
// both read back as +Inf. Save and Load target any blobstore.Store.
package matrixio
