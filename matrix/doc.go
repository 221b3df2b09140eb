// Package matrix holds symmetric distance matrices over labeled phonemes.
//
// A Matrix stores a dense n×n array with a zero diagonal. Writes go through
// Set, which writes both (i, j) and (j, i), so the matrix stays symmetric.
// Unnormalized matrices may hold +Inf for phonemes missing from the table.
package matrix
