// Package normalize canonicalizes phonetic transcriptions before they are used
// as feature-table lookup keys.
//
// # Pipeline
//
// Normalization always runs the same fixed sequence of steps:
//
//  1. strip surrounding whitespace
//  2. lowercase
//  3. Unicode canonical decomposition (NFD)
//  4. length-mark unification (":" -> "ː", "::" -> "ːː")
//  5. optional IPA substitutions and affricate decomposition
//  6. tone-mark and tone-letter removal (unless tones are preserved)
//  7. diacritic reordering by a fixed priority list
//  8. tie-bar canonicalization (a single U+0361 between the joined symbols)
//
// The diacritic priority places syllabicity and voicing marks closest to the
// base character, then secondary articulation marks, then tone marks, then
// post-base modifier letters. Unknown combining marks sort after every known
// one and keep their relative order.
//
// Normalize is total and idempotent:
//
//	n := normalize.New()
//	n.Normalize(" T͜S: ")  // "t͡sː"
//	n.Normalize(n.Normalize(x)) == n.Normalize(x)
package normalize
