package feature

import (
	"fmt"
	"slices"
	"strings"

	"github.com/hupe1980/phonodist/normalize"
)

// DefaultSystem is the name of the built-in feature system.
const DefaultSystem = "default"

// Entry is one row of a feature table.
type Entry struct {
	Phoneme string
	Name    string
	Alias   string
	Vector  Vector
}

// System is an immutable mapping from normalized phoneme to feature vector.
// Every vector has the length and order of FeatureNames.
type System struct {
	name       string
	features   []string
	featureIdx map[string]int
	entries    map[string]Entry
	phonemes   []string // sorted
	index      *Index
}

// NewSystem builds a System. Entry phonemes are used as given; callers load
// tables through ParseTable, which normalizes them. A later entry for the
// same phoneme replaces an earlier one.
func NewSystem(name string, features []string, entries []Entry) (*System, error) {
	if len(features) == 0 {
		return nil, schemaErrorf("", "system %q has no feature columns", name)
	}

	s := &System{
		name:       name,
		features:   slices.Clone(features),
		featureIdx: make(map[string]int, len(features)),
		entries:    make(map[string]Entry, len(entries)),
	}
	for i, f := range features {
		if _, dup := s.featureIdx[f]; dup {
			return nil, schemaErrorf("", "duplicate feature column %q", f)
		}
		s.featureIdx[f] = i
	}

	for _, e := range entries {
		if e.Phoneme == "" {
			return nil, schemaErrorf("", "entry without phoneme")
		}
		if len(e.Vector) != len(features) {
			return nil, schemaErrorf("", "phoneme %q has %d values, want %d", e.Phoneme, len(e.Vector), len(features))
		}
		for i, v := range e.Vector {
			if v < Negative || v > Positive {
				return nil, schemaErrorf("", "phoneme %q: invalid value %d for %q", e.Phoneme, v, features[i])
			}
		}
		e.Vector = e.Vector.Clone()
		s.entries[e.Phoneme] = e
	}

	s.phonemes = make([]string, 0, len(s.entries))
	for p := range s.entries {
		s.phonemes = append(s.phonemes, p)
	}
	slices.Sort(s.phonemes)

	s.index = newIndex(s)
	return s, nil
}

// Name returns the system name.
func (s *System) Name() string { return s.name }

// Len returns the number of phonemes.
func (s *System) Len() int { return len(s.phonemes) }

// Dim returns the number of features.
func (s *System) Dim() int { return len(s.features) }

// FeatureNames returns the canonical feature order.
func (s *System) FeatureNames() []string {
	return slices.Clone(s.features)
}

// Phonemes returns every phoneme in lexicographic order.
func (s *System) Phonemes() []string {
	return slices.Clone(s.phonemes)
}

// Contains reports whether the normalized phoneme is in the system.
func (s *System) Contains(phoneme string) bool {
	_, ok := s.entries[phoneme]
	return ok
}

// Entry returns the table row for a normalized phoneme.
func (s *System) Entry(phoneme string) (Entry, bool) {
	e, ok := s.entries[phoneme]
	if !ok {
		return Entry{}, false
	}
	e.Vector = e.Vector.Clone()
	return e, true
}

// Vector returns the feature vector of a normalized phoneme. The returned
// slice must not be modified.
func (s *System) Vector(phoneme string) (Vector, bool) {
	e, ok := s.entries[phoneme]
	return e.Vector, ok
}

// Features returns the feature vector of a phoneme keyed by feature name.
func (s *System) Features(phoneme string) (map[string]Value, bool) {
	e, ok := s.entries[phoneme]
	if !ok {
		return nil, false
	}
	out := make(map[string]Value, len(s.features))
	for i, f := range s.features {
		out[f] = e.Vector[i]
	}
	return out, true
}

// Reverse returns the phoneme whose features best match a partial feature
// set. A phoneme scores matches / |union of feature keys|, where unspecified
// features count as Undefined. The best phoneme is returned if its score is
// at least threshold; equal scores resolve to the lexicographically smallest
// phoneme.
func (s *System) Reverse(features map[string]Value, threshold float64) (string, bool) {
	extra := 0
	for f := range features {
		if _, ok := s.featureIdx[f]; !ok {
			extra++
		}
	}
	union := float64(len(s.features) + extra)
	if union == 0 {
		return "", false
	}

	best, bestScore := "", -1.0
	for _, p := range s.phonemes {
		vec := s.entries[p].Vector
		matches := 0
		for i, f := range s.features {
			if features[f] == vec[i] {
				matches++
			}
		}
		// Unknown keys match only when they are Undefined on both sides.
		for f, v := range features {
			if _, ok := s.featureIdx[f]; !ok && v == Undefined {
				matches++
			}
		}
		if score := float64(matches) / union; score > bestScore {
			best, bestScore = p, score
		}
	}

	if best == "" || bestScore < threshold {
		return "", false
	}
	return best, true
}

// Match returns, in lexicographic order, every phoneme whose features equal
// all constraints. With dropUndefined, Undefined constraints are ignored.
func (s *System) Match(constraints map[string]Value, dropUndefined bool) ([]string, error) {
	return s.index.Match(constraints, dropUndefined)
}

// MinimalMatrix returns the features that take more than one value across
// phonemes, and each phoneme's values for them. With dropUndefined, features
// that are Undefined for any phoneme are skipped.
func (s *System) MinimalMatrix(phonemes []string, dropUndefined bool) ([]string, map[string]Vector, error) {
	vecs, err := s.vectors(phonemes)
	if err != nil {
		return nil, nil, err
	}

	var keep []int
	for i := range s.features {
		if dropUndefined && anyUndefined(vecs, i) {
			continue
		}
		first := vecs[0][i]
		for _, v := range vecs[1:] {
			if v[i] != first {
				keep = append(keep, i)
				break
			}
		}
	}

	names := make([]string, len(keep))
	for j, i := range keep {
		names[j] = s.features[i]
	}
	rows := make(map[string]Vector, len(phonemes))
	for k, p := range phonemes {
		row := make(Vector, len(keep))
		for j, i := range keep {
			row[j] = vecs[k][i]
		}
		rows[p] = row
	}
	return names, rows, nil
}

// ClassFeatures returns the features that every phoneme shares. With
// dropUndefined, shared Undefined values are left out.
func (s *System) ClassFeatures(phonemes []string, dropUndefined bool) (map[string]Value, error) {
	vecs, err := s.vectors(phonemes)
	if err != nil {
		return nil, err
	}

	out := make(map[string]Value)
	for i, f := range s.features {
		first := vecs[0][i]
		if dropUndefined && first == Undefined {
			continue
		}
		shared := true
		for _, v := range vecs[1:] {
			if v[i] != first {
				shared = false
				break
			}
		}
		if shared {
			out[f] = first
		}
	}
	return out, nil
}

func (s *System) vectors(phonemes []string) ([]Vector, error) {
	if len(phonemes) == 0 {
		return nil, fmt.Errorf("empty phoneme set")
	}
	vecs := make([]Vector, len(phonemes))
	for k, p := range phonemes {
		v, ok := s.Vector(p)
		if !ok {
			return nil, &NotFoundError{Phoneme: p, System: s.name}
		}
		vecs[k] = v
	}
	return vecs, nil
}

func anyUndefined(vecs []Vector, i int) bool {
	for _, v := range vecs {
		if v[i] == Undefined {
			return true
		}
	}
	return false
}

// AsMatrix returns the phonemes in lexicographic order with their vectors
// mapped to {-1, 0, 1}.
func (s *System) AsMatrix() ([]string, [][]float64) {
	rows := make([][]float64, len(s.phonemes))
	for i, p := range s.phonemes {
		rows[i] = s.entries[p].Vector.Float64s()
	}
	return s.Phonemes(), rows
}

// Filter selects phonemes by their spelling.
type Filter struct {
	ExcludeClicks     bool
	ExcludeTones      bool
	ExcludeDiacritics bool
}

const clicks = "ʘǀǁǂǃ"

// Select returns the phonemes passing f, in lexicographic order.
func (s *System) Select(f Filter) []string {
	out := make([]string, 0, len(s.phonemes))
	for _, p := range s.phonemes {
		if f.keep(p) {
			out = append(out, p)
		}
	}
	return out
}

func (f Filter) keep(p string) bool {
	if f.ExcludeClicks && strings.ContainsAny(p, clicks) {
		return false
	}
	for _, r := range p {
		if f.ExcludeTones && (normalize.IsToneMark(r) || normalize.IsToneLetter(r)) {
			return false
		}
		if f.ExcludeDiacritics && (normalize.IsCombining(r) || normalize.IsModifier(r)) && !normalize.IsTie(r) {
			return false
		}
	}
	return true
}
