package feature

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
)

// Index holds one posting bitmap per (feature, value) pair. Bitmap members
// are positions in the system's sorted phoneme list.
type Index struct {
	sys      *System
	all      *roaring.Bitmap
	postings [][3]*roaring.Bitmap // [feature][value+1]
}

func newIndex(s *System) *Index {
	idx := &Index{
		sys:      s,
		all:      roaring.New(),
		postings: make([][3]*roaring.Bitmap, len(s.features)),
	}
	for i := range idx.postings {
		for v := range idx.postings[i] {
			idx.postings[i][v] = roaring.New()
		}
	}

	for id, p := range s.phonemes {
		idx.all.Add(uint32(id))
		for i, v := range s.entries[p].Vector {
			idx.postings[i][v+1].Add(uint32(id))
		}
	}
	for i := range idx.postings {
		for v := range idx.postings[i] {
			idx.postings[i][v].RunOptimize()
		}
	}
	return idx
}

// Posting returns the phonemes holding value v for a feature.
func (idx *Index) Posting(feature string, v Value) (*roaring.Bitmap, error) {
	i, ok := idx.sys.featureIdx[feature]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFeature, feature)
	}
	return idx.postings[i][v+1].Clone(), nil
}

// Match intersects the postings of every constraint.
func (idx *Index) Match(constraints map[string]Value, dropUndefined bool) ([]string, error) {
	result := idx.all.Clone()
	for f, v := range constraints {
		if dropUndefined && v == Undefined {
			continue
		}
		i, ok := idx.sys.featureIdx[f]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownFeature, f)
		}
		if v < Negative || v > Positive {
			return nil, fmt.Errorf("invalid value %d for feature %q", v, f)
		}
		result.And(idx.postings[i][v+1])
	}

	out := make([]string, 0, result.GetCardinality())
	it := result.Iterator()
	for it.HasNext() {
		out = append(out, idx.sys.phonemes[it.Next()])
	}
	return out, nil
}
