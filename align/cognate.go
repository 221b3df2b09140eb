package align

import (
	"context"
	"math"
)

// MaxInterSamples caps the number of inter-set pairs Optimize aligns.
const MaxInterSamples = 100

// AlignCognateSet returns the mean normalized score over all unordered pairs
// of sequences. Sets with fewer than two sequences score 0.
func (a *Aligner) AlignCognateSet(ctx context.Context, set [][]string) (float64, error) {
	if len(set) < 2 {
		return 0, nil
	}

	var sum float64
	pairs := 0
	for i := 0; i < len(set); i++ {
		for j := i + 1; j < len(set); j++ {
			r, err := a.Align(ctx, set[i], set[j])
			if err != nil {
				return 0, err
			}
			sum += r.NormalizedScore
			pairs++
		}
	}
	return sum / float64(pairs), nil
}

// Statistics summarizes intra-set and inter-set alignment distances.
type Statistics struct {
	MeanIntra float64 `json:"mean_intra_distance"`
	StdIntra  float64 `json:"std_intra_distance"`
	MeanInter float64 `json:"mean_inter_distance"`
	StdInter  float64 `json:"std_inter_distance"`

	Sets       int `json:"n_cognate_sets"`
	IntraPairs int `json:"n_intra_pairs"`
	InterPairs int `json:"n_inter_pairs"`

	// Threshold and Separation are set only when both intra and inter
	// distances exist.
	HasThreshold bool    `json:"has_threshold"`
	Threshold    float64 `json:"optimal_threshold,omitempty"`
	Separation   float64 `json:"separation,omitempty"`
}

// Optimize derives a cognate decision threshold from cognate sets.
//
// Intra distances are the AlignCognateSet scores of every set with at least
// two sequences. Inter distances align the first sequence of set i with the
// first sequence of set j for i < j in input order, stopping after
// min(MaxInterSamples, C(len(sets), 2)) pairs. The threshold is the
// equal-error-rate point of the two distributions:
//
//	w = stdInter / (stdIntra + stdInter)
//	threshold = w·meanIntra + (1-w)·meanInter
//
// falling back to the midpoint of the means when both deviations are 0.
// Without intra distances the intra mean is 0; without inter distances the
// inter mean is 1.
func (a *Aligner) Optimize(ctx context.Context, sets [][][]string) (*Statistics, error) {
	var intra, inter []float64

	for _, set := range sets {
		if len(set) < 2 {
			continue
		}
		d, err := a.AlignCognateSet(ctx, set)
		if err != nil {
			return nil, err
		}
		intra = append(intra, d)
	}

	n := len(sets)
	limit := min(MaxInterSamples, n*(n-1)/2)
sample:
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if len(inter) >= limit {
				break sample
			}
			if len(sets[i]) == 0 || len(sets[j]) == 0 {
				continue
			}
			r, err := a.Align(ctx, sets[i][0], sets[j][0])
			if err != nil {
				return nil, err
			}
			inter = append(inter, r.NormalizedScore)
		}
	}

	s := &Statistics{
		Sets:       n,
		IntraPairs: len(intra),
		InterPairs: len(inter),
		MeanInter:  1.0,
	}
	if len(intra) > 0 {
		s.MeanIntra, s.StdIntra = meanStd(intra)
	}
	if len(inter) > 0 {
		s.MeanInter, s.StdInter = meanStd(inter)
	}

	if len(intra) > 0 && len(inter) > 0 {
		s.HasThreshold = true
		if total := s.StdIntra + s.StdInter; total > 0 {
			w := s.StdInter / total
			s.Threshold = w*s.MeanIntra + (1-w)*s.MeanInter
		} else {
			s.Threshold = (s.MeanIntra + s.MeanInter) / 2
		}
		s.Separation = s.MeanInter - s.MeanIntra
	}
	return s, nil
}

// meanStd returns the mean and population standard deviation.
func meanStd(xs []float64) (float64, float64) {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))

	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / float64(len(xs)))
}
