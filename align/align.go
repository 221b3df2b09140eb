package align

import (
	"context"
	"fmt"
	"strings"
)

// Gap marks an unaligned position.
const Gap = "-"

// Oracle supplies substitution costs. ok is false when either token is
// missing from the feature table.
type Oracle interface {
	Distance(ctx context.Context, a, b string) (d float64, ok bool, err error)
}

// OracleFunc adapts a function to Oracle.
type OracleFunc func(ctx context.Context, a, b string) (float64, bool, error)

// Distance implements Oracle.
func (f OracleFunc) Distance(ctx context.Context, a, b string) (float64, bool, error) {
	return f(ctx, a, b)
}

// Options configures an Aligner.
type Options struct {
	// GapPenalty is charged per gap. Defaults to 1.0.
	GapPenalty float64

	// Normalized tells the aligner that oracle costs lie in [0, 1]. It
	// selects the fallback cost for missing tokens: 1.0 when normalized,
	// 2.0 otherwise.
	Normalized bool
}

// DefaultOptions matches normalized hamming alignment with unit gaps.
var DefaultOptions = Options{GapPenalty: 1.0, Normalized: true}

// Result is a global alignment of two token sequences.
type Result struct {
	Seq1            []string `json:"seq1_aligned"`
	Seq2            []string `json:"seq2_aligned"`
	Score           float64  `json:"score"`
	NormalizedScore float64  `json:"normalized_distance"`
}

// Len returns the length of the aligned sequences.
func (r *Result) Len() int { return len(r.Seq1) }

// Gaps returns the number of gap positions in both sequences.
func (r *Result) Gaps() int {
	n := 0
	for i := range r.Seq1 {
		if r.Seq1[i] == Gap {
			n++
		}
		if r.Seq2[i] == Gap {
			n++
		}
	}
	return n
}

func (r *Result) String() string {
	return fmt.Sprintf("Distance: %.3f\n%s\n%s", r.NormalizedScore, strings.Join(r.Seq1, " "), strings.Join(r.Seq2, " "))
}

// Aligner performs Needleman-Wunsch alignment with minimized cost.
type Aligner struct {
	oracle Oracle
	opts   Options
}

// New creates an Aligner.
func New(oracle Oracle, opts Options) *Aligner {
	return &Aligner{oracle: oracle, opts: opts}
}

// Options returns the aligner options.
func (a *Aligner) Options() Options { return a.opts }

func (a *Aligner) fallback() float64 {
	if a.opts.Normalized {
		return 1.0
	}
	return 2.0
}

type move uint8

const (
	diag move = iota
	up        // consume seq1 against a gap
	left      // consume seq2 against a gap
)

// Align aligns seq1 and seq2. Ties between moves prefer diagonal, then
// deletion, then insertion, so the alignment is unique for any input.
func (a *Aligner) Align(ctx context.Context, seq1, seq2 []string) (*Result, error) {
	gap := a.opts.GapPenalty
	m, n := len(seq1), len(seq2)

	if m == 0 || n == 0 {
		return gapped(seq1, seq2, gap), nil
	}

	// Substitution costs; each pair is looked up once.
	sub := make([][]float64, m)
	for i := range sub {
		sub[i] = make([]float64, n)
		for j := range sub[i] {
			d, ok, err := a.oracle.Distance(ctx, seq1[i], seq2[j])
			if err != nil {
				return nil, err
			}
			if !ok {
				d = a.fallback()
			}
			sub[i][j] = d
		}
	}

	cost := make([][]float64, m+1)
	trace := make([][]move, m+1)
	for i := range cost {
		cost[i] = make([]float64, n+1)
		trace[i] = make([]move, n+1)
		cost[i][0] = float64(i) * gap
		trace[i][0] = up
	}
	for j := 1; j <= n; j++ {
		cost[0][j] = float64(j) * gap
		trace[0][j] = left
	}

	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			best, mv := cost[i-1][j-1]+sub[i-1][j-1], diag
			if c := cost[i-1][j] + gap; c < best {
				best, mv = c, up
			}
			if c := cost[i][j-1] + gap; c < best {
				best, mv = c, left
			}
			cost[i][j], trace[i][j] = best, mv
		}
	}

	aligned1 := make([]string, 0, m+n)
	aligned2 := make([]string, 0, m+n)
	for i, j := m, n; i > 0 || j > 0; {
		switch {
		case i > 0 && j > 0 && trace[i][j] == diag:
			aligned1 = append(aligned1, seq1[i-1])
			aligned2 = append(aligned2, seq2[j-1])
			i--
			j--
		case i > 0 && (j == 0 || trace[i][j] == up):
			aligned1 = append(aligned1, seq1[i-1])
			aligned2 = append(aligned2, Gap)
			i--
		default:
			aligned1 = append(aligned1, Gap)
			aligned2 = append(aligned2, seq2[j-1])
			j--
		}
	}
	reverse(aligned1)
	reverse(aligned2)

	score := cost[m][n]
	return &Result{
		Seq1:            aligned1,
		Seq2:            aligned2,
		Score:           score,
		NormalizedScore: score / float64(max(m, n)),
	}, nil
}

func gapped(seq1, seq2 []string, gap float64) *Result {
	r := &Result{Seq1: []string{}, Seq2: []string{}}
	switch {
	case len(seq1) > 0:
		r.Seq1 = append(r.Seq1, seq1...)
		r.Seq2 = gaps(len(seq1))
	case len(seq2) > 0:
		r.Seq1 = gaps(len(seq2))
		r.Seq2 = append(r.Seq2, seq2...)
	default:
		return r
	}
	length := max(len(seq1), len(seq2))
	r.Score = float64(length) * gap
	r.NormalizedScore = r.Score / float64(length)
	return r
}

func gaps(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = Gap
	}
	return out
}

func reverse(s []string) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
