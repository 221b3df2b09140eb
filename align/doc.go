// Package align performs global alignment of phoneme sequences and derives
// cognate statistics from the alignments.
//
// Alignment is Needleman-Wunsch with costs minimized: the substitution cost
// of two tokens comes from an Oracle (typically a phoneme distance), and
// every gap costs Options.GapPenalty. Tokens the oracle cannot score cost a
// fixed fallback penalty, so an alignment always completes.
//
//	a := align.New(oracle, align.DefaultOptions)
//	r, _ := a.Align(ctx, []string{"p", "a", "t"}, []string{"b", "a", "t"})
//	fmt.Println(r) // Distance: 0.0xx / p a t / b a t
package align
