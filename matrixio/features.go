package matrixio

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/hupe1980/phonodist/feature"
)

// EncodeFeatures writes the feature rows of phonemes as a TSV or CSV table
// with a "phoneme" column followed by one column per feature. A nil phoneme
// list exports the whole system in lexicographic order.
func EncodeFeatures(w io.Writer, sys *feature.System, phonemes []string, f Format) error {
	if f != TSV && f != CSV {
		return fmt.Errorf("%w: features export as tsv or csv, not %s", ErrFormat, f)
	}
	if phonemes == nil {
		phonemes = sys.Phonemes()
	}

	cw := csv.NewWriter(w)
	cw.Comma = delimiter(f)
	if err := cw.Write(append([]string{"phoneme"}, sys.FeatureNames()...)); err != nil {
		return err
	}
	rec := make([]string, sys.Dim()+1)
	for _, p := range phonemes {
		vec, ok := sys.Vector(p)
		if !ok {
			return &feature.NotFoundError{Phoneme: p, System: sys.Name()}
		}
		rec[0] = p
		for i, v := range vec {
			rec[i+1] = v.String()
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
