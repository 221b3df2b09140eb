package align

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrSchema is returned for malformed cognate files.
var ErrSchema = errors.New("invalid cognate file")

// Word is one transcribed form.
type Word struct {
	Language string   `json:"language,omitempty"`
	Form     string   `json:"word,omitempty"`
	Segments []string `json:"segments"`
}

// CognateSet groups words judged cognate for one concept.
type CognateSet struct {
	Concept string `json:"concept,omitempty"`
	Cognacy string `json:"cognacy"`
	Words   []Word `json:"words"`
}

// Sequences returns the segment lists of the set's words.
func (s CognateSet) Sequences() [][]string {
	out := make([][]string, len(s.Words))
	for i, w := range s.Words {
		out[i] = w.Segments
	}
	return out
}

// Corpus is an ordered list of cognate sets.
type Corpus []CognateSet

// Sequences returns every set as a list of segment sequences.
func (c Corpus) Sequences() [][][]string {
	out := make([][][]string, len(c))
	for i, s := range c {
		out[i] = s.Sequences()
	}
	return out
}

// LoadOptions configures LoadCognates.
type LoadOptions struct {
	// Delimiter separates cells. Zero means comma.
	Delimiter rune
}

// LoadCognates reads a cognate table with the columns Language, Word,
// Segments, Cognacy and Concept (matched case-insensitively). Segments and
// Cognacy are required; Segments holds space-separated tokens. Rows with an
// empty Cognacy are skipped. Sets are keyed by (Concept, Cognacy) and keep
// the order in which they first appear.
func LoadCognates(r io.Reader, opts LoadOptions) (Corpus, error) {
	cr := csv.NewReader(r)
	if opts.Delimiter != 0 {
		cr.Comma = opts.Delimiter
	}
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty file", ErrSchema)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchema, err)
	}

	cols := map[string]int{}
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF")))
		if _, seen := cols[h]; !seen {
			cols[h] = i
		}
	}
	for _, required := range []string{"segments", "cognacy"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrSchema, required)
		}
	}
	get := func(rec []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	type key struct{ concept, cognacy string }
	var corpus Corpus
	index := map[key]int{}

	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrSchema, line, err)
		}

		cognacy := get(rec, "cognacy")
		if cognacy == "" {
			continue
		}
		k := key{concept: get(rec, "concept"), cognacy: cognacy}
		i, ok := index[k]
		if !ok {
			i = len(corpus)
			index[k] = i
			corpus = append(corpus, CognateSet{Concept: k.concept, Cognacy: cognacy})
		}
		corpus[i].Words = append(corpus[i].Words, Word{
			Language: get(rec, "language"),
			Form:     get(rec, "word"),
			Segments: strings.Fields(get(rec, "segments")),
		})
	}
	return corpus, nil
}
