package feature

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hupe1980/phonodist/normalize"
)

// LoadTable reads a feature table in the standard layout from path. The
// system is named after DefaultSystem.
func LoadTable(path string) (*System, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	s, err := ReadTable(DefaultSystem, f)
	return s, withPath(err, path)
}

// ReadTable parses a feature table in the standard layout: a header row,
// then one row per phoneme holding the symbol, a display name, an alias and
// one ternary marker per feature ("-", "0", "+" or -1, 0, 1). The delimiter
// is a tab if the header contains one, a comma otherwise. Phoneme keys are
// normalized.
func ReadTable(name string, r io.Reader) (*System, error) {
	rows, delim, err := readRows(r, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, schemaErrorf("", "empty table")
	}

	header := rows[0]
	if len(header) < 4 {
		return nil, schemaErrorf("", "no feature columns (header has %d %s-separated columns)", len(header), delimName(delim))
	}
	features := trimAll(header[3:])

	entries := make([]Entry, 0, len(rows)-1)
	for n, rec := range rows[1:] {
		line := n + 2
		if len(rec) < len(header) {
			return nil, schemaErrorf("", "line %d: %d columns, want %d", line, len(rec), len(header))
		}
		phoneme := normalize.String(rec[0])
		if phoneme == "" {
			return nil, schemaErrorf("", "line %d: missing phoneme", line)
		}
		vec := make(Vector, len(features))
		for i, cell := range rec[3:len(header)] {
			v, ok := ParseValue(cell)
			if !ok {
				return nil, schemaErrorf("", "line %d: invalid value %q for %q", line, cell, features[i])
			}
			vec[i] = v
		}
		entries = append(entries, Entry{
			Phoneme: phoneme,
			Name:    strings.TrimSpace(rec[1]),
			Alias:   strings.TrimSpace(rec[2]),
			Vector:  vec,
		})
	}

	return NewSystem(name, features, entries)
}

// CustomOptions describes the layout of a custom feature table.
type CustomOptions struct {
	// Delimiter separates cells. Zero means comma.
	Delimiter rune

	// PhonemeColumn names the column holding phoneme symbols.
	// Defaults to "phoneme".
	PhonemeColumn string

	// ExcludeColumns lists non-feature columns. Nil means
	// name, alias, description, note and notes.
	ExcludeColumns []string

	// NameColumn and AliasColumn, when present, fill Entry.Name and
	// Entry.Alias. Default to "name" and "alias".
	NameColumn  string
	AliasColumn string
}

func (o CustomOptions) withDefaults() CustomOptions {
	if o.Delimiter == 0 {
		o.Delimiter = ','
	}
	if o.PhonemeColumn == "" {
		o.PhonemeColumn = "phoneme"
	}
	if o.ExcludeColumns == nil {
		o.ExcludeColumns = []string{"name", "alias", "description", "note", "notes"}
	}
	if o.NameColumn == "" {
		o.NameColumn = "name"
	}
	if o.AliasColumn == "" {
		o.AliasColumn = "alias"
	}
	return o
}

// LoadCustomSystem reads a custom feature table from path.
func LoadCustomSystem(path, name string, opts CustomOptions) (*System, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	s, err := ReadCustomTable(name, f, opts)
	return s, withPath(err, path)
}

// ReadCustomTable parses a custom feature table. Every column other than the
// phoneme column and the excluded columns is a feature; cells are converted
// with Coerce. A missing phoneme column, a table without feature columns, or
// a row without a phoneme is a schema error.
func ReadCustomTable(name string, r io.Reader, opts CustomOptions) (*System, error) {
	opts = opts.withDefaults()

	rows, _, err := readRows(r, opts.Delimiter)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, schemaErrorf("", "empty table")
	}

	header := trimAll(rows[0])
	phonemeCol := columnIndex(header, opts.PhonemeColumn)
	if phonemeCol < 0 {
		return nil, schemaErrorf("", "missing phoneme column %q", opts.PhonemeColumn)
	}
	nameCol := columnIndex(header, opts.NameColumn)
	aliasCol := columnIndex(header, opts.AliasColumn)

	excluded := make(map[string]struct{}, len(opts.ExcludeColumns))
	for _, c := range opts.ExcludeColumns {
		excluded[strings.ToLower(c)] = struct{}{}
	}

	var (
		features []string
		cols     []int
	)
	for i, h := range header {
		if i == phonemeCol || h == "" {
			continue
		}
		if _, skip := excluded[strings.ToLower(h)]; skip {
			continue
		}
		features = append(features, h)
		cols = append(cols, i)
	}
	if len(features) == 0 {
		return nil, schemaErrorf("", "no feature columns")
	}

	entries := make([]Entry, 0, len(rows)-1)
	for n, rec := range rows[1:] {
		line := n + 2
		if phonemeCol >= len(rec) {
			return nil, schemaErrorf("", "line %d: missing phoneme column", line)
		}
		phoneme := normalize.String(rec[phonemeCol])
		if phoneme == "" {
			return nil, schemaErrorf("", "line %d: missing phoneme", line)
		}

		vec := make(Vector, len(features))
		for j, c := range cols {
			if c < len(rec) {
				vec[j] = Coerce(rec[c])
			}
		}
		entries = append(entries, Entry{
			Phoneme: phoneme,
			Name:    cell(rec, nameCol),
			Alias:   cell(rec, aliasCol),
			Vector:  vec,
		})
	}

	return NewSystem(name, features, entries)
}

func readRows(r io.Reader, delim rune) ([][]string, rune, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, err
	}
	text := strings.TrimPrefix(string(data), "\uFEFF")

	if delim == 0 {
		delim = ','
		firstLine, _, _ := strings.Cut(text, "\n")
		if strings.Contains(firstLine, "\t") {
			delim = '\t'
		}
	}

	cr := csv.NewReader(strings.NewReader(text))
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var rows [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, schemaErrorf("", "%v", err)
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		rows = append(rows, rec)
	}
	return rows, delim, nil
}

func withPath(err error, path string) error {
	var se *SchemaError
	if errors.As(err, &se) && se.Path == "" {
		se.Path = path
	}
	return err
}

func columnIndex(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	for i, h := range header {
		if strings.EqualFold(h, name) {
			return i
		}
	}
	return -1
}

func cell(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func trimAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.TrimSpace(s)
	}
	return out
}

func delimName(d rune) string {
	if d == '\t' {
		return "tab"
	}
	return fmt.Sprintf("%q", d)
}
