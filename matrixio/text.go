package matrixio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/hupe1980/phonodist/matrix"
)

func delimiter(f Format) rune {
	if f == TSV {
		return '\t'
	}
	return ','
}

// formatCell renders d with prec decimals. Non-finite cells are written as
// "inf", "-inf" or "nan".
func formatCell(d float64, prec int) string {
	switch {
	case math.IsInf(d, 1):
		return "inf"
	case math.IsInf(d, -1):
		return "-inf"
	case math.IsNaN(d):
		return "nan"
	}
	return strconv.FormatFloat(d, 'f', prec, 64)
}

func encodeText(w io.Writer, m *matrix.Matrix, f Format, prec int) error {
	cw := csv.NewWriter(w)
	cw.Comma = delimiter(f)

	labels := m.Labels()
	if err := cw.Write(append([]string{""}, labels...)); err != nil {
		return err
	}
	rec := make([]string, len(labels)+1)
	for i, l := range labels {
		rec[0] = l
		for j := range labels {
			rec[j+1] = formatCell(m.At(i, j), prec)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func decodeText(r io.Reader, f Format) (*matrix.Matrix, error) {
	cr := csv.NewReader(r)
	cr.Comma = delimiter(f)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = f == TSV

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty matrix", ErrFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	labels := header
	if len(header) > 0 && header[0] == "" {
		labels = header[1:]
	}

	n := len(labels)
	rows := make([][]float64, 0, n)
	for len(rows) < n {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %d rows, want %d", ErrFormat, len(rows), n)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFormat, err)
		}
		// Rows carry a leading label column.
		cells := rec
		if len(rec) > n {
			cells = rec[1 : n+1]
		}
		if len(cells) != n {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrFormat, len(rows), len(cells), n)
		}
		row := make([]float64, n)
		for j, c := range cells {
			v, err := strconv.ParseFloat(strings.TrimSpace(c), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: row %d column %d: %q", ErrFormat, len(rows), j, c)
			}
			row[j] = v
		}
		rows = append(rows, row)
	}

	return matrix.FromRows(labels, rows)
}
