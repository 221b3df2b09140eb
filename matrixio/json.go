package matrixio

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/hupe1980/phonodist/matrix"
)

// Document is the JSON representation of a matrix.
type Document struct {
	Phonemes []string     `json:"phonemes"`
	Matrix   [][]*Cell    `json:"matrix"`
	Metadata matrix.Stats `json:"metadata"`
}

// Cell is a JSON matrix cell. A nil *Cell encodes an unbounded distance.
type Cell struct {
	value float64
	prec  int
}

// MarshalJSON writes the value rounded to the cell precision.
func (c Cell) MarshalJSON() ([]byte, error) {
	return strconv.AppendFloat(nil, round(c.value, c.prec), 'g', -1, 64), nil
}

// UnmarshalJSON reads a number.
func (c *Cell) UnmarshalJSON(data []byte) error {
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return err
	}
	c.value = v
	c.prec = -1
	return nil
}

// Value returns the cell value.
func (c *Cell) Value() float64 {
	if c == nil {
		return math.Inf(1)
	}
	return c.value
}

func round(v float64, prec int) float64 {
	if prec < 0 {
		return v
	}
	p := math.Pow10(prec)
	return math.Round(v*p) / p
}

// NewDocument converts m into its JSON representation.
func NewDocument(m *matrix.Matrix, prec int) *Document {
	n := m.Size()
	doc := &Document{
		Phonemes: m.Labels(),
		Matrix:   make([][]*Cell, n),
		Metadata: m.Stats(),
	}
	for i := 0; i < n; i++ {
		row := make([]*Cell, n)
		for j := 0; j < n; j++ {
			if d := m.At(i, j); !math.IsInf(d, 0) && !math.IsNaN(d) {
				row[j] = &Cell{value: d, prec: prec}
			}
		}
		doc.Matrix[i] = row
	}
	return doc
}

// ToMatrix converts the document back into a matrix.
func (d *Document) ToMatrix() (*matrix.Matrix, error) {
	rows := make([][]float64, len(d.Matrix))
	for i, cells := range d.Matrix {
		row := make([]float64, len(cells))
		for j, c := range cells {
			row[j] = c.Value()
		}
		rows[i] = row
	}
	return matrix.FromRows(d.Phonemes, rows)
}

func encodeJSON(w io.Writer, m *matrix.Matrix, prec int) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(NewDocument(m, prec))
}

func decodeJSON(r io.Reader) (*matrix.Matrix, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	return doc.ToMatrix()
}
