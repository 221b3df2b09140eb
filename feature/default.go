package feature

import (
	"bytes"
	_ "embed"
)

//go:embed data/default.tsv
var defaultTable []byte

// LoadDefault parses the embedded default feature table.
func LoadDefault() (*System, error) {
	return ReadTable(DefaultSystem, bytes.NewReader(defaultTable))
}
