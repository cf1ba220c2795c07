package territory

import (
	"bytes"
	_ "embed"
	"fmt"
)

//go:embed hierarchy.csv
var hierarchyCSV []byte

// Bundled returns the catalog built from the embedded reference asset.
func Bundled() (*Catalog, error) {
	catalog, err := New(bytes.NewReader(hierarchyCSV))
	if err != nil {
		return nil, fmt.Errorf("territory: bundled asset: %w", err)
	}
	return catalog, nil
}
