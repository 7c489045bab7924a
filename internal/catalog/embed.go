package catalog

import (
	_ "embed"
)

//go:embed data/cards.json
var basicSetJSON []byte

// BasicSet builds the bundled starter catalog. Servers without a card
// database run on this set.
func BasicSet() (*Catalog, error) {
	return Parse(basicSetJSON)
}
