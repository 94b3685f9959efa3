// Package parsers registers the built-in parser types with the catalog.
// Import this package to ensure they are available.
package parsers

import (
	"github.com/JonMunkholm/csvrules/internal/catalog"
	"github.com/JonMunkholm/csvrules/internal/rules"
)

// Passthrough copies every column to a key named after its header.
// Blank header names are skipped.
var Passthrough = rules.NewType("passthrough")

func init() {
	Passthrough.Register(rules.Predicate("named", func(h string) bool { return h != "" }),
		func(row *rules.Row, val, header string) error {
			row.Set(header, val)
			return nil
		})

	catalog.Register(catalog.Entry{
		Name:        "passthrough",
		Group:       "Generic",
		Label:       "Passthrough",
		Description: "One key per column, named after the header",
		Type:        Passthrough,
	})
}
