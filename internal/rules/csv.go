package rules

import (
	"encoding/csv"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ReaderOptions are passed through to the CSV tokenizer untouched.
// The header row is always consumed by the Parser, never by the reader.
type ReaderOptions struct {
	Comma            rune // Field delimiter; ',' when zero
	Comment          rune // Lines starting with this rune are skipped; disabled when zero
	LazyQuotes       bool
	TrimLeadingSpace bool
}

// NewCSVReader returns a csv.Reader over r configured with opts.
//
// A leading UTF-8 BOM is dropped and invalid UTF-8 is replaced with
// U+FFFD before tokenizing, since spreadsheet exports routinely carry both.
// Rows may have any number of fields.
func NewCSVReader(r io.Reader, opts ReaderOptions) *csv.Reader {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	cr := csv.NewReader(decoded)
	if opts.Comma != 0 {
		cr.Comma = opts.Comma
	}
	cr.Comment = opts.Comment
	cr.LazyQuotes = opts.LazyQuotes
	cr.TrimLeadingSpace = opts.TrimLeadingSpace
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	return cr
}

// NewCSVParser creates a Parser reading CSV text from r.
func NewCSVParser(t *Type, r io.Reader, opts ReaderOptions) *Parser {
	return NewParser(t, NewCSVReader(r, opts))
}
