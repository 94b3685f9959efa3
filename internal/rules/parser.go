package rules

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"slices"
	"strings"
)

// RowSource supplies rows of text cells. *csv.Reader satisfies it.
// Read returns io.EOF when no rows remain.
type RowSource interface {
	Read() ([]string, error)
}

// Stats describes how much of the source a Parser has consumed.
type Stats struct {
	RowsRead     int // Data rows read from the source, header excluded
	RowsYielded  int // Results returned to the caller
	DroppedCells int // Cells beyond the header width, never matched
}

// Parser turns a row source into one Result per data row using the rules
// of a Type.
//
// The first row is read lazily on first demand and becomes the header for
// the lifetime of the Parser. Iteration is forward-only: once the source is
// exhausted, or an error is returned, every later call reports the same
// outcome. Abandoning a Parser early is always safe; it reads nothing more
// than the caller asked for.
//
// A Parser is not safe for concurrent use. Many Parsers may share a Type.
type Parser struct {
	typ *Type
	src RowSource

	header     []string
	headerRead bool
	line       int
	fired      []bool

	err   error
	stats Stats
}

// NewParser creates a parser over src. It seals t.
func NewParser(t *Type, src RowSource) *Parser {
	t.seal()
	return &Parser{
		typ:   t,
		src:   src,
		fired: make([]bool, len(t.rules)),
	}
}

// Type returns the parser type rows are matched against.
func (p *Parser) Type() *Type {
	return p.typ
}

// Header returns the trimmed header names, reading the header row first if
// that has not happened yet.
func (p *Parser) Header() ([]string, error) {
	if err := p.readHeader(); err != nil {
		return nil, err
	}
	return slices.Clone(p.header), nil
}

func (p *Parser) readHeader() error {
	if p.headerRead {
		if p.header == nil {
			return p.err
		}
		return nil
	}
	p.headerRead = true

	rec, err := p.src.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			p.err = fmt.Errorf("%w: %w", ErrNoHeader, io.EOF)
		} else {
			p.err = fmt.Errorf("read header: %w", err)
		}
		return p.err
	}
	p.line++

	header := make([]string, len(rec))
	for i, h := range rec {
		header[i] = strings.TrimSpace(h)
	}
	p.header = header
	return nil
}

// Next returns the result for the next data row, or io.EOF when the source
// is exhausted.
func (p *Parser) Next() (Result, error) {
	if p.err != nil {
		return nil, p.err
	}
	if err := p.readHeader(); err != nil {
		return nil, err
	}

	rec, err := p.src.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			p.err = io.EOF
		} else {
			p.err = &RowError{Line: p.line + 1, Err: err}
		}
		return nil, p.err
	}
	p.line++
	p.stats.RowsRead++

	res, err := p.parseRow(rec)
	if err != nil {
		p.err = err
		return nil, err
	}
	p.stats.RowsYielded++
	return res, nil
}

// parseRow pairs cells with header names by position. Cells past the end
// of the header have no name and are dropped; short rows simply offer
// fewer columns.
func (p *Parser) parseRow(rec []string) (Result, error) {
	st := &rowState{
		row:   p.typ.newRow(p.header, p.line),
		fired: p.fired,
	}
	clear(st.fired)

	for i, cell := range rec {
		if i >= len(p.header) {
			p.stats.DroppedCells += len(rec) - i
			break
		}
		if err := p.typ.applyColumn(st, strings.TrimSpace(cell), p.header[i]); err != nil {
			return nil, &RowError{Line: p.line, Header: p.header[i], Err: err}
		}
	}
	return st.row.result, nil
}

// All iterates over the remaining rows. Iteration stops after the first
// error, which is yielded with a nil Result. Breaking out of the loop
// leaves the rest of the source unread.
func (p *Parser) All() iter.Seq2[Result, error] {
	return func(yield func(Result, error) bool) {
		for {
			res, err := p.Next()
			if err == io.EOF {
				return
			}
			if !yield(res, err) || err != nil {
				return
			}
		}
	}
}

// Collect reads every remaining row.
func (p *Parser) Collect() ([]Result, error) {
	var out []Result
	for res, err := range p.All() {
		if err != nil {
			return out, err
		}
		out = append(out, res)
	}
	return out, nil
}

// Stats returns consumption counters.
func (p *Parser) Stats() Stats {
	return p.stats
}
