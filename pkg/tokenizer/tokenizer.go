// Package tokenizer implements component A of the formatting pipeline
// (spec.md §4.A): it wraps a hostparser.Parser's flat row output into
// the engine's own Token rows, enhancing under-specified token kinds
// and computing the few derived fields that make sense to fill in
// once, on the flat table, before any tree structure exists.
package tokenizer

import (
	"fmt"
	"sort"

	"github.com/aledsdavies/gostyler/internal/styleerr"
	"github.com/aledsdavies/gostyler/pkg/hostparser"
	"github.com/aledsdavies/gostyler/pkg/token"
)

// Adapt runs parser against source and returns the flat Token table,
// ordered by PosID. On a host-parser failure it returns a ParseError;
// per spec.md §4.A, the caller may still emit the original text
// unchanged.
func Adapt(parser hostparser.Parser, path, source string) ([]*token.Token, error) {
	rows, err := parser.Parse(source)
	if err != nil {
		line, col := 1, 1
		return nil, styleerr.NewParseError(path, line, col, err)
	}

	flat := make([]*token.Token, 0, len(rows))
	for _, r := range rows {
		flat = append(flat, &token.Token{
			ID:       r.ID,
			Parent:   r.Parent,
			Line1:    r.Line1,
			Col1:     r.Col1,
			Line2:    r.Line2,
			Col2:     r.Col2,
			Kind:     token.Refine(token.Kind(r.Kind), r.Text),
			Text:     r.Text,
			Terminal: r.Terminal,
		})
	}

	assignPosIDs(flat)
	linkNeighbors(flat)
	return flat, nil
}

// assignPosIDs gives every row a PosID that totally orders the table
// in source-output order (invariant 2, spec.md §3): primarily by
// (line1, col1), with (line2 desc, col2 desc) and id as tie-breakers
// so an enclosing non-terminal sorts before its first child when they
// share a start position.
func assignPosIDs(rows []*token.Token) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Line1 != b.Line1 {
			return a.Line1 < b.Line1
		}
		if a.Col1 != b.Col1 {
			return a.Col1 < b.Col1
		}
		if a.Line2 != b.Line2 {
			return a.Line2 > b.Line2
		}
		if a.Col2 != b.Col2 {
			return a.Col2 > b.Col2
		}
		return a.ID < b.ID
	})
	// line2/col2 are stored as their complement so that ascending string
	// order of PosID is descending order in them.
	for _, r := range rows {
		r.PosID = fmt.Sprintf("%09d.%09d.%09d.%09d.%09d", r.Line1, r.Col1, 999999999-r.Line2, 999999999-r.Col2, r.ID)
	}
}

// linkNeighbors computes TokenBefore/TokenAfter for every terminal,
// derived once on the flat table (spec.md §3).
func linkNeighbors(rows []*token.Token) {
	var terminals []*token.Token
	for _, r := range rows {
		if r.Terminal {
			terminals = append(terminals, r)
		}
	}
	sort.SliceStable(terminals, func(i, j int) bool { return terminals[i].PosID < terminals[j].PosID })

	for i, t := range terminals {
		if i > 0 {
			t.TokenBefore = terminals[i-1].Kind
		}
		if i < len(terminals)-1 {
			t.TokenAfter = terminals[i+1].Kind
		} else {
			t.TokenAfter = token.KindEOF
		}
	}
}
