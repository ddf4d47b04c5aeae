// Package serializer implements component H: it walks the
// fully-mutated nested table in source order and reconstructs text
// from terminals and their whitespace attributes.
package serializer

import (
	"sort"
	"strings"

	"github.com/aledsdavies/gostyler/pkg/token"
)

// Options carries the two serialization-time flags; everything else
// has already been decided by the rule phases.
type Options struct {
	BaseIndention   int
	UseRawIndention bool
}

// IgnoreSpan is one maximal run of consecutive stylerignore terminals,
// recorded as byte offsets into both this call's output and the
// original source. Component K (splicer) uses these to overwrite the
// styled text of each span with the literal original bytes, a
// byte-level splice rather than per-field whitespace bookkeeping.
type IgnoreSpan struct {
	OutStart, OutEnd int
	SrcStart, SrcEnd int
}

// Serialize reconstructs text from roots (in PosID order) and returns
// it along with the ignore spans found along the way. source is the
// original input, needed only to resolve ignore-span byte offsets
// (raw indentation comes from each token's own Col1). byteRanges,
// keyed by token id, gives the [start, end) byte offset each terminal
// occupies in the returned text; a top-level expression's own output
// slice is [byteRanges[First(root).ID][0], byteRanges[Last(root).ID][1]].
func Serialize(roots []*token.Token, source string, opts Options) (text string, spans []IgnoreSpan, byteRanges map[int][2]int) {
	var terms []*token.Token
	for _, r := range roots {
		terms = append(terms, token.Leaves(r)...)
	}
	sort.SliceStable(terms, func(i, j int) bool { return terms[i].PosID < terms[j].PosID })
	reconcile(terms)

	byID := make(map[int]*token.Token)
	depth := make(map[int]int)
	for _, r := range roots {
		computeDepths(r, 0, byID, depth)
	}
	emittedCol := make(map[int]int)
	byteRanges = make(map[int][2]int)

	var buf strings.Builder
	var cur *IgnoreSpan

	for i, t := range terms {
		if i > 0 {
			prev := terms[i-1]
			nl := prev.Newlines
			if t.LagNewlines > nl {
				nl = t.LagNewlines
			}
			if nl > 0 {
				buf.WriteString(strings.Repeat("\n", nl))
				indent := indentOf(t, byID, emittedCol, depth, opts)
				buf.WriteString(strings.Repeat(" ", indent))
				emittedCol[t.ID] = indent + 1
			} else {
				sp := prev.Spaces
				if t.LagSpaces > sp {
					sp = t.LagSpaces
				}
				buf.WriteString(strings.Repeat(" ", sp))
				emittedCol[t.ID] = emittedCol[prev.ID] + len(prev.Text) + sp
			}
		} else {
			emittedCol[t.ID] = 1
		}

		start := buf.Len()
		if t.StylerIgnore {
			if cur == nil {
				cur = &IgnoreSpan{OutStart: start, SrcStart: byteOffset(source, t.Line1, t.Col1)}
			}
		} else if cur != nil {
			spans = append(spans, *cur)
			cur = nil
		}

		buf.WriteString(t.Text)
		byteRanges[t.ID] = [2]int{start, buf.Len()}

		if t.StylerIgnore {
			cur.OutEnd = buf.Len()
			cur.SrcEnd = byteOffset(source, t.Line2, t.Col2)
		}
	}

	if cur != nil {
		spans = append(spans, *cur)
	}

	return buf.String(), spans, byteRanges
}

// reconcile derives newlines/lag_spaces as mirrors of the neighboring
// terminal's lag_newlines/spaces just before serialization — no rule
// phase is permitted to write these two columns directly. Both sides
// of a gap are seeded equal by visitor.initializeAll, so ordinarily
// either side already agrees with the other; newlines is reconciled
// with spec invariant 3's max (a line_break rule only ever writes
// lag_newlines, so taking the larger of the two never discards a gap
// neither rule touched). lag_spaces instead always takes prev.Spaces
// outright rather than a max: a space rule (tighten_parens, e.g.) may
// have forced Spaces strictly lower than the gap's original width, and
// a max there would silently restore the width the rule just removed.
func reconcile(terms []*token.Token) {
	for i := 0; i < len(terms)-1; i++ {
		nl := terms[i].Newlines
		if terms[i+1].LagNewlines > nl {
			nl = terms[i+1].LagNewlines
		}
		terms[i].Newlines = nl
		terms[i+1].LagSpaces = terms[i].Spaces
	}
}

func computeDepths(t *token.Token, d int, byID map[int]*token.Token, depth map[int]int) {
	byID[t.ID] = t
	depth[t.ID] = d
	for _, c := range t.Child {
		computeDepths(c, d+1, byID, depth)
	}
}

// indentOf resolves indent_ref_id transitively until a self-referential
// token is found. The self-referential base case
// uses base_indention plus a fixed two-space step per tree depth; a
// non-self reference uses the referenced token's own emitted column,
// giving exact alignment (styleguide's align_continuation_args rule
// is the one place Tidy sets a non-self reference). When
// use_raw_indention is set and the token was never pointed at a
// specific anchor by any indention rule (indent_ref_id is still the
// initialize-time self default), its original column is used verbatim
// instead and base_indention does not apply — base_indention only
// shifts indentation this engine actually computed.
func indentOf(t *token.Token, byID map[int]*token.Token, emittedCol map[int]int, depth map[int]int, opts Options) int {
	seen := make(map[int]bool)
	cur := t
	for !seen[cur.ID] {
		seen[cur.ID] = true
		if cur.IndentRefID == cur.ID {
			if opts.UseRawIndention {
				return cur.Col1 - 1
			}
			return opts.BaseIndention + depth[cur.ID]*2
		}
		next, ok := byID[cur.IndentRefID]
		if !ok {
			return opts.BaseIndention
		}
		if col, ok := emittedCol[next.ID]; ok {
			return col - 1
		}
		cur = next
	}
	return opts.BaseIndention
}

// byteOffset converts a 1-based (line, col) position into a byte
// offset into source. Columns are treated as byte offsets within their
// line (the host parser's own column numbering is assumed to agree,
// which holds for ASCII source; multi-byte UTF-8 columns would need
// the host parser to report rune rather than byte columns).
func byteOffset(source string, line, col int) int {
	lineStart, cur := 0, 1
	for i := 0; i < len(source) && cur < line; i++ {
		if source[i] == '\n' {
			cur++
			lineStart = i + 1
		}
	}
	return lineStart + col - 1
}
