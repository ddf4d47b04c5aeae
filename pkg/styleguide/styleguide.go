// Package styleguide provides the concrete rule library component G
// names (spec.md §4.G) builds on top of the visitor's phase machinery:
// a single bundled style guide, Tidy, covering the spacing, line-break
// and indentation conventions exercised by spec.md §8's scenarios.
// Style guides are data (ordered rule lists), not types, per spec.md
// §9's design note — a caller who wants a different convention builds
// a different visitor.Guide value rather than subclassing anything.
package styleguide

import (
	"github.com/aledsdavies/gostyler/pkg/token"
	"github.com/aledsdavies/gostyler/pkg/visitor"
)

// operatorFamilies mirrors pkg/normalize's, restated here because a
// rule needs to recognize a flattened chain node by its member kinds
// without importing the normalizer (which runs long before rules do).
var operatorFamilies = [][]token.Kind{
	{token.KindPlus, token.KindMinus},
	{token.KindStar, token.KindSlash},
	{token.KindSpecialPipe},
}

func isChainFamily(op token.Kind) bool {
	for _, fam := range operatorFamilies {
		for _, k := range fam {
			if k == op {
				return true
			}
		}
	}
	return false
}

// significantChildren mirrors pkg/normalize's helper of the same name,
// restated here for the same reason operatorFamilies is: a trailing
// end-of-line comment attaches as a direct child of the top-level
// expression it trails, so any rule counting operands by position
// must filter it out first or miscount the comment as one.
func significantChildren(n *token.Token) []*token.Token {
	out := make([]*token.Token, 0, len(n.Child))
	for _, c := range n.Child {
		if c.Kind != token.KindComment {
			out = append(out, c)
		}
	}
	return out
}

// Tidy is the bundled default style guide: tight call/paren grouping,
// single spaces around binary operators and assignment, no space
// between a unary operator and its operand, one top-level expression
// per source line, and depth-based indentation with alignment of
// wrapped call arguments under the opening paren.
func Tidy() visitor.Guide {
	return visitor.Guide{
		Name:    "tidy",
		Version: "1",
		LineBreak: []visitor.Rule{
			{Name: "one_statement_per_line", Apply: oneStatementPerLine},
			{Name: "pipe_chain_linebreak", Apply: pipeChainLineBreak},
		},
		Space: []visitor.Rule{
			{Name: "tighten_parens", Apply: tightenParens},
			{Name: "comma_spacing", Apply: commaSpacing},
			{Name: "space_around_assignment", Apply: spaceAroundAssignment},
			{Name: "space_around_operator_chain", Apply: spaceAroundOperatorChain},
			{Name: "tight_unary", Apply: tightUnary},
		},
		Indention: []visitor.Rule{
			{Name: "align_continuation_args", Apply: alignContinuationArgs},
		},
	}
}

// oneStatementPerLine only fires at the synthetic program nest Run
// builds around the top-level roots: every statement after the first
// starts on a new line. It only ever raises lag_newlines, so it can
// never be the rule that removes a break across a trailing comment
// (spec.md §4.G's required property holds trivially here).
func oneStatementPerLine(n *token.Token, ctx *visitor.Context) {
	if n.Kind != token.KindProgramNonterm {
		return
	}
	for i, c := range n.Child {
		if i == 0 {
			continue
		}
		visitor.SetLagNewlines(token.First(c), 1, ctx.Strict)
	}
}

// pipeChainLineBreak puts each step of a magrittr-style %>% chain on
// its own line once the chain already spans more than one source
// line: a chain the author already wrapped stays wrapped one step per
// line rather than collapsing back to a single run-on line. A chain
// that fits on one line in the source is left alone.
func pipeChainLineBreak(n *token.Token, ctx *visitor.Context) {
	if n.Kind != token.KindExprNonterm {
		return
	}
	children := significantChildren(n)
	if len(children) < 3 || len(children)%2 == 0 {
		return
	}
	op := children[1]
	if !op.Terminal || op.Kind != token.KindSpecialPipe || !n.MultiLine {
		return
	}
	for i := 1; i < len(children)-1; i += 2 {
		visitor.SetLagNewlines(token.First(children[i+1]), 1, ctx.Strict)
	}
}

// tightenParens removes (strict) or simply never adds (non-strict)
// the space just inside '(' ... ')' for call and paren nests:
// `call( 3)` -> `call(3)`.
func tightenParens(n *token.Token, ctx *visitor.Context) {
	if n.Kind != token.KindCallNonterm && n.Kind != token.KindParenNonterm {
		return
	}
	openIdx := -1
	for i, c := range n.Child {
		if c.Kind == token.KindLParen {
			openIdx = i
			break
		}
	}
	closeIdx := len(n.Child) - 1
	if openIdx < 0 || closeIdx <= openIdx || n.Child[closeIdx].Kind != token.KindRParen {
		return
	}
	visitor.SetSpaces(n.Child[openIdx], 0, ctx.Strict)
	if closeIdx > openIdx+1 {
		visitor.SetSpaces(token.Last(n.Child[closeIdx-1]), 0, ctx.Strict)
	}
}

// commaSpacing enforces no space before a comma and exactly one (or
// at least one) space after it, wherever a comma appears as a direct
// child of a nest (call argument lists today; any future comma-
// separated construct for free).
func commaSpacing(n *token.Token, ctx *visitor.Context) {
	for i, c := range n.Child {
		if c.Kind != token.KindComma {
			continue
		}
		if i > 0 {
			visitor.SetSpaces(token.Last(n.Child[i-1]), 0, ctx.Strict)
		}
		if i < len(n.Child)-1 {
			visitor.SetSpaces(c, 1, ctx.Strict)
		}
	}
}

// spaceAroundAssignment handles the `<-`/`=` shape RelocateAssignment
// guarantees: exactly one space before and after the operator.
func spaceAroundAssignment(n *token.Token, ctx *visitor.Context) {
	if n.Kind != token.KindExprNonterm {
		return
	}
	children := significantChildren(n)
	if len(children) != 3 {
		return
	}
	op := children[1]
	if op.Kind != token.KindLeftAssign && op.Kind != token.KindEqAssign {
		return
	}
	visitor.SetSpaces(token.Last(children[0]), 1, ctx.Strict)
	visitor.SetSpaces(op, 1, ctx.Strict)
}

// spaceAroundOperatorChain handles a normalizer-flattened arithmetic
// or pipe chain: one space after every element but the last (so both
// "operand space operator" and "operator space operand" transitions
// get exactly one space). The trailing edge of the whole chain is the
// enclosing nest's concern, not this rule's.
func spaceAroundOperatorChain(n *token.Token, ctx *visitor.Context) {
	if n.Kind != token.KindExprNonterm {
		return
	}
	children := significantChildren(n)
	if len(children) < 3 || len(children)%2 == 0 {
		return
	}
	op := children[1]
	if !op.Terminal || !isChainFamily(op.Kind) {
		return
	}
	for i := 0; i < len(children)-1; i++ {
		visitor.SetSpaces(token.Last(children[i]), 1, ctx.Strict)
	}
}

// tightUnary removes the space between a prefix '+'/'-' and its
// operand: `3++1` normalizes to a chain whose second operand is a
// unary node, and this keeps it rendering as `+1`, not `+ 1`.
func tightUnary(n *token.Token, ctx *visitor.Context) {
	if n.Kind != token.KindUnaryNonterm || len(n.Child) != 2 {
		return
	}
	visitor.SetSpaces(n.Child[0], 0, ctx.Strict)
}

// alignContinuationArgs is the one case in Tidy that points
// indent_ref_id somewhere other than self: when a call's argument
// list spans more than one line, every argument after the first gets
// indent_ref_id set to the call's own '(' terminal, so the serializer
// starts each wrapped argument in the same column as that '('.
func alignContinuationArgs(n *token.Token, ctx *visitor.Context) {
	if n.Kind != token.KindCallNonterm || !n.MultiLine {
		return
	}
	openIdx := -1
	for i, c := range n.Child {
		if c.Kind == token.KindLParen {
			openIdx = i
			break
		}
	}
	if openIdx < 0 {
		return
	}
	open := n.Child[openIdx]
	for _, c := range n.Child[openIdx+1:] {
		if c.Kind == token.KindComma || c.Kind == token.KindRParen || c.Kind == token.KindComment {
			continue
		}
		first := token.First(c)
		if first.Line1 != open.Line1 {
			first.IndentRefID = open.ID
		}
	}
}
