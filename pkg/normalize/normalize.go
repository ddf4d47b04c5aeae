// Package normalize implements component E of the formatting pipeline
// (spec.md §4.E): three rewrites applied to the nested parse table
// after the nester (D) has run and before the transformer visitor (F)
// ever sees it, so rule code never has to special-case operator
// associativity or assignment spelling.
package normalize

import (
	"sort"

	"github.com/aledsdavies/gostyler/pkg/token"
)

// operatorFamilies groups terminal kinds that share a precedence level
// and should be flattened into one n-ary node together. Assignment
// (LEFT_ASSIGN / EQ_ASSIGN) is handled separately by RelocateAssignment,
// not folded in here.
var operatorFamilies = [][]token.Kind{
	{token.KindPlus, token.KindMinus},
	{token.KindStar, token.KindSlash},
	{token.KindSpecialPipe},
}

// Normalize runs all three rewrites, in order, over every top-level
// root (and its descendants) in roots, then assigns block ids across
// roots. It mutates the trees in place.
func Normalize(roots []*token.Token, cachingEnabled bool) {
	for _, r := range roots {
		FlattenOperators(r)
		RelocateAssignment(r)
	}
	AssignBlocks(roots, cachingEnabled)
}

// FlattenOperators collapses nested same-family binary-operator nodes
// into one node carrying the full (operand, op, operand, op, ...)
// sequence as direct children, so a chain like `a + b + c` — however
// the host parser nested it, left- or right-associatively — becomes a
// single node rule code can inspect without recursing. Child order is
// always re-derived from PosID, so this never changes emitted token
// order (spec.md §4.E invariant).
func FlattenOperators(root *token.Token) {
	if root == nil {
		return
	}
	for _, c := range root.Child {
		FlattenOperators(c)
	}

	fam := chainFamily(root)
	if fam == nil {
		return
	}

	for {
		absorbedAny := false
		var flat []*token.Token
		for _, c := range root.Child {
			if sameFamily(chainFamily(c), fam) {
				flat = append(flat, c.Child...)
				absorbedAny = true
				continue
			}
			flat = append(flat, c)
		}
		root.Child = flat
		if !absorbedAny {
			break
		}
	}
	sort.SliceStable(root.Child, func(i, j int) bool { return root.Child[i].PosID < root.Child[j].PosID })
}

// significantChildren returns n's children excluding comments: a
// trailing end-of-line comment attaches as a direct child of the
// statement it trails (internal/oplang/parser.go's attachComments),
// so operand/parity counting must skip it rather than mistake it for
// an operand.
func significantChildren(n *token.Token) []*token.Token {
	out := make([]*token.Token, 0, len(n.Child))
	for _, c := range n.Child {
		if c.Kind != token.KindComment {
			out = append(out, c)
		}
	}
	return out
}

// chainFamily reports the operator family a binary-chain node belongs
// to (nil if root isn't one): an "expr" node with an odd number of
// (non-comment) children, at least 3, whose odd-positioned children
// are all terminals from the same family.
func chainFamily(root *token.Token) []token.Kind {
	if root.Kind != token.KindExprNonterm {
		return nil
	}
	children := significantChildren(root)
	if len(children) < 3 || len(children)%2 == 0 {
		return nil
	}
	var fam []token.Kind
	for i := 1; i < len(children); i += 2 {
		op := children[i]
		if !op.Terminal {
			return nil
		}
		f := familyOf(op.Kind)
		if f == nil {
			return nil
		}
		if fam == nil {
			fam = f
		} else if !sameFamily(fam, f) {
			return nil
		}
	}
	return fam
}

func familyOf(k token.Kind) []token.Kind {
	for _, fam := range operatorFamilies {
		for _, m := range fam {
			if m == k {
				return fam
			}
		}
	}
	return nil
}

func sameFamily(a, b []token.Kind) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// RelocateAssignment canonicalizes every EQ_ASSIGN node into the same
// shape LEFT_ASSIGN already has: a single "expr" node with exactly
// [lhs, op, rhs] as direct children, in source order. oplang's own
// parser already builds '=' this way, so against it this is a no-op;
// it exists so a differently-shaped host parser (one that, say, nests
// '=' one level deeper than '<-') still produces a table the same
// spacing rule can drive for both operators.
func RelocateAssignment(root *token.Token) {
	token.Walk(root, func(t *token.Token) {
		if t.Kind != token.KindExprNonterm {
			return
		}
		opIdx := -1
		for i, c := range t.Child {
			if c.Terminal && c.Kind == token.KindEqAssign {
				opIdx = i
				break
			}
		}
		if opIdx < 0 {
			return
		}
		op := t.Child[opIdx]

		var lhs, rhs *token.Token
		var comments []*token.Token
		for _, c := range t.Child {
			if c == op {
				continue
			}
			if c.Kind == token.KindComment {
				comments = append(comments, c)
				continue
			}
			if c.PosID < op.PosID {
				lhs = c
			} else if rhs == nil || c.PosID < rhs.PosID {
				rhs = c
			}
		}
		if lhs == nil || rhs == nil {
			return
		}
		t.Child = append([]*token.Token{lhs, op, rhs}, comments...)
		sort.SliceStable(t.Child, func(i, j int) bool { return t.Child[i].PosID < t.Child[j].PosID })
	})
}

// AssignBlocks sets Block on every top-level root (spec.md §4.E): two
// consecutive roots share a block iff the first's Line2 equals the
// second's Line1. roots must already be in PosID order. When caching
// is disabled, every root gets block 1 — block ids are read only by
// the engine's cache-block terminalizer, which looks for blocks that
// mix cached and uncached roots.
func AssignBlocks(roots []*token.Token, cachingEnabled bool) {
	if !cachingEnabled {
		for _, r := range roots {
			r.Block = 1
		}
		return
	}

	next := 1
	for i, r := range roots {
		if i > 0 && roots[i-1].Line2 == r.Line1 {
			r.Block = roots[i-1].Block
			continue
		}
		r.Block = next
		next++
	}
}
