// Package visitor implements component F of the formatting pipeline
// (spec.md §4.F): the phase-ordered walk over the nested parse table
// that a style guide's rules mutate. It owns the phase order, which
// phases a scope runs, and the traversal order (parent-before-child
// for line_break/space/token, child-before-parent for indention); it
// knows nothing about what any particular rule does, and it does not
// check which columns a rule writes (see Rule).
package visitor

import "github.com/aledsdavies/gostyler/pkg/token"

// Scope is the invasiveness level requested for a styling run
// (spec.md §6): spaces ⊂ indention ⊂ line_breaks ⊂ tokens.
type Scope string

const (
	ScopeSpaces     Scope = "spaces"
	ScopeIndention  Scope = "indention"
	ScopeLineBreaks Scope = "line_breaks"
	ScopeTokens     Scope = "tokens"
)

var scopeRank = map[Scope]int{
	ScopeSpaces:     1,
	ScopeIndention:  2,
	ScopeLineBreaks: 3,
	ScopeTokens:     4,
}

var phaseRank = map[phase]int{
	phaseSpace:     1,
	phaseIndention: 2,
	phaseLineBreak: 3,
	phaseToken:     4,
}

func (s Scope) allows(p phase) bool { return phaseRank[p] <= scopeRank[s] }

type phase int

const (
	phaseLineBreak phase = iota
	phaseSpace
	phaseToken
	phaseIndention
)

// Rule is one pure rule function registered into a phase's ordered
// list. Apply receives the nest (the non-terminal or terminal token
// the phase is currently positioned at) and must only write the
// column its phase owns.
type Rule struct {
	Name  string
	Apply func(nest *token.Token, ctx *Context)
}

// Guide is the ordered tuple of phase rule lists a style guide
// contributes, plus the two cross-cutting flags spec.md §4.F and §4.H
// call out.
type Guide struct {
	Name, Version   string
	LineBreak       []Rule
	Space           []Rule
	Token           []Rule
	Indention       []Rule
	UseRawIndention bool
}

// Context carries the run-wide options rules may read (never write).
type Context struct {
	Strict                 bool
	Scope                  Scope
	IncludeRoxygenExamples bool
	BaseIndention          int
}

// Run applies guide's phases, in fixed order, to every root in roots
// and every nest beneath it. roots is wrapped in a synthetic program
// nest (token.KindProgramNonterm) first, so a line_break rule can
// decide spacing *between* top-level expressions the same way it
// would between any other pair of siblings; Run returns the
// (possibly reordered) roots from that wrapper's Child afterwards.
func Run(roots []*token.Token, guide Guide, ctx *Context) []*token.Token {
	initializeAll(roots)

	program := &token.Token{Kind: token.KindProgramNonterm, Child: roots}
	runNest(program, guide, ctx)
	return program.Child
}

// initializeAll sets the defaults spec.md §4.F's "initialize" phase
// owns: indent_ref_id = self, multi_line from the token's own span,
// and lag_newlines/newlines/spaces/lag_spaces computed verbatim from
// each terminal's position relative to its predecessor (spec.md
// invariant 5 — a token nothing ever rewrites keeps emitting exactly
// what it started with). Newlines and Spaces are seeded on the leading
// token of each gap in lockstep with LagNewlines/LagSpaces on the
// trailing one, since they describe the same gap from opposite sides:
// without this, an ungoverned gap's Spaces stays at its zero value and
// pkg/serializer.reconcile later derives LagSpaces from that zero,
// silently collapsing the original spacing to nothing.
func initializeAll(roots []*token.Token) {
	for _, r := range roots {
		token.Walk(r, func(t *token.Token) {
			t.IndentRefID = t.ID
			t.MultiLine = t.Line1 != t.Line2
		})
	}

	var terms []*token.Token
	for _, r := range roots {
		terms = append(terms, token.Leaves(r)...)
	}
	for i, t := range terms {
		if i == 0 {
			t.LagNewlines = t.Line1 - 1
			t.LagSpaces = t.Col1 - 1
			continue
		}
		prev := terms[i-1]
		if t.Line1 == prev.Line2 {
			prev.Newlines = 0
			prev.Spaces = t.Col1 - prev.Col2
			t.LagNewlines = 0
			t.LagSpaces = prev.Spaces
		} else {
			prev.Newlines = t.Line1 - prev.Line2
			prev.Spaces = 0
			t.LagNewlines = prev.Newlines
			t.LagSpaces = 0
		}
	}
}

// runNest applies the rule phases to n, then recurses. stylerignore
// nests are skipped entirely — their initialize-time defaults are
// left standing, which is what preserves their original whitespace
// (spec.md invariant 5); K's byte-level splice is the backstop.
func runNest(n *token.Token, guide Guide, ctx *Context) {
	if !n.StylerIgnore {
		if ctx.Scope.allows(phaseLineBreak) {
			applyRules(n, guide.LineBreak, ctx)
		}
		if ctx.Scope.allows(phaseSpace) {
			applyRules(n, guide.Space, ctx)
		}
		if ctx.Scope.allows(phaseToken) {
			applyRules(n, guide.Token, ctx)
		}
	}

	for _, c := range n.Child {
		runNest(c, guide, ctx)
	}

	if !n.StylerIgnore && ctx.Scope.allows(phaseIndention) {
		applyRules(n, guide.Indention, ctx)
	}
}

func applyRules(n *token.Token, rules []Rule, ctx *Context) {
	for _, r := range rules {
		r.Apply(n, ctx)
	}
}

// SetSpaces writes n.Spaces under set_*/add_* semantics (spec.md
// §4.G): strict forces the exact value; non-strict only raises it to
// at least want, never lowers it. Exported because every space rule
// in every style guide needs it, not just this package's callers.
func SetSpaces(n *token.Token, want int, strict bool) {
	if strict {
		n.Spaces = want
		return
	}
	if n.Spaces < want {
		n.Spaces = want
	}
}

// SetLagNewlines is SetSpaces' analogue for the line_break phase.
func SetLagNewlines(n *token.Token, want int, strict bool) {
	if strict {
		n.LagNewlines = want
		return
	}
	if n.LagNewlines < want {
		n.LagNewlines = want
	}
}
