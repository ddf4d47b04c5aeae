// Package token defines the row of the nested parse table that the
// rest of the formatting engine mutates: a Token carries its host
// parser identity, its source span, and the derived whitespace and
// indentation attributes the transformer pipeline writes.
package token

import "fmt"

// Kind identifies a token's lexical category. The tokenizer adapter
// enhances a few generic host-parser kinds (see Refine) into more
// specific ones so rule code doesn't need to inspect Text.
type Kind string

const (
	KindSymbol         Kind = "SYMBOL"
	KindNumber         Kind = "NUMBER"
	KindString         Kind = "STRING"
	KindComment        Kind = "COMMENT"
	KindLeftAssign     Kind = "LEFT_ASSIGN"  // <-
	KindEqAssign       Kind = "EQ_ASSIGN"    // =
	KindRightAssign    Kind = "RIGHT_ASSIGN" // ->
	KindPlus           Kind = "'+'"
	KindMinus          Kind = "'-'"
	KindStar           Kind = "'*'"
	KindSlash          Kind = "'/'"
	KindLParen         Kind = "'('"
	KindRParen         Kind = "')'"
	KindLBrace         Kind = "'{'"
	KindRBrace         Kind = "'}'"
	KindComma          Kind = "','"
	KindSemi           Kind = "';'"
	KindSpecial        Kind = "SPECIAL"      // generic %...% before refinement
	KindSpecialPipe    Kind = "SPECIAL-PIPE" // %>%
	KindSpecialIn      Kind = "SPECIAL-IN"   // %in%
	KindSpecialOther   Kind = "SPECIAL-OTHER"
	KindExprNonterm    Kind = "expr"  // synthetic non-terminal introduced by the nester
	KindProgramNonterm Kind = "exprlist"
	KindCallNonterm    Kind = "call"
	KindParenNonterm   Kind = "paren"
	KindBlockNonterm   Kind = "block"
	KindUnaryNonterm   Kind = "unary"
	KindEOF            Kind = "EOF"
)

// Token is a single row of the parse table. Fields in the first group
// are immutable identity/position data obtained from the host parser
// (possibly refined by the tokenizer adapter). Fields in the second
// group are derived and mutated by later pipeline stages.
type Token struct {
	// Identity, from the host parser.
	ID       int
	Parent   int // 0 for top-level, negative for a leading comment attached to the following expression
	Line1    int
	Col1     int
	Line2    int
	Col2     int
	Kind     Kind
	Text     string
	Terminal bool

	// Derived by the tokenizer adapter (A), once, on the flat table.
	PosID       string
	TokenBefore Kind
	TokenAfter  Kind

	// Mutated by the transformer visitor (F) under the rule-phase
	// permission matrix (spec.md §4.F).
	LagNewlines  int
	Newlines     int
	Spaces       int
	LagSpaces    int
	MultiLine    bool
	IndentRefID  int
	Block        int
	IsCached     bool
	StylerIgnore bool

	// Owned children, in source order. Empty for terminals.
	Child []*Token
}

// Position formats a human-readable line:col span for error messages.
func (t *Token) Position() string {
	if t.Line1 == t.Line2 {
		return fmt.Sprintf("%d:%d-%d", t.Line1, t.Col1, t.Col2)
	}
	return fmt.Sprintf("%d:%d-%d:%d", t.Line1, t.Col1, t.Line2, t.Col2)
}

// IsTopLevel reports whether t is a top-level expression (spec.md §3).
func (t *Token) IsTopLevel() bool {
	return t.Parent == 0
}

// IsLeadingComment reports whether t is a comment attached to the
// following top-level expression (Parent < 0 per spec.md §3).
func (t *Token) IsLeadingComment() bool {
	return t.Parent < 0
}

// Refine upgrades a generic SPECIAL token into SPECIAL-PIPE,
// SPECIAL-IN, or SPECIAL-OTHER based on its literal text, per
// spec.md §4.A. Any other kind passes through unchanged.
func Refine(kind Kind, text string) Kind {
	if kind != KindSpecial {
		return kind
	}
	switch text {
	case "%>%":
		return KindSpecialPipe
	case "%in%":
		return KindSpecialIn
	default:
		return KindSpecialOther
	}
}

// Walk visits t and every descendant in child order, depth-first,
// parent before children.
func Walk(t *Token, visit func(*Token)) {
	if t == nil {
		return
	}
	visit(t)
	for _, c := range t.Child {
		Walk(c, visit)
	}
}

// Leaves returns every terminal descendant of t (or t itself, if
// terminal) in source order.
func Leaves(t *Token) []*Token {
	var out []*Token
	Walk(t, func(tok *Token) {
		if tok.Terminal {
			out = append(out, tok)
		}
	})
	return out
}

// First returns t's first terminal descendant, or t itself if t is
// already terminal. Rules that want to set a leading whitespace
// attribute on a (possibly non-terminal) child must target First(child),
// since only terminals carry the fields the serializer reads.
func First(t *Token) *Token {
	for !t.Terminal && len(t.Child) > 0 {
		t = t.Child[0]
	}
	return t
}

// Last returns t's last terminal descendant, or t itself if t is
// already terminal.
func Last(t *Token) *Token {
	for !t.Terminal && len(t.Child) > 0 {
		t = t.Child[len(t.Child)-1]
	}
	return t
}
