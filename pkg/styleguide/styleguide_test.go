package styleguide

import (
	"testing"

	"github.com/aledsdavies/gostyler/internal/oplang"
	"github.com/aledsdavies/gostyler/pkg/nester"
	"github.com/aledsdavies/gostyler/pkg/normalize"
	"github.com/aledsdavies/gostyler/pkg/serializer"
	"github.com/aledsdavies/gostyler/pkg/splicer"
	"github.com/aledsdavies/gostyler/pkg/tokenizer"
	"github.com/aledsdavies/gostyler/pkg/visitor"
)

// style runs the full in-process pipeline (minus ignore/cache, which
// have their own package tests) against Tidy, mirroring what
// pkg/engine.StyleText does, so these tests exercise the rules
// against spec.md §8's concrete scenarios end to end.
func style(t *testing.T, src string, strict bool, scope visitor.Scope) string {
	t.Helper()
	flat, err := tokenizer.Adapt(oplang.NewHostParser(), "t.R", src)
	if err != nil {
		t.Fatalf("Adapt: %v", err)
	}
	roots := nester.Nest(flat)
	normalize.Normalize(roots, false)

	guide := Tidy()
	ctx := &visitor.Context{Strict: strict, Scope: scope}
	roots = visitor.Run(roots, guide, ctx)

	out, spans, _ := serializer.Serialize(roots, src, serializer.Options{UseRawIndention: guide.UseRawIndention})
	return splicer.Splice(out, src, spans)
}

func TestScenarioTightenCallParens(t *testing.T) {
	got := style(t, "call( 3)", true, visitor.ScopeTokens)
	if got != "call(3)" {
		t.Errorf("got %q, want %q", got, "call(3)")
	}
}

func TestScenarioUnaryAndBinarySpacing(t *testing.T) {
	got := style(t, "a<-3++1", true, visitor.ScopeTokens)
	if got != "a <- 3 + +1" {
		t.Errorf("got %q, want %q", got, "a <- 3 + +1")
	}
}

func TestScenarioCommaSpacing(t *testing.T) {
	got := style(t, "call(1,2, 3)", true, visitor.ScopeTokens)
	if got != "call(1, 2, 3)" {
		t.Errorf("got %q, want %q", got, "call(1, 2, 3)")
	}
}

func TestScenarioPipeChainOneStepPerLineOnceWrapped(t *testing.T) {
	got := style(t, "a %>% b(1) %>%\n  c", true, visitor.ScopeLineBreaks)
	want := "a %>%\n    b(1) %>%\n  c"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestScenarioPipeChainUntouchedWhenAlreadySingleLine(t *testing.T) {
	got := style(t, "a %>% b %>% c", true, visitor.ScopeLineBreaks)
	if got != "a %>% b %>% c" {
		t.Errorf("a single-line pipe chain should not be reflowed, got %q", got)
	}
}

func TestIdempotence(t *testing.T) {
	once := style(t, "a<-3++1", true, visitor.ScopeTokens)
	twice := style(t, once, true, visitor.ScopeTokens)
	if once != twice {
		t.Errorf("styling is not idempotent: %q then %q", once, twice)
	}
}

func TestNonStrictOnlyAddsMinimumSpacing(t *testing.T) {
	got := style(t, "a  <-  1", false, visitor.ScopeTokens)
	if got != "a  <-  1" {
		t.Errorf("non-strict add_* rules should not remove extra spacing, got %q", got)
	}
}

func TestScenarioNonStrictPreservesSpacingAcrossOperatorChain(t *testing.T) {
	got := style(t, "1  +  2", false, visitor.ScopeTokens)
	if got != "1  +  2" {
		t.Errorf("non-strict spacing around an operator chain should not be narrowed, got %q", got)
	}
}

func TestScenarioAssignmentSpacingWithTrailingComment(t *testing.T) {
	got := style(t, "a<-1 # set a", true, visitor.ScopeTokens)
	want := "a <- 1 # set a"
	if got != want {
		t.Errorf("a trailing comment should not suppress assignment spacing: got %q, want %q", got, want)
	}
}

func TestScenarioOperatorChainSpacingWithTrailingComment(t *testing.T) {
	got := style(t, "1+1 # hi", true, visitor.ScopeTokens)
	want := "1 + 1 # hi"
	if got != want {
		t.Errorf("a trailing comment should not suppress operator spacing: got %q, want %q", got, want)
	}
}

func TestScenarioMultiLineCallArgumentsAlignUnderOpenParen(t *testing.T) {
	got := style(t, "call(1,\n  2,\n  3)", true, visitor.ScopeTokens)
	want := "call(1,\n    2,\n    3)"
	if got != want {
		t.Errorf("wrapped call arguments should align under the '(' column: got %q, want %q", got, want)
	}
}
