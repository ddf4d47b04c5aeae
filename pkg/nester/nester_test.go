package nester

import (
	"testing"

	"github.com/aledsdavies/gostyler/internal/oplang"
	"github.com/aledsdavies/gostyler/pkg/token"
	"github.com/aledsdavies/gostyler/pkg/tokenizer"
)

func TestNestProducesTopLevelRootsOnly(t *testing.T) {
	flat, err := tokenizer.Adapt(oplang.NewHostParser(), "t.R", "a <- 1 + 2\nb <- call(3)")
	if err != nil {
		t.Fatalf("Adapt: %v", err)
	}
	roots := Nest(flat)

	if len(roots) != 2 {
		t.Fatalf("len(roots) = %d, want 2", len(roots))
	}
	for _, r := range roots {
		if !r.IsTopLevel() {
			t.Errorf("root %+v is not top-level", r)
		}
	}
}

func TestNestPreservesSourceOrderInChildren(t *testing.T) {
	flat, err := tokenizer.Adapt(oplang.NewHostParser(), "t.R", "call(1, 2, 3)")
	if err != nil {
		t.Fatalf("Adapt: %v", err)
	}
	roots := Nest(flat)
	if len(roots) != 1 {
		t.Fatalf("len(roots) = %d, want 1", len(roots))
	}

	var texts []string
	token.Walk(roots[0], func(tok *token.Token) {
		if tok.Terminal {
			texts = append(texts, tok.Text)
		}
	})
	want := []string{"call", "(", "1", ",", "2", ",", "3", ")"}
	if len(texts) != len(want) {
		t.Fatalf("texts = %v, want %v", texts, want)
	}
	for i := range want {
		if texts[i] != want[i] {
			t.Fatalf("texts = %v, want %v", texts, want)
		}
	}
}

func TestNestTerminatesOnDeeplyNestedInput(t *testing.T) {
	flat, err := tokenizer.Adapt(oplang.NewHostParser(), "t.R", "(((((1)))))")
	if err != nil {
		t.Fatalf("Adapt: %v", err)
	}
	roots := Nest(flat)
	if len(roots) != 1 {
		t.Fatalf("len(roots) = %d, want 1", len(roots))
	}
}
