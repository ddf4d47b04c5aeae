package normalize

import (
	"testing"

	"github.com/aledsdavies/gostyler/internal/oplang"
	"github.com/aledsdavies/gostyler/pkg/nester"
	"github.com/aledsdavies/gostyler/pkg/token"
	"github.com/aledsdavies/gostyler/pkg/tokenizer"
)

func parseAndNest(t *testing.T, src string) []*token.Token {
	t.Helper()
	flat, err := tokenizer.Adapt(oplang.NewHostParser(), "t.R", src)
	if err != nil {
		t.Fatalf("Adapt: %v", err)
	}
	return nester.Nest(flat)
}

func TestFlattenOperatorsCollapsesChain(t *testing.T) {
	roots := parseAndNest(t, "1 + 2 + 3")
	FlattenOperators(roots[0])

	root := roots[0]
	if len(root.Child) != 5 {
		t.Fatalf("len(Child) = %d, want 5 (operand,op,operand,op,operand)", len(root.Child))
	}
	var texts []string
	for _, c := range root.Child {
		texts = append(texts, c.Text)
	}
	want := []string{"1", "+", "2", "+", "3"}
	for i, w := range want {
		if texts[i] != w {
			t.Fatalf("texts = %v, want %v", texts, want)
		}
	}
}

func TestFlattenOperatorsDoesNotMixFamilies(t *testing.T) {
	roots := parseAndNest(t, "1 + 2 * 3")
	FlattenOperators(roots[0])

	root := roots[0]
	if len(root.Child) != 3 {
		t.Fatalf("len(Child) = %d, want 3 (left, +, right-subtree)", len(root.Child))
	}
	if root.Child[1].Kind != token.KindPlus {
		t.Fatalf("Child[1].Kind = %v, want '+'", root.Child[1].Kind)
	}
	rhs := root.Child[2]
	if rhs.Terminal {
		t.Fatal("the '2 * 3' operand should still be its own subtree, not flattened into the outer chain")
	}
}

func TestRelocateAssignmentShapesEqAssignLikeLeftAssign(t *testing.T) {
	roots := parseAndNest(t, "a = 1")
	RelocateAssignment(roots[0])

	root := roots[0]
	if len(root.Child) != 3 {
		t.Fatalf("len(Child) = %d, want 3", len(root.Child))
	}
	if root.Child[1].Kind != token.KindEqAssign {
		t.Fatalf("Child[1].Kind = %v, want EQ_ASSIGN", root.Child[1].Kind)
	}
	if root.Child[0].Text != "a" || root.Child[2].Text != "1" {
		t.Fatalf("lhs/rhs = %q/%q, want a/1", root.Child[0].Text, root.Child[2].Text)
	}
}

func TestAssignBlocksGroupsBySharedLine(t *testing.T) {
	roots := parseAndNest(t, "a <- 1; b <- 2\nc <- 3")
	AssignBlocks(roots, true)

	if len(roots) != 3 {
		t.Fatalf("len(roots) = %d, want 3", len(roots))
	}
	if roots[0].Block != roots[1].Block {
		t.Error("statements sharing a source line should share a block id")
	}
	if roots[1].Block == roots[2].Block {
		t.Error("statements on different lines should not share a block id")
	}
}

func TestAssignBlocksWithCachingDisabledUsesOneBlock(t *testing.T) {
	roots := parseAndNest(t, "a <- 1\nb <- 2\nc <- 3")
	AssignBlocks(roots, false)
	for _, r := range roots {
		if r.Block != 1 {
			t.Errorf("Block = %d, want 1 when caching is disabled", r.Block)
		}
	}
}
