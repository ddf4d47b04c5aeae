package validator

import (
	"testing"

	"github.com/aledsdavies/gostyler/internal/oplang"
	"github.com/aledsdavies/gostyler/internal/styleerr"
)

func TestValidateAcceptsWhitespaceOnlyReformatting(t *testing.T) {
	p := oplang.NewHostParser()
	err := Validate(p, "t.R", "a<-1+2", "a <- 1 + 2")
	if err != nil {
		t.Errorf("Validate returned %v, want nil for a pure whitespace reformat", err)
	}
}

func TestValidateIgnoresCommentChanges(t *testing.T) {
	p := oplang.NewHostParser()
	err := Validate(p, "t.R", "a <- 1 # old comment", "a <- 1 # reworded comment")
	if err != nil {
		t.Errorf("Validate returned %v, want nil since only a comment's text changed", err)
	}
}

func TestValidateFlagsAstDriftOnTokenChange(t *testing.T) {
	p := oplang.NewHostParser()
	err := Validate(p, "t.R", "a <- 1 + 2", "a <- 1 - 2")
	if err == nil {
		t.Fatal("Validate returned nil, want an AstDrift error for a changed operator")
	}
	if err.Kind != styleerr.ErrAstDrift {
		t.Errorf("Kind = %v, want ErrAstDrift", err.Kind)
	}
}

func TestValidateReturnsParseErrorWhenOutputFailsToParse(t *testing.T) {
	p := oplang.NewHostParser()
	err := Validate(p, "t.R", "a <- 1", "a <- (1")
	if err == nil {
		t.Fatal("Validate returned nil, want a parse error for unbalanced output")
	}
	if err.Kind != styleerr.ErrParse {
		t.Errorf("Kind = %v, want ErrParse", err.Kind)
	}
}
