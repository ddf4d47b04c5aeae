// Package validator implements component I (spec.md §4.I): it
// re-parses styled output and compares its non-comment token sequence
// against the input's, failing with AstDrift on any mismatch.
package validator

import (
	"github.com/google/go-cmp/cmp"

	"github.com/aledsdavies/gostyler/internal/styleerr"
	"github.com/aledsdavies/gostyler/pkg/hostparser"
	"github.com/aledsdavies/gostyler/pkg/token"
	"github.com/aledsdavies/gostyler/pkg/tokenizer"
)

type pair struct{ Kind, Text string }

// Validate re-parses output with parser and compares its significant
// (non-comment, non-whitespace) token sequence to input's own. It
// returns nil when they match, a styleerr.StyleError (kind
// ErrAstDrift) carrying a diff hint otherwise. The caller is
// responsible for invoking Validate only when the run's scope
// excludes the tokens phase (spec.md §4.I) — scopes that permit token
// rewrites are expected to diverge and skip validation entirely.
func Validate(parser hostparser.Parser, path, input, output string) *styleerr.StyleError {
	before, err := significant(parser, path, input)
	if err != nil {
		return err
	}
	after, err := significant(parser, path, output)
	if err != nil {
		return err
	}

	if diff := cmp.Diff(before, after); diff != "" {
		e := styleerr.NewAstDriftError(path, diff)
		return e
	}
	return nil
}

func significant(parser hostparser.Parser, path, source string) ([]pair, *styleerr.StyleError) {
	flat, err := tokenizer.Adapt(parser, path, source)
	if err != nil {
		if se, ok := err.(*styleerr.StyleError); ok {
			return nil, se
		}
		return nil, styleerr.NewParseError(path, 1, 1, err)
	}

	var out []pair
	for _, t := range flat {
		if !t.Terminal || t.Kind == token.KindComment {
			continue
		}
		out = append(out, pair{Kind: string(t.Kind), Text: t.Text})
	}
	return out, nil
}
