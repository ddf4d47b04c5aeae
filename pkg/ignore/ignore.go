// Package ignore scans comment tokens for configured start/stop
// markers, computes the ignore ranges they bracket, and tags every
// token whose span overlaps one with StylerIgnore.
package ignore

import (
	"regexp"
	"sort"

	"github.com/aledsdavies/gostyler/internal/styleerr"
	"github.com/aledsdavies/gostyler/pkg/token"
)

// Markers holds the process-wide marker regular expressions.
type Markers struct {
	Start *regexp.Regexp // e.g. (?i)# *styler: *off
	Stop  *regexp.Regexp // e.g. (?i)# *styler: *on
}

// DefaultMarkers returns the conventional "# styler: off" / "# styler: on"
// markers.
func DefaultMarkers() Markers {
	return Markers{
		Start: regexp.MustCompile(`(?i)^#+\s*styler:\s*off\s*$`),
		Stop:  regexp.MustCompile(`(?i)^#+\s*styler:\s*on\s*$`),
	}
}

type lineRange struct{ from, to int }

// Scan tags every row in flat whose span overlaps an ignore range with
// StylerIgnore = true. It returns an *styleerr.StyleError (kind
// ErrIgnoreMarkerMismatch) when markers are unbalanced; this is a
// warning only — the caller decides whether to surface it, and no
// tokens are tagged for the affected file when it fires.
func Scan(flat []*token.Token, path string, m Markers) *styleerr.StyleError {
	comments := commentsInOrder(flat)

	ranges, mismatch := computeRanges(comments, flat, m)
	if mismatch {
		return styleerr.NewIgnoreMarkerMismatchError(path)
	}

	for _, t := range flat {
		if overlaps(ranges, t.Line1, t.Line2) {
			t.StylerIgnore = true
		}
	}
	return nil
}

func commentsInOrder(flat []*token.Token) []*token.Token {
	var out []*token.Token
	for _, t := range flat {
		if t.Kind == token.KindComment {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PosID < out[j].PosID })
	return out
}

// isInline reports whether some non-comment terminal precedes c on
// the same source line, i.e. c trails code rather than standing alone.
func isInline(c *token.Token, flat []*token.Token) bool {
	for _, t := range flat {
		if t == c || !t.Terminal || t.Kind == token.KindComment {
			continue
		}
		if t.Line2 == c.Line1 && t.Col1 < c.Col1 {
			return true
		}
	}
	return false
}

func computeRanges(comments []*token.Token, flat []*token.Token, m Markers) ([]lineRange, bool) {
	var ranges []lineRange
	open := -1 // line of an unmatched start marker, or -1

	for _, c := range comments {
		switch {
		case m.Start.MatchString(c.Text):
			if isInline(c, flat) {
				// A trailing "off" on a line of code ignores only that line.
				ranges = append(ranges, lineRange{c.Line1, c.Line1})
				continue
			}
			if open != -1 {
				// A start marker while a region is already open is a mismatch.
				return nil, true
			}
			open = c.Line1
		case m.Stop.MatchString(c.Text):
			if open == -1 {
				// A stop marker with nothing open is a mismatch.
				return nil, true
			}
			// Inclusive of both marker lines: the markers themselves
			// are source the user placed deliberately and must survive
			// untouched too, not just the code they bracket.
			ranges = append(ranges, lineRange{open, c.Line1})
			open = -1
		}
	}

	if open != -1 {
		// An unmatched start marker is a mismatch.
		return nil, true
	}
	return ranges, false
}

func overlaps(ranges []lineRange, line1, line2 int) bool {
	for _, r := range ranges {
		if line1 <= r.to && line2 >= r.from {
			return true
		}
	}
	return false
}
