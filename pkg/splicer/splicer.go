// Package splicer implements component K (spec.md §4.K): the final
// step before returning styled text, which overwrites every ignore
// span's styled output with the exact original source bytes. This is
// the "stylerignore restoration" rule spec.md §4.G requires the
// pipeline to invoke — implemented here as a direct byte-level splice
// (spec.md §9's "alternative" design) rather than as a visitor.Rule,
// since it runs after the serializer, not during a rule phase.
package splicer

import (
	"strings"

	"github.com/aledsdavies/gostyler/pkg/serializer"
)

// Splice replaces, in output, the byte range of every span with the
// corresponding slice of source. Spans are applied front to back in
// ascending OutStart order, copying into a new buffer, so every span's
// offsets index the unmodified output; a span that overlaps the
// previous one or lies outside output is skipped.
func Splice(output, source string, spans []serializer.IgnoreSpan) string {
	if len(spans) == 0 {
		return output
	}

	var b strings.Builder
	b.Grow(len(output))

	last := 0
	for _, s := range spans {
		if s.OutStart < last || s.OutStart > len(output) || s.OutEnd > len(output) {
			continue
		}
		b.WriteString(output[last:s.OutStart])
		b.WriteString(source[s.SrcStart:s.SrcEnd])
		last = s.OutEnd
	}
	b.WriteString(output[last:])
	return b.String()
}
