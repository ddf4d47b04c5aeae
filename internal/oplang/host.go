package oplang

import "github.com/aledsdavies/gostyler/pkg/hostparser"

// HostParser adapts the package-level Parse function to the
// hostparser.Parser interface the formatting engine depends on.
type HostParser struct{}

// NewHostParser returns the oplang reference implementation of
// hostparser.Parser.
func NewHostParser() HostParser { return HostParser{} }

// Parse implements hostparser.Parser.
func (HostParser) Parse(source string) ([]hostparser.Row, error) {
	return Parse(source)
}
