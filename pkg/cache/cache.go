// Package cache implements the content-hash cache consumed by the
// pre-filter and recorder stages of the formatting pipeline. The
// on-disk cache store is treated as an external collaborator: this
// package defines the small interface the engine depends on and two
// concrete implementations — a directory of zero-byte files and an
// in-memory map for tests.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/aledsdavies/gostyler/internal/styleerr"
	"github.com/aledsdavies/gostyler/pkg/token"
)

// Store is the interface the engine consumes; the concrete on-disk
// format stays out of the pipeline's own scope.
type Store interface {
	Lookup(hash string) (bool, error)
	Record(hash string) error
}

// HashInputs are the run-wide values that, besides a top-level
// expression's own text, feed its cache hash: style guide name and
// version, strict, scope, base_indention, and the identity of the
// math-spacing and reindention rule sets in play. dry and filetype do
// not influence output and are deliberately excluded.
type HashInputs struct {
	StyleGuideName    string
	StyleGuideVersion string
	Strict            bool
	Scope             string
	BaseIndention     int
	RuleSetID         string
}

// Hash computes the content hash for one top-level expression's text.
// crypto/sha256 is used rather than a third-party hash: no BLAKE3
// implementation appears anywhere in this module's dependency pack,
// and introducing one for a single call site would mean fabricating a
// dependency, so the standard library's collision-resistant hash is
// the grounded choice here.
func Hash(text string, in HashInputs) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%s\x00%t\x00%s\x00%d\x00%s",
		text, in.StyleGuideName, in.StyleGuideVersion, in.Strict, in.Scope, in.BaseIndention, in.RuleSetID)
	return hex.EncodeToString(h.Sum(nil))
}

// PreFilter is component C: for every top-level expression it computes
// the hash of that expression's source slice and, on a cache hit,
// drops every descendant it owns before nesting ever runs. Rows are
// grouped by the *owning* top-level id (a "parent ≤ 0" ownership rule,
// resolved transitively) rather than by raw sort position, so
// a leading comment — whose own parent is negative and whose span
// sorts before the statement it is attached to — still lands in its
// statement's group instead of the previous one's.
func PreFilter(flat []*token.Token, source string, store Store, in HashInputs) ([]*token.Token, error) {
	byID := make(map[int]*token.Token, len(flat))
	for _, t := range flat {
		byID[t.ID] = t
	}

	ownerOf := func(t *token.Token) int {
		cur := t
		for cur.Parent > 0 {
			cur = byID[cur.Parent]
		}
		if cur.Parent == 0 {
			return cur.ID
		}
		return -cur.Parent
	}

	var order []int
	groups := make(map[int][]*token.Token)
	for _, t := range flat {
		owner := ownerOf(t)
		if _, seen := groups[owner]; !seen {
			order = append(order, owner)
		}
		groups[owner] = append(groups[owner], t)
	}

	var out []*token.Token
	for _, owner := range order {
		group := groups[owner]
		top := byID[owner]
		if top == nil || top.Kind == token.KindComment {
			out = append(out, group...)
			continue
		}

		hash := Hash(textOf(source, top), in)
		hit, err := store.Lookup(hash)
		if err != nil {
			return nil, styleerr.NewCacheIOError("lookup", err)
		}
		if !hit {
			out = append(out, group...)
			continue
		}

		top.IsCached = true
		top.Terminal = true
		top.Text = textOf(source, top)
		out = append(out, top)
		for _, r := range group {
			if r != top && r.Parent <= 0 {
				out = append(out, r)
			}
		}
	}
	return out, nil
}

func textOf(source string, t *token.Token) string {
	start := byteOffset(source, t.Line1, t.Col1)
	end := byteOffset(source, t.Line2, t.Col2)
	if start < 0 || end > len(source) || start > end {
		return t.Text
	}
	return source[start:end]
}

func byteOffset(source string, line, col int) int {
	lineStart, cur := 0, 1
	for i := 0; i < len(source) && cur < line; i++ {
		if source[i] == '\n' {
			cur++
			lineStart = i + 1
		}
	}
	return lineStart + col - 1
}

// Record is component J: after a successful (and, if applicable,
// validated) styling run, it records the *output* hash of every
// top-level expression so a subsequent run over that exact output
// short-circuits via PreFilter. roots must describe positions within
// output itself (the caller re-tokenizes the final styled text before
// calling Record, precisely so Line1/Col1 index into output rather
// than the pre-styling source — engine.StyleText does this).
func Record(roots []*token.Token, output string, store Store, in HashInputs) error {
	for _, r := range roots {
		if r.Kind == token.KindComment {
			continue
		}
		hash := Hash(textOf(output, r), in)
		if err := store.Record(hash); err != nil {
			return styleerr.NewCacheIOError("record", err)
		}
	}
	return nil
}

// DirStore is a directory of zero-byte files named by hex hash.
type DirStore struct {
	Root string
}

func NewDirStore(root string) *DirStore { return &DirStore{Root: root} }

func (s *DirStore) Lookup(hash string) (bool, error) {
	_, err := os.Stat(filepath.Join(s.Root, hash))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (s *DirStore) Record(hash string) error {
	if err := os.MkdirAll(s.Root, 0o755); err != nil {
		return err
	}
	f, err := os.Create(filepath.Join(s.Root, hash))
	if err != nil {
		return err
	}
	return f.Close()
}

// MapStore is an in-memory Store for tests and dry runs that should
// not touch disk.
type MapStore struct {
	mu   sync.Mutex
	seen map[string]bool
}

func NewMapStore() *MapStore { return &MapStore{seen: make(map[string]bool)} }

func (s *MapStore) Lookup(hash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seen[hash], nil
}

func (s *MapStore) Record(hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen[hash] = true
	return nil
}
