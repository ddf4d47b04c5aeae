// Package engine wires components A through K of the formatting
// pipeline (spec.md §2) into the four programmatic entry points
// spec.md §6 specifies: StyleText, StyleFile, StyleDir, and StylePkg.
// It owns the Options struct and is the only package that imports
// every other pkg/ subpackage — no subpackage imports engine.
package engine

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aledsdavies/gostyler/internal/styleerr"
	"github.com/aledsdavies/gostyler/pkg/cache"
	"github.com/aledsdavies/gostyler/pkg/hostparser"
	"github.com/aledsdavies/gostyler/pkg/ignore"
	"github.com/aledsdavies/gostyler/pkg/nester"
	"github.com/aledsdavies/gostyler/pkg/normalize"
	"github.com/aledsdavies/gostyler/pkg/serializer"
	"github.com/aledsdavies/gostyler/pkg/splicer"
	"github.com/aledsdavies/gostyler/pkg/styleguide"
	"github.com/aledsdavies/gostyler/pkg/token"
	"github.com/aledsdavies/gostyler/pkg/tokenizer"
	"github.com/aledsdavies/gostyler/pkg/validator"
	"github.com/aledsdavies/gostyler/pkg/visitor"
)

// Dry is the write-back policy spec.md §6's "dry" option describes.
type Dry string

const (
	DryOff  Dry = "off"  // write the result back
	DryOn   Dry = "on"   // return the result without writing
	DryFail Dry = "fail" // fail if any change was needed
)

// recognizedFiletypes is spec.md §6's allowed filetype set.
var recognizedFiletypes = map[string]bool{
	"r": true, "rprofile": true, "rmd": true,
	"rmarkdown": true, "rnw": true, "qmd": true,
}

// Options carries the enumerated recognized keys of spec.md §6. A
// zero Options is meaningful: scope defaults to ScopeTokens (the most
// invasive, includes everything less), strict defaults to false, and
// filetype defaults to {r}.
type Options struct {
	Scope                  visitor.Scope
	Strict                 bool
	IncludeRoxygenExamples bool
	BaseIndention          int
	Dry                    Dry
	Filetype               []string
	ExcludeFiles           []string
	ExcludeDirs            []string
}

// normalized fills in the documented defaults for zero-valued fields.
func (o Options) normalized() Options {
	if o.Scope == "" {
		o.Scope = visitor.ScopeTokens
	}
	if o.Dry == "" {
		o.Dry = DryOff
	}
	if len(o.Filetype) == 0 {
		o.Filetype = []string{"r"}
	}
	return o
}

func (o Options) validate() error {
	switch o.Scope {
	case visitor.ScopeSpaces, visitor.ScopeIndention, visitor.ScopeLineBreaks, visitor.ScopeTokens:
	default:
		return styleerr.NewInvalidOptionError("scope", o.Scope)
	}
	switch o.Dry {
	case DryOff, DryOn, DryFail:
	default:
		return styleerr.NewInvalidOptionError("dry", o.Dry)
	}
	for _, ft := range o.Filetype {
		if !recognizedFiletypes[strings.ToLower(ft)] {
			return styleerr.NewInvalidOptionError("filetype", ft)
		}
	}
	if o.BaseIndention < 0 {
		return styleerr.NewInvalidOptionError("base_indention", o.BaseIndention)
	}
	return nil
}

// Engine bundles the collaborators spec.md §1 calls external: a host
// parser for the language being styled, a cache store, and the
// process-wide ignore-marker configuration, plus the style guide to
// apply. All are read-only for the lifetime of a job (spec.md §5).
type Engine struct {
	Parser      hostparser.Parser
	Guide       visitor.Guide
	Markers     ignore.Markers
	Cache       cache.Store // nil disables caching entirely
	CacheByPass bool        // true forces every PreFilter lookup to miss, without disabling recording
}

// New returns an Engine using the bundled Tidy style guide, the
// conventional ignore markers, and no cache store.
func New(parser hostparser.Parser) *Engine {
	return &Engine{
		Parser:  parser,
		Guide:   styleguide.Tidy(),
		Markers: ignore.DefaultMarkers(),
	}
}

// Warning is a non-fatal condition surfaced alongside a successful
// result: an unbalanced ignore-marker file, or a cache store that
// failed and was bypassed (spec.md §7's "demoted to warning" kinds).
type Warning struct {
	Path string
	Err  *styleerr.StyleError
}

// Result is the outcome of styling one buffer.
type Result struct {
	Text     string
	Changed  bool
	Warnings []Warning
}

// StyleText runs the full A→K pipeline over text and returns the
// styled result. path is used only in error and warning messages (it
// is not part of the cache hash); it need not exist on disk.
func (e *Engine) StyleText(path, text string, opts Options) (Result, error) {
	opts = opts.normalized()
	if err := opts.validate(); err != nil {
		return Result{}, err
	}

	if text == "" {
		return Result{Text: "", Changed: false}, nil
	}

	flat, err := tokenizer.Adapt(e.Parser, path, text)
	if err != nil {
		// spec.md §4.A: caller may still emit the original text unchanged.
		return Result{Text: text, Changed: false}, err
	}

	var warnings []Warning
	if mismatch := ignore.Scan(flat, path, e.Markers); mismatch != nil {
		warnings = append(warnings, Warning{Path: path, Err: mismatch})
	}

	cachingEnabled := e.Cache != nil && !e.CacheByPass
	recordingEnabled := e.Cache != nil
	hashIn := e.hashInputs(opts)

	if cachingEnabled {
		flat, err = cache.PreFilter(flat, text, e.Cache, hashIn)
		if err != nil {
			if se, ok := err.(*styleerr.StyleError); ok && se.Kind == styleerr.ErrCacheIO {
				warnings = append(warnings, Warning{Path: path, Err: se})
				cachingEnabled = false
				recordingEnabled = false
			} else {
				return Result{}, err
			}
		}
	}

	roots := nester.Nest(flat)
	normalize.Normalize(roots, cachingEnabled)
	terminalizeCacheExceptionBlocks(roots)

	ctx := &visitor.Context{
		Strict:                 opts.Strict,
		Scope:                  opts.Scope,
		IncludeRoxygenExamples: opts.IncludeRoxygenExamples,
		BaseIndention:          opts.BaseIndention,
	}
	roots = visitor.Run(roots, e.Guide, ctx)

	serialized, spans, _ := serializer.Serialize(roots, text, serializer.Options{
		BaseIndention:   opts.BaseIndention,
		UseRawIndention: e.Guide.UseRawIndention,
	})
	output := splicer.Splice(serialized, text, spans)

	if opts.Scope != visitor.ScopeTokens {
		if driftErr := validator.Validate(e.Parser, path, text, output); driftErr != nil {
			return Result{Text: text, Changed: false}, driftErr
		}
	}

	changed := output != text
	if changed && opts.Dry == DryFail {
		return Result{}, styleerr.New(styleerr.ErrInvalidOption, path+": styling would change this file and dry=fail").
			WithContext("path", path)
	}

	if recordingEnabled {
		// Record against a fresh parse of output, since roots' own
		// Line1/Col1 describe positions in the pre-styling input, not
		// in the text Record needs to hash slices out of.
		if outFlat, err := tokenizer.Adapt(e.Parser, path, output); err == nil {
			outRoots := nester.Nest(outFlat)
			if err := cache.Record(outRoots, output, e.Cache, hashIn); err != nil {
				if se, ok := err.(*styleerr.StyleError); ok && se.Kind == styleerr.ErrCacheIO {
					warnings = append(warnings, Warning{Path: path, Err: se})
				} else {
					return Result{}, err
				}
			}
		}
	}

	return Result{Text: output, Changed: changed, Warnings: warnings}, nil
}

// terminalizeCacheExceptionBlocks is the cache-block terminalizer
// spec.md §4.C and §4.G name explicitly: when a cached top-level
// expression shares a block with an uncached peer, the whole block
// still runs through the rule phases (it is not shallow, since its
// peer needs restyling), so the cached root must be forced back to
// emitting its own literal text rather than whatever its rule-touched
// neighbors imply about it. Cached roots already carry Terminal=true
// and their original Text from PreFilter; this just guards against
// indention/space rules re-deriving children it no longer has.
func terminalizeCacheExceptionBlocks(roots []*token.Token) {
	byBlock := make(map[int][]*token.Token)
	for _, r := range roots {
		byBlock[r.Block] = append(byBlock[r.Block], r)
	}
	for _, group := range byBlock {
		hasUncached, hasCached := false, false
		for _, r := range group {
			if r.IsCached {
				hasCached = true
			} else {
				hasUncached = true
			}
		}
		if hasCached && hasUncached {
			for _, r := range group {
				if r.IsCached {
					r.Child = nil
					r.Terminal = true
				}
			}
		}
	}
}

func (e *Engine) hashInputs(opts Options) cache.HashInputs {
	return cache.HashInputs{
		StyleGuideName:    e.Guide.Name,
		StyleGuideVersion: e.Guide.Version,
		Strict:            opts.Strict,
		Scope:             string(opts.Scope),
		BaseIndention:     opts.BaseIndention,
		RuleSetID:         ruleSetID(e.Guide),
	}
}

func ruleSetID(g visitor.Guide) string {
	var names []string
	for _, r := range g.Space {
		names = append(names, r.Name)
	}
	for _, r := range g.Indention {
		names = append(names, r.Name)
	}
	return strings.Join(names, ",")
}

// StyleFile styles the file at path in place (unless opts.Dry ==
// DryOn) and reports whether its contents changed.
func (e *Engine) StyleFile(path string, opts Options) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}

	result, err := e.StyleText(path, string(data), opts)
	if err != nil {
		return false, err
	}

	if result.Changed && opts.Dry.orDefault() != DryOn {
		info, statErr := os.Stat(path)
		mode := os.FileMode(0o644)
		if statErr == nil {
			mode = info.Mode()
		}
		if err := os.WriteFile(path, []byte(result.Text), mode); err != nil {
			return false, err
		}
	}
	return result.Changed, nil
}

func (d Dry) orDefault() Dry {
	if d == "" {
		return DryOff
	}
	return d
}

// PathResult pairs a file path with whether styling it changed its
// contents, as spec.md §6 specifies for style_dir/style_pkg.
type PathResult struct {
	Path    string
	Changed bool
}

// StyleDir styles every recognized file directly under path (and, if
// recursive, every matching file in subdirectories), skipping entries
// named in opts.ExcludeFiles/ExcludeDirs.
func (e *Engine) StyleDir(path string, opts Options, recursive bool) ([]PathResult, error) {
	opts = opts.normalized()
	var results []PathResult

	excludeDir := toSet(opts.ExcludeDirs)
	excludeFile := toSet(opts.ExcludeFiles)

	walker := func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != path && (excludeDir[d.Name()] || excludeDir[p]) {
				return filepath.SkipDir
			}
			if !recursive && p != path {
				return filepath.SkipDir
			}
			return nil
		}
		if excludeFile[d.Name()] || excludeFile[p] {
			return nil
		}
		if !matchesFiletype(p, opts.Filetype) {
			return nil
		}
		changed, styleErr := e.StyleFile(p, opts)
		if styleErr != nil {
			return styleErr
		}
		results = append(results, PathResult{Path: p, Changed: changed})
		return nil
	}

	if err := filepath.WalkDir(path, walker); err != nil {
		return results, err
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })
	return results, nil
}

// StylePkg styles an R-package-shaped directory tree: it walks path
// recursively, which for a package root means R/, tests/, vignettes/,
// and every other conventional subdirectory — spec.md §6 draws no
// distinction between style_dir(recursive=true) and style_pkg beyond
// the caller's intent, so this is a thin alias with recursion forced
// on. Unlike StyleDir, it returns an ErrInvalidOption error when root
// is not a directory.
func (e *Engine) StylePkg(root string, opts Options) ([]PathResult, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, styleerr.New(styleerr.ErrInvalidOption, root+" is not a package directory").
			WithContext("path", root)
	}
	return e.StyleDir(root, opts, true)
}

func matchesFiletype(path string, filetypes []string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, ft := range filetypes {
		if strings.ToLower(ft) == ext {
			return true
		}
	}
	return false
}

func toSet(items []string) map[string]bool {
	out := make(map[string]bool, len(items))
	for _, it := range items {
		out[it] = true
	}
	return out
}
