package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aledsdavies/gostyler/internal/oplang"
	"github.com/aledsdavies/gostyler/internal/styleerr"
	"github.com/aledsdavies/gostyler/pkg/cache"
)

func TestStyleTextFormatsAndReportsChanged(t *testing.T) {
	e := New(oplang.NewHostParser())
	res, err := e.StyleText("t.R", "a<-1", Options{})
	if err != nil {
		t.Fatalf("StyleText: %v", err)
	}
	if res.Text != "a <- 1" {
		t.Errorf("Text = %q, want %q", res.Text, "a <- 1")
	}
	if !res.Changed {
		t.Error("Changed should be true when styling altered the text")
	}
}

func TestStyleTextEmptyInputIsNoOp(t *testing.T) {
	e := New(oplang.NewHostParser())
	res, err := e.StyleText("t.R", "", Options{})
	if err != nil {
		t.Fatalf("StyleText: %v", err)
	}
	if res.Text != "" || res.Changed {
		t.Errorf("got %+v, want an unchanged empty result", res)
	}
}

func TestStyleTextIsIdempotent(t *testing.T) {
	e := New(oplang.NewHostParser())
	once, err := e.StyleText("t.R", "a<-3++1", Options{})
	if err != nil {
		t.Fatalf("StyleText: %v", err)
	}
	twice, err := e.StyleText("t.R", once.Text, Options{})
	if err != nil {
		t.Fatalf("StyleText: %v", err)
	}
	if twice.Changed {
		t.Error("re-styling already-styled output should report Changed = false")
	}
	if twice.Text != once.Text {
		t.Errorf("re-styling output changed it: %q -> %q", once.Text, twice.Text)
	}
}

func TestStyleTextRejectsInvalidOptions(t *testing.T) {
	e := New(oplang.NewHostParser())
	if _, err := e.StyleText("t.R", "a<-1", Options{Scope: "bogus"}); err == nil {
		t.Error("want an error for an unrecognized scope")
	}
	if _, err := e.StyleText("t.R", "a<-1", Options{BaseIndention: -1}); err == nil {
		t.Error("want an error for a negative base_indention")
	}
}

func TestStyleTextReturnsParseErrorOnBadSource(t *testing.T) {
	e := New(oplang.NewHostParser())
	res, err := e.StyleText("t.R", "a <- (1", Options{})
	if err == nil {
		t.Fatal("want a parse error for unbalanced input")
	}
	if res.Text != "a <- (1" {
		t.Errorf("Text = %q, want the original source preserved on parse failure", res.Text)
	}
}

func TestStyleTextWarnsOnUnbalancedIgnoreMarkers(t *testing.T) {
	e := New(oplang.NewHostParser())
	res, err := e.StyleText("t.R", "# styler: off\na<-1", Options{})
	if err != nil {
		t.Fatalf("StyleText: %v", err)
	}
	if len(res.Warnings) != 1 {
		t.Fatalf("len(Warnings) = %d, want 1", len(res.Warnings))
	}
	if res.Warnings[0].Err.Kind != styleerr.ErrIgnoreMarkerMismatch {
		t.Errorf("Kind = %v, want ErrIgnoreMarkerMismatch", res.Warnings[0].Err.Kind)
	}
}

func TestStyleTextRecordsOutputHashWhenCachingEnabled(t *testing.T) {
	e := New(oplang.NewHostParser())
	e.Cache = cache.NewMapStore()

	res, err := e.StyleText("t.R", "a<-1", Options{})
	if err != nil {
		t.Fatalf("StyleText: %v", err)
	}

	hashIn := e.hashInputs(Options{}.normalized())
	hit, err := e.Cache.Lookup(cache.Hash(res.Text, hashIn))
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !hit {
		t.Error("styled output's hash should be recorded in the cache store")
	}
}

func TestStyleTextDryFailErrorsWithoutChangingResult(t *testing.T) {
	e := New(oplang.NewHostParser())
	if _, err := e.StyleText("t.R", "a<-1", Options{Dry: DryFail}); err == nil {
		t.Error("want an error when dry=fail and styling would change the text")
	}
	res, err := e.StyleText("t.R", "a <- 1", Options{Dry: DryFail})
	if err != nil {
		t.Fatalf("StyleText on already-styled text with dry=fail: %v", err)
	}
	if res.Changed {
		t.Error("dry=fail should not error when the text needs no change")
	}
}

func TestStyleFileDryOnLeavesDiskUntouched(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "t.R")
	if err := os.WriteFile(path, []byte("a<-1"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	e := New(oplang.NewHostParser())
	changed, err := e.StyleFile(path, Options{Dry: DryOn})
	if err != nil {
		t.Fatalf("StyleFile: %v", err)
	}
	if !changed {
		t.Error("StyleFile should report Changed = true")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "a<-1" {
		t.Errorf("file on disk = %q, want it untouched under dry=on", string(data))
	}
}

func TestStyleFileWritesStyledTextByDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "t.R")
	if err := os.WriteFile(path, []byte("a<-1"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	e := New(oplang.NewHostParser())
	if _, err := e.StyleFile(path, Options{}); err != nil {
		t.Fatalf("StyleFile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "a <- 1" {
		t.Errorf("file on disk = %q, want %q", string(data), "a <- 1")
	}
}

func TestStyleDirStylesMatchingFilesAndSkipsExcluded(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"keep.R":    "a<-1",
		"skip.R":    "b<-2",
		"ignore.md": "not r source",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}

	e := New(oplang.NewHostParser())
	results, err := e.StyleDir(dir, Options{ExcludeFiles: []string{"skip.R"}}, false)
	if err != nil {
		t.Fatalf("StyleDir: %v", err)
	}

	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1, got %+v", len(results), results)
	}
	if filepath.Base(results[0].Path) != "keep.R" || !results[0].Changed {
		t.Errorf("results = %+v, want keep.R changed", results)
	}
}

func TestStylePkgRejectsNonDirectoryRoot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "t.R")
	if err := os.WriteFile(path, []byte("a<-1"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	e := New(oplang.NewHostParser())
	if _, err := e.StylePkg(path, Options{}); err == nil {
		t.Error("want an error when the package root is a file, not a directory")
	}
}
