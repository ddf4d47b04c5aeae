// Command gostyler is a thin cobra dispatch layer over pkg/engine's
// four entry points (spec.md §6): it never does its own file-discovery
// logic beyond what it hands to engine.StyleDir/StylePkg.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/aledsdavies/gostyler/internal/config"
	"github.com/aledsdavies/gostyler/internal/oplang"
	"github.com/aledsdavies/gostyler/internal/styleerr"
	"github.com/aledsdavies/gostyler/pkg/engine"
	"github.com/aledsdavies/gostyler/pkg/visitor"
)

// Exit codes (spec.md §6).
const (
	exitSuccess     = 0
	exitChanged     = 0
	exitParseError  = 3
	exitAstDrift    = 4
	exitInvalidOpts = 1
)

var (
	flagScope         string
	flagStrict        bool
	flagDry           string
	flagBaseIndention int
	flagConfigPath    string
	flagRecursive     bool
)

func main() {
	root := &cobra.Command{
		Use:   "gostyler",
		Short: "Format source code against a configurable style guide",
	}
	root.PersistentFlags().StringVar(&flagScope, "scope", "tokens", "spaces|indention|line_breaks|tokens")
	root.PersistentFlags().BoolVar(&flagStrict, "strict", true, "use set_* rules instead of add_* rules")
	root.PersistentFlags().StringVar(&flagDry, "dry", "off", "off|on|fail")
	root.PersistentFlags().IntVar(&flagBaseIndention, "base-indention", 0, "spaces added to all emitted indentation")
	root.PersistentFlags().StringVar(&flagConfigPath, "config", "", "path to a gostyler config YAML file")

	root.AddCommand(textCmd(), fileCmd(), dirCmd(), pkgCmd())

	if err := root.Execute(); err != nil {
		os.Exit(exitInvalidOpts)
	}
}

func newEngine() (*engine.Engine, error) {
	cfg, err := config.Load(flagConfigPath)
	if err != nil {
		return nil, err
	}
	markers, err := cfg.Markers()
	if err != nil {
		return nil, err
	}
	e := engine.New(oplang.NewHostParser())
	e.Markers = markers
	return e, nil
}

func options() engine.Options {
	return engine.Options{
		Scope:         visitor.Scope(flagScope),
		Strict:        flagStrict,
		BaseIndention: flagBaseIndention,
		Dry:           engine.Dry(flagDry),
	}
}

func textCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "text",
		Short: "Style source read from stdin, writing the result to stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return err
			}
			e, err := newEngine()
			if err != nil {
				return err
			}
			result, err := e.StyleText("<stdin>", string(data), options())
			if err != nil {
				return reportAndExit(err)
			}
			reportWarnings(result.Warnings)
			fmt.Print(result.Text)
			return nil
		},
	}
}

func fileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "file [path]",
		Short: "Style a single file in place",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEngine()
			if err != nil {
				return err
			}
			changed, err := e.StyleFile(args[0], options())
			if err != nil {
				return reportAndExit(err)
			}
			if changed {
				fmt.Fprintf(cmd.OutOrStdout(), "styled: %s\n", args[0])
			}
			return nil
		},
	}
}

func dirCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dir [path]",
		Short: "Style every recognized file in a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEngine()
			if err != nil {
				return err
			}
			results, err := e.StyleDir(args[0], options(), flagRecursive)
			if err != nil {
				return reportAndExit(err)
			}
			reportResults(cmd, results)
			return nil
		},
	}
	cmd.Flags().BoolVar(&flagRecursive, "recursive", true, "recurse into subdirectories")
	return cmd
}

func pkgCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pkg [root]",
		Short: "Style every recognized file in a package tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEngine()
			if err != nil {
				return err
			}
			results, err := e.StylePkg(args[0], options())
			if err != nil {
				return reportAndExit(err)
			}
			reportResults(cmd, results)
			return nil
		},
	}
}

func reportResults(cmd *cobra.Command, results []engine.PathResult) {
	for _, r := range results {
		if r.Changed {
			fmt.Fprintf(cmd.OutOrStdout(), "styled: %s\n", r.Path)
		}
	}
}

func reportWarnings(warnings []engine.Warning) {
	for _, w := range warnings {
		fmt.Fprintln(os.Stderr, w.Err.Error())
	}
}

// reportAndExit prints err and exits with the code spec.md §6 assigns
// to its kind; it returns nil only so callers can `return
// reportAndExit(err)` from a cobra RunE without cobra re-printing the
// same error a second time.
func reportAndExit(err error) error {
	fmt.Fprintln(os.Stderr, "Error:", err)
	if se, ok := err.(*styleerr.StyleError); ok {
		switch se.Kind {
		case styleerr.ErrParse:
			os.Exit(exitParseError)
		case styleerr.ErrAstDrift:
			os.Exit(exitAstDrift)
		}
	}
	os.Exit(exitInvalidOpts)
	return nil
}
