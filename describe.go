package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/phobologic/talondoc/internal/analysis"
	"github.com/phobologic/talondoc/internal/describe"
	"github.com/phobologic/talondoc/internal/talonscript"
)

// commandDoc is the rendered description of one command.
type commandDoc struct {
	Rule  string
	Line  int
	Lines []string
	Err   error
}

// describeFile renders every command of f. A command that cannot be rendered
// keeps its error and the rest are still described.
func describeFile(r *describe.Renderer, f *talonscript.File, logger *slog.Logger) []commandDoc {
	docs := make([]commandDoc, 0, len(f.Commands))
	for _, cmd := range f.Commands {
		lines, err := r.Script(cmd.Script)
		if err != nil {
			logger.Warn("cannot describe command", "file", f.Path, "rule", cmd.Rule, "error", err)
		}
		docs = append(docs, commandDoc{Rule: cmd.Rule, Line: cmd.Line, Lines: lines, Err: err})
	}
	return docs
}

func (a *app) describeCmd() *cobra.Command {
	var (
		dbPath  string
		noColor bool
	)

	cmd := &cobra.Command{
		Use:   "describe [root] FILE.talon...",
		Short: "Describe the commands in .talon files",
		Long: `Render every command in the given .talon files as prose, using the
documentation of the actions they call.

If the first argument is a directory it is the package root (default "."),
analyzed to build the symbol table. With --db the table is read from a
database written by "index --db" instead. Relative file paths that do not
exist are looked up under the root.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if noColor {
				color.NoColor = true
			}

			var rootArgs []string
			if info, err := os.Stat(args[0]); err == nil && info.IsDir() {
				rootArgs, args = args[:1], args[1:]
			}
			if len(args) == 0 {
				return errors.New("no .talon files given")
			}
			root, err := resolveRoot(rootArgs)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("db") {
				dbPath = a.cfg.Store.Path
			}

			var table describe.SymbolTable
			if dbPath != "" {
				s, err := a.openStore(dbPath)
				if err != nil {
					return err
				}
				defer s.Close()
				table = s
			} else {
				opts, err := a.analysisOptions()
				if err != nil {
					return err
				}
				res, err := analysis.Package(cmd.Context(), root, opts)
				if err != nil {
					return err
				}
				table = res.Package
			}

			r := describe.NewRenderer(table, a.logger)
			for _, path := range args {
				src, err := readScript(root, path)
				if err != nil {
					return err
				}
				f := talonscript.ParseFile(path, src)
				for _, err := range f.Errors {
					a.logger.Warn("skipping command", "error", err)
				}
				printDescriptions(a.stdout, path, describeFile(r, f, a.logger))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "read the symbol table from this SQLite database")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored output")
	return cmd
}

// readScript reads path, falling back to path under root.
func readScript(root, path string) ([]byte, error) {
	src, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) && !filepath.IsAbs(path) {
		src, err = os.ReadFile(filepath.Join(root, path))
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return src, nil
}

func printDescriptions(w io.Writer, path string, docs []commandDoc) {
	fileHeading := color.New(color.Bold, color.FgCyan)
	ruleHeading := color.New(color.FgGreen)
	failed := color.New(color.FgRed)

	fileHeading.Fprintln(w, path)
	for _, d := range docs {
		ruleHeading.Fprintf(w, "  %s:", d.Rule)
		fmt.Fprintln(w)
		if d.Err != nil {
			failed.Fprintf(w, "    (cannot describe: %v)", d.Err)
			fmt.Fprintln(w)
			continue
		}
		for _, line := range d.Lines {
			fmt.Fprintf(w, "    %s\n", line)
		}
	}
}
