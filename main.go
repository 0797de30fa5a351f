// talondoc indexes a talon user package and describes its voice commands.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/phobologic/talondoc/internal/analysis"
	"github.com/phobologic/talondoc/internal/config"
	"github.com/phobologic/talondoc/internal/discover"
	"github.com/phobologic/talondoc/internal/lang"
	"github.com/phobologic/talondoc/internal/logging"
	"github.com/phobologic/talondoc/internal/model"
	"github.com/phobologic/talondoc/internal/ranking"
	"github.com/phobologic/talondoc/internal/store"
	"github.com/phobologic/talondoc/internal/toon"
)

var version = "dev"

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// app carries state shared by every subcommand. cfg and logger are set by the
// root command's PersistentPreRunE.
type app struct {
	stdout, stderr io.Writer

	configPath string
	logLevel   string

	cfg    *config.Config
	logger *slog.Logger
}

func run(args []string, stdout, stderr io.Writer) error {
	a := &app{stdout: stdout, stderr: stderr}
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.Execute()
}

func (a *app) rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "talondoc",
		Short:         "Index talon user packages and describe their voice commands",
		Long:          "talondoc extracts the actions, lists, tags and captures a talon user package declares, overrides and uses, and renders .talon command scripts as prose.",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
	}
	cmd.SetVersionTemplate("talondoc {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default: ./talondoc.yaml or $HOME/.config/talondoc/talondoc.yaml)")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug|info|warn|error (overrides config)")

	cmd.AddCommand(a.indexCmd())
	cmd.AddCommand(a.symbolsCmd())
	cmd.AddCommand(a.describeCmd())
	cmd.AddCommand(a.docsCmd())
	return cmd
}

func (a *app) setup() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		if _, err := config.ParseLevel(a.logLevel); err != nil {
			return err
		}
		cfg.Log.Level = a.logLevel
	}
	logger, err := logging.New(cfg.Log, a.stderr)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

// analysisOptions builds analysis options from the loaded config.
func (a *app) analysisOptions() (analysis.Options, error) {
	maxSize, err := a.cfg.MaxFileSizeBytes()
	if err != nil {
		return analysis.Options{}, err
	}
	return analysis.Options{
		Workers:     a.cfg.Analysis.Workers,
		MaxFileSize: maxSize,
		Logger:      a.logger,
	}, nil
}

// resolveRoot returns the absolute package root named by args, or the working
// directory.
func resolveRoot(args []string) (string, error) {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolving root: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return "", fmt.Errorf("root path: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s: not a directory", root)
	}
	return root, nil
}

// openStore opens and migrates the SQLite store at path.
func (a *app) openStore(path string) (*store.Store, error) {
	s, err := store.NewStore(path, a.logger)
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (a *app) indexCmd() *cobra.Command {
	var (
		maxFiles  int
		symbol    string
		file      string
		cachePath string
		dbPath    string
		format    string
	)

	cmd := &cobra.Command{
		Use:   "index [root]",
		Short: "Analyze a package and print its symbol report",
		Long:  "Analyze every extension module and command file under root and print the ranked report as TOON, JSON or YAML.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			root, err := resolveRoot(args)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("format") {
				format = a.cfg.Output.Format
			}
			if !cmd.Flags().Changed("db") {
				dbPath = a.cfg.Store.Path
			}
			opts, err := a.analysisOptions()
			if err != nil {
				return err
			}

			// Filtered output is never cached.
			useCache := cachePath != "" && symbol == "" && file == ""
			if useCache {
				files, err := discover.Files(ctx, root, discover.Options{
					Languages:   []string{lang.Python, lang.Talon},
					MaxFileSize: opts.MaxFileSize,
					Logger:      a.logger,
				})
				if err != nil {
					return fmt.Errorf("discovering files: %w", err)
				}
				if cacheIsFresh(cachePath, root, files) {
					if data, err := os.ReadFile(cachePath); err == nil {
						_, _ = a.stdout.Write(data)
						return nil
					}
				}
			}

			res, err := analysis.Package(ctx, root, opts)
			if err != nil {
				return err
			}

			if dbPath != "" {
				s, err := a.openStore(dbPath)
				if err != nil {
					return err
				}
				defer s.Close()
				if err := s.Save(ctx, root, res.Files); err != nil {
					return fmt.Errorf("saving %s: %w", dbPath, err)
				}
				a.logger.Info("saved symbol table", "db", dbPath, "files", len(res.Files))
			}

			r := res.Report()
			if maxFiles > 0 {
				r = ranking.SelectFiles(r, maxFiles)
			}
			if symbol != "" {
				r = ranking.FilterBySymbol(r, symbol)
			}
			if file != "" {
				r = ranking.FilterByFile(r, file)
			}

			output, err := encodeReport(r, format)
			if err != nil {
				return err
			}

			if useCache {
				if err := os.WriteFile(cachePath, []byte(output+"\n"), 0o644); err != nil {
					a.logger.Warn("writing cache", "path", cachePath, "error", err)
				}
			}

			_, _ = fmt.Fprintln(a.stdout, output)
			return nil
		},
	}

	cmd.Flags().IntVarP(&maxFiles, "max-files", "n", 0, "maximum number of files to include")
	cmd.Flags().StringVar(&symbol, "symbol", "", "only symbols whose name contains this substring")
	cmd.Flags().StringVar(&file, "file", "", "only files whose path contains this substring")
	cmd.Flags().StringVar(&cachePath, "cache", "", "cache file path")
	cmd.Flags().StringVar(&dbPath, "db", "", "also save the symbol table to this SQLite database")
	cmd.Flags().StringVar(&format, "format", config.DefaultFormat, "output format: toon|json|yaml")
	return cmd
}

func encodeReport(r *model.Report, format string) (string, error) {
	switch format {
	case config.FormatTOON:
		return toon.Encode(r), nil
	case config.FormatJSON:
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encoding json: %w", err)
		}
		return string(data), nil
	case config.FormatYAML:
		data, err := yaml.Marshal(r)
		if err != nil {
			return "", fmt.Errorf("encoding yaml: %w", err)
		}
		return string(data), nil
	}
	return "", fmt.Errorf("%w: %q", config.ErrInvalidFormat, format)
}

// cacheIsFresh reports whether every discovered file is older than the cache.
func cacheIsFresh(cachePath, root string, files []discover.FileEntry) bool {
	cacheInfo, err := os.Stat(cachePath)
	if err != nil {
		return false
	}
	cacheMtime := cacheInfo.ModTime()

	for _, f := range files {
		fi, err := os.Stat(filepath.Join(root, f.Path))
		if err != nil {
			return false
		}
		if !fi.ModTime().Before(cacheMtime) {
			return false
		}
	}
	return true
}
