// Package analysis builds the merged symbol table of a talon package.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/talondoc/internal/discover"
	"github.com/phobologic/talondoc/internal/extract"
	"github.com/phobologic/talondoc/internal/lang"
	"github.com/phobologic/talondoc/internal/model"
	"github.com/phobologic/talondoc/internal/talonscript"
)

// ErrNoFiles is returned when a root holds nothing to analyze.
var ErrNoFiles = errors.New("no extension modules or command files found")

// Options controls analysis.
type Options struct {
	// Workers is the number of parse workers. Zero means GOMAXPROCS.
	Workers int
	// MaxFileSize skips files larger than this many bytes. Zero means no limit.
	MaxFileSize int64
	Logger      *slog.Logger
}

// FileError is a file that could not be read or parsed. It does not stop the
// rest of the package from being analyzed.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return e.Path + ": " + e.Err.Error()
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// Result is an analyzed package.
type Result struct {
	Package *model.PackageInfo
	// Files holds every analyzed file in path order.
	Files []*model.FileInfo
	// Scripts holds the parsed .talon files in path order.
	Scripts  []*talonscript.File
	Failures []*FileError
}

// Package discovers every extension module and command file under root,
// extracts each one concurrently and merges them in path order.
func Package(ctx context.Context, root string, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("root path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: not a directory", root)
	}

	files, err := discover.Files(ctx, root, discover.Options{
		Languages:   []string{lang.Python, lang.Talon},
		MaxFileSize: opts.MaxFileSize,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("discovering files: %w", err)
	}
	if len(files) == 0 {
		return nil, ErrNoFiles
	}

	results := analyzeConcurrent(ctx, root, files, opts.Workers, logger)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{Package: model.NewPackageInfo(root)}
	for _, r := range results {
		if r.err != nil {
			logger.Warn("skipping file", "file", r.path, "error", r.err)
			res.Failures = append(res.Failures, &FileError{Path: r.path, Err: r.err})
			continue
		}
		before := len(res.Package.Conflicts)
		res.Package.Add(r.info)
		for _, c := range res.Package.Conflicts[before:] {
			logger.Warn("duplicate declaration, keeping the later one",
				"kind", c.Kind, "name", c.Name, "replaced", c.Previous.File, "winner", c.Current.File)
		}
		res.Files = append(res.Files, r.info)
		if r.script != nil {
			res.Scripts = append(res.Scripts, r.script)
		}
	}
	return res, nil
}

type fileResult struct {
	path   string
	info   *model.FileInfo
	script *talonscript.File
	err    error
}

// analyzeConcurrent extracts files on a pool of workers and returns one
// result per file, in input order.
func analyzeConcurrent(ctx context.Context, root string, files []discover.FileEntry, workers int, logger *slog.Logger) []fileResult {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(files) {
		workers = len(files)
	}

	extractor := extract.New(logger)
	results := make([]fileResult, len(files))
	work := make(chan int, len(files))

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			// Each goroutine gets its own parser.
			var parser *sitter.Parser
			defer func() {
				if parser != nil {
					parser.Close()
				}
			}()

			for idx := range work {
				f := files[idx]
				r := fileResult{path: f.Path}
				if err := ctx.Err(); err != nil {
					r.err = err
					results[idx] = r
					continue
				}

				source, err := os.ReadFile(filepath.Join(root, f.Path))
				if err != nil {
					r.err = err
					results[idx] = r
					continue
				}

				switch f.Language {
				case lang.Python:
					if parser == nil {
						parser = lang.Languages[lang.Python].NewParser()
					}
					r.info, r.err = extractor.File(ctx, parser, source, f.Path)
				case lang.Talon:
					r.info, r.script = scriptUses(source, f.Path, logger)
				default:
					r.err = fmt.Errorf("unsupported language %q", f.Language)
				}
				results[idx] = r
			}
		}()
	}

	for i := range files {
		work <- i
	}
	close(work)
	wg.Wait()

	return results
}

// scriptUses parses a .talon file and records the actions its commands call.
func scriptUses(source []byte, path string, logger *slog.Logger) (*model.FileInfo, *talonscript.File) {
	fi := model.NewFileInfo(path, lang.Talon)
	script := talonscript.ParseFile(path, source)
	for _, err := range script.Errors {
		logger.Warn("skipping command", "error", err)
	}
	for _, cmd := range script.Commands {
		names, err := talonscript.ActionUses(cmd.Script)
		if err != nil {
			logger.Warn("skipping command", "file", path, "rule", cmd.Rule, "error", err)
			continue
		}
		for _, n := range names {
			fi.Use(model.Action, n)
		}
	}
	return fi, script
}
