package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phobologic/talondoc/internal/analysis"
	"github.com/phobologic/talondoc/internal/describe"
)

const (
	sentinelStart = "<!-- talondoc:start -->"
	sentinelEnd   = "<!-- talondoc:end -->"
)

const defaultDocsFile = "COMMANDS.md"

// scriptDocs is the rendered description of every command in one .talon file.
type scriptDocs struct {
	Path     string
	Commands []commandDoc
}

func (a *app) docsCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "docs [root] [target.md]",
		Short: "Write a Markdown reference of every voice command",
		Long: `Render every command found under root and write the result to a Markdown
file. The section is wrapped in sentinel comments so it can be updated in
place on subsequent runs without touching surrounding content. Creates the
file if it does not exist.

target.md defaults to COMMANDS.md in the package root.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := resolveRoot(args[:min(len(args), 1)])
			if err != nil {
				return err
			}
			opts, err := a.analysisOptions()
			if err != nil {
				return err
			}
			res, err := analysis.Package(cmd.Context(), root, opts)
			if err != nil {
				return err
			}

			r := describe.NewRenderer(res.Package, a.logger)
			docs := make([]scriptDocs, 0, len(res.Scripts))
			for _, f := range res.Scripts {
				docs = append(docs, scriptDocs{Path: f.Path, Commands: describeFile(r, f, a.logger)})
			}
			section := generateSection(docs)

			// --dry-run with no target: just print the section itself.
			if dryRun && len(args) < 2 {
				_, _ = fmt.Fprintln(a.stdout, section)
				return nil
			}

			path := filepath.Join(root, defaultDocsFile)
			if len(args) == 2 {
				path = args[1]
			}

			existing, _ := os.ReadFile(path)
			updated := applySection(string(existing), section)

			if dryRun {
				_, _ = fmt.Fprint(a.stdout, updated)
				return nil
			}

			if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}
			_, _ = fmt.Fprintf(a.stderr, "wrote talondoc section to %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print what would be written without modifying the file")
	return cmd
}

// generateSection returns the sentinel-wrapped Markdown reference for docs.
func generateSection(docs []scriptDocs) string {
	var b strings.Builder
	b.WriteString(sentinelStart + "\n")
	b.WriteString("## Voice commands\n")
	if len(docs) == 0 {
		b.WriteString("\nNo command files found.\n")
	}
	for _, f := range docs {
		fmt.Fprintf(&b, "\n### %s\n\n", filepath.ToSlash(f.Path))
		if len(f.Commands) == 0 {
			b.WriteString("No commands.\n")
			continue
		}
		for _, c := range f.Commands {
			switch {
			case c.Err != nil:
				fmt.Fprintf(&b, "- `%s`: _cannot describe_\n", c.Rule)
			case len(c.Lines) == 1:
				fmt.Fprintf(&b, "- `%s`: %s\n", c.Rule, c.Lines[0])
			default:
				fmt.Fprintf(&b, "- `%s`\n", c.Rule)
				for _, line := range c.Lines {
					fmt.Fprintf(&b, "  - %s\n", line)
				}
			}
		}
	}
	b.WriteString(sentinelEnd)
	return b.String()
}

// applySection inserts section into content, replacing an existing sentinel
// block if present or appending if not.
func applySection(content, section string) string {
	start := strings.Index(content, sentinelStart)
	end := strings.Index(content, sentinelEnd)

	if start >= 0 && end > start {
		return content[:start] + section + content[end+len(sentinelEnd):]
	}

	if len(content) > 0 && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return content + "\n" + section + "\n"
}
