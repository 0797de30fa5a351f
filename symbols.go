package main

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/phobologic/talondoc/internal/analysis"
	"github.com/phobologic/talondoc/internal/model"
)

func (a *app) symbolsCmd() *cobra.Command {
	var kindName string

	cmd := &cobra.Command{
		Use:   "symbols [root]",
		Short: "List declared and overridden symbols as a table",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var kind model.Kind
			if kindName != "" {
				k, err := model.ParseKind(kindName)
				if err != nil {
					return err
				}
				kind = k
			}
			root, err := resolveRoot(args)
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

			decls := append(res.Package.AllDeclarations(), res.Package.AllOverrides()...)
			if kind != "" {
				kept := decls[:0]
				for _, d := range decls {
					if d.Kind == kind {
						kept = append(kept, d)
					}
				}
				decls = kept
			}
			_, _ = fmt.Fprintln(a.stdout, symbolTable(decls))
			return nil
		},
	}

	cmd.Flags().StringVar(&kindName, "kind", "", "only this kind: action|list|tag|capture")
	return cmd
}

func symbolTable(decls []model.Declaration) string {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Options.SeparateColumns = false

	tbl.AppendHeader(table.Row{"Kind", "Name", "Override", "File", "Line", "Description"})
	for _, d := range decls {
		override := ""
		if d.Override {
			override = "yes"
		}
		desc, _, _ := strings.Cut(d.Desc, "\n")
		tbl.AppendRow(table.Row{d.Kind, d.Name, override, d.File, d.Source.Start.Line, desc})
	}
	tbl.AppendFooter(table.Row{fmt.Sprintf("Total: %d", len(decls))})
	return tbl.Render()
}
