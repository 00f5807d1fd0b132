package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/phyten/commentx/internal/lang"
)

func newLangsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "langs",
		Aliases: []string{"languages"},
		Short:   "List supported languages, their extensions and comment markers",
		Args:    cobra.NoArgs,
		RunE:    runLangs,
	}
}

func runLangs(cmd *cobra.Command, _ []string) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "LANG\tEXTENSIONS\tLINE\tBLOCK")
	for _, id := range lang.IDs() {
		g := lang.GrammarFor(id)
		markers := append(append([]string(nil), g.WordMarkers...), g.LineMarkers...)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", id, orDash(strings.Join(lang.Extensions(id), " ")), orDash(lineMarkers(markers)), orDash(blockMarkers(g.Blocks)))
	}
	return w.Flush()
}

func lineMarkers(markers []string) string {
	parts := make([]string, 0, len(markers))
	for _, m := range markers {
		parts = append(parts, strings.TrimSpace(m))
	}
	return strings.Join(parts, " ")
}

func blockMarkers(blocks []lang.BlockRule) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		parts = append(parts, b.Open+" "+b.Close)
	}
	return strings.Join(parts, ", ")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
