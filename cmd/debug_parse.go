package cmd

import (
	"fmt"
	"sort"
	"strings"

	"gamedigest/internal/digest"

	"github.com/spf13/cobra"
)

// debugParseCmd inspects a rendered digest file: frontmatter, required
// keys, and a rough item count. Useful when a send looks wrong.
var debugParseCmd = &cobra.Command{
	Use:   "debug-parse <markdown_path>",
	Short: "Debug: parse a digest file and print its frontmatter",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := digest.ParseFile(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		keys := make([]string, 0, len(doc.Frontmatter))
		for k := range doc.Frontmatter {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(out, "%s: %v\n", k, doc.Frontmatter[k])
		}
		for _, k := range []string{"title", "topic", "period"} {
			if s, ok := doc.Frontmatter[k].(string); !ok || strings.TrimSpace(s) == "" {
				fmt.Fprintf(out, "missing: %s\n", k)
			}
		}
		fmt.Fprintf(out, "body: %d bytes, %d items\n", len(doc.Body), strings.Count(doc.Body, "\n## "))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(debugParseCmd)
}
