package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/themislegal/themis/internal/dispatch"
	"github.com/themislegal/themis/internal/legifrance"
	"github.com/themislegal/themis/internal/progress"
	"github.com/themislegal/themis/internal/synthesis"
)

var (
	fetchDate   string
	fetchOutput string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <text-id>",
	Short: "Download a full legal text as Markdown",
	Long: `Fetches a complete text from Légifrance with every article body and
writes it as a Markdown file. Accepts a code name (civil, penal,
travail, commerce, consommation), a LEGITEXT/LODA id or a JORFTEXT id.
Large codes require one request per article.`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().StringVar(&fetchDate, "date", "", "consolidation date (YYYY-MM-DD, default today)")
	fetchCmd.Flags().StringVarP(&fetchOutput, "output", "o", "", "output file (default <text-id>.md)")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := createLegifranceClient(cfg)
	if err != nil {
		return err
	}

	textID := args[0]
	if id, ok := legifrance.CodeIDs[textID]; ok {
		textID = id
	}
	doc, err := dispatch.FetchDocument(cmd.Context(), client, textID, fetchDate, progress.NewReporter())
	if err != nil {
		return fmt.Errorf("fetching %s: %w", textID, err)
	}

	out := fetchOutput
	if out == "" {
		out = doc.ID + ".md"
	}
	if err := synthesis.ExportMarkdown(doc.Markdown(), out); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "wrote %s (%d articles)\n", out, len(doc.Articles))
	return nil
}
