package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/themislegal/themis/internal/synthesis"
)

var (
	exportFormat     string
	exportOutput     string
	exportSynthesize bool
)

var exportCmd = &cobra.Command{
	Use:   "export <session-id>",
	Short: "Export a session as Markdown or HTML",
	Long: `Exports the session transcript and its timeline of consulted texts.
With --synthesize the model writes a sourced research synthesis instead
of the raw transcript.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "md", "output format: md or html")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default <session-id>.<format>)")
	exportCmd.Flags().BoolVar(&exportSynthesize, "synthesize", false, "generate a model-written synthesis")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := createSessionStore(cfg)
	if err != nil {
		return err
	}
	sess, err := store.Load(args[0])
	if err != nil {
		return err
	}

	var markdown string
	if exportSynthesize {
		gen := createGenerator(cfg)
		if gen == nil {
			return fmt.Errorf("synthesis unavailable, check the provider configuration")
		}
		markdown, err = gen.Generate(cmd.Context(), sess)
		if err != nil {
			return fmt.Errorf("generating synthesis: %w", err)
		}
	} else {
		markdown = synthesis.RenderMarkdown(sess)
	}

	out := exportOutput
	if out == "" {
		out = sess.ID + "." + exportFormat
	}

	switch strings.ToLower(exportFormat) {
	case "md", "markdown":
		err = synthesis.ExportMarkdown(markdown, out)
	case "html":
		err = synthesis.ExportHTML(markdown, sess.Name, out)
	default:
		return fmt.Errorf("unknown format %q (expected md or html)", exportFormat)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "exported %s\n", out)
	return nil
}
