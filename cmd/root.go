package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "themis",
	Short: "AI legal research assistant over Légifrance",
	Long: `Thémis is a legal research assistant for French law. It drives an
LLM through the Légifrance PISTE API, accumulates a dated timeline of
the legal texts it consults, and exports sourced research syntheses.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".themis.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
