package cmd

import (
	"github.com/spf13/cobra"
	"github.com/themislegal/themis/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize themis configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure the LLM provider and Légifrance access, and generates a .themis.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard()
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
