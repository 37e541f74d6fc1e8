package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/themislegal/themis/internal/catalog"
	"github.com/themislegal/themis/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Expose the legal research tools as an MCP server over stdio",
	Long: `Starts a Model Context Protocol server on stdin/stdout. Any MCP
client (Claude Desktop, editors, other agents) can then call the
Légifrance tools directly.`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	reg := catalog.Builtin()
	dispatcher, err := createDispatcher(cfg, reg)
	if err != nil {
		return err
	}

	mcp.Version = Version
	srv := mcp.NewServer(reg, dispatcher)

	fmt.Fprintln(os.Stderr, "themis MCP server on stdio, tools:", len(reg.List()))
	return srv.Serve()
}
