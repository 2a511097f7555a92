package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/teemow/ticktick-mcp/internal/config"
)

// rootCmd represents the base command for the ticktick-mcp application
var rootCmd = &cobra.Command{
	Use:   "ticktick-mcp",
	Short: "MCP server for TickTick projects and tasks",
	Long: `ticktick-mcp exposes the TickTick Open API to AI assistants through the
Model Context Protocol (MCP).

It can run as:
  - An MCP server over SSE, streamable HTTP or stdio (default: serve)
  - A CLI that lists today's tasks
  - An OAuth helper that obtains and stores a TickTick access token`,
	SilenceUsage: true,
}

// envFile is the optional .env file read before the environment.
var envFile string

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "ticktick-mcp version %s\n" .Version}}`)

	// If no subcommand is provided, run the MCP server
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", config.DefaultEnvFile, "Optional .env file with TICKTICK_* and MCP_* variables")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newTodayCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("ticktick-mcp version %s\n", version)
		},
	}
}
