// Package cmd implements the command-line interface for ticktick-mcp.
//
// This package provides the following commands:
//   - serve: Start the MCP server (sse, streamable-http or stdio)
//   - today: Print today's tasks across all projects
//   - auth: Run the TickTick OAuth flow and store the access token
//   - generate-docs: Generate markdown documentation for all MCP tools
//   - version: Display version information
//
// The serve command is the default command when no subcommand is specified.
// Settings come from flags, then environment variables (optionally loaded
// from a .env file), then defaults.
package cmd
