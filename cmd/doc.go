// Package cmd implements the command-line interface for calactions.
//
// This package provides the following commands:
//   - serve: Start the Rasa action server the dialogue manager calls
//   - mcp: Expose the calendar actions as MCP tools on stdio
//   - auth: Run the interactive Google OAuth authorization flow
//   - version: Display version information
//
// The serve command is the default command when no subcommand is specified.
package cmd
