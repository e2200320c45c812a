package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the calactions application
var rootCmd = &cobra.Command{
	Use:   "calactions",
	Short: "Custom action server connecting a Rasa assistant to Google Calendar",
	Long: `calactions runs the custom actions of a calendar assistant. The dialogue
manager delegates action execution here over the action-server webhook, and
the actions read and write a Google Calendar on the user's behalf.

It can run as:
  - A Rasa action server (default)
  - An MCP (Model Context Protocol) server exposing the same actions as tools`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "calactions version %s\n" .Version}}`)

	// If no subcommand is provided, run the action server by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMCPCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newVersionCmd())
}
