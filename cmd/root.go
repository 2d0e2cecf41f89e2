package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "task-crafter",
	Short: "Task Crafter breaks free-form text into GitHub issues",
	Long: `Task Crafter takes free-form natural-language text, asks a language
model to decompose it into a main task plus subtasks, and files each as
a GitHub issue, optionally attached to a Projects v2 board.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add persistent flags that will be available to all commands
	rootCmd.PersistentFlags().StringP("detail", "d", "medium", "Extraction detail level: low, medium or high")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(publishCmd)
}
