package main

import "github.com/spf13/cobra"

var rootCmd = &cobra.Command{
	Use:   "statdemo",
	Short: "Exercise the rpgstat engine from a YAML bonus table",
	Long: `statdemo loads a YAML bonus table describing stat sources and bonuses,
registers them against an in-memory rpgstat engine, and resolves one or more
stats against a context built from --ctx flags.`,
}

// Execute runs the statdemo root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(explainCmd)
	rootCmd.AddCommand(forkCmd)
}
