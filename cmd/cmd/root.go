package cmd

import (
	"github.com/spf13/cobra"
)

const AppName = "gifler"

func Execute() error {
	rootCmd := &cobra.Command{
		Use:   AppName,
		Short: AppName + " - animated GIF decoding and frame extraction tool",
	}

	rootCmd.PersistentFlags().String("log-level", "INFO", "minimum log level (DEBUG, INFO, WARN, ERROR)")

	rootCmd.AddCommand(DefineInfoCommand())
	rootCmd.AddCommand(DefineExtractCommand())

	return rootCmd.Execute()
}
