package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const (
	version           = "0.1.0"
	defaultConfigPath = "configs/moviemate.yaml"
)

var configPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, styleError.Render(err.Error()))
		os.Exit(1)
	}
}

// newRootCmd builds the command tree.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "moviemate",
		Short: "Conversational movie discovery assistant",
		Long: "MovieMate is a movie-buff assistant. Ask it to find a movie by title,\n" +
			"recommend by genre, find similar movies, or list what an actor or director made.",
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to configuration file")

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	rootCmd.AddCommand(
		newVersionCmd(),
		newChatCmd(),
		newQueryCmd(),
		newBotCmd(),
		newMCPServeCmd(),
		newModelsCmd(),
		newConfigCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "MovieMate v%s\n", version)
		},
	}
}
