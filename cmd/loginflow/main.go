package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/emrepbu/loginflow/cmd/loginflow/commands"
	"github.com/spf13/cobra"
)

func main() {
	var debug bool

	var rootCmd = &cobra.Command{
		Use:           "loginflow",
		Short:         "Google sign-in flow from the command line",
		Long:          "Sign in with Google, complete the profile and follow the session of this device",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	opts := &commands.Options{Debug: &debug}
	rootCmd.AddCommand(commands.NewSignInCmd(opts))
	rootCmd.AddCommand(commands.NewSignOutCmd(opts))
	rootCmd.AddCommand(commands.NewProfileCmd(opts))
	rootCmd.AddCommand(commands.NewStatusCmd(opts))
	rootCmd.AddCommand(commands.NewNavigateCmd(opts))
	rootCmd.AddCommand(commands.NewWatchCmd(opts))
	rootCmd.AddCommand(commands.NewLanguageCmd(opts))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		os.Exit(1)
	}
}
