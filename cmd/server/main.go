package main

import (
	"fmt"
	"os"

	"github.com/m2tx/chat_orchestrator/internal/config"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           config.AppName,
		Short:         "Chat backend that moderates, tracks attachments and streams model answers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file (default ./config.yaml)")

	root.AddCommand(newServeCmd(&configPath))
	return root
}
