package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/veridex-ai/veridex/internal/cli"
	"github.com/veridex-ai/veridex/internal/cli/admin"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "veridexd",
		Short: "Veridex daemon and CLI",
		Long:  "Veridex daemon for running the insight API server and managing agents and trust scores",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())
	rootCmd.AddCommand(admin.AgentCmd())
	rootCmd.AddCommand(admin.TrustCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
