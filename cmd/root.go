package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "settlement",
	Short: "Payment settlement microservice",
	Long:  "A settlement microservice for marketplace payments: provider checkout flows, webhooks, credit wallets, and reconciliation jobs.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
