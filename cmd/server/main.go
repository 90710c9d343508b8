package main // Entry point package

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load() // A missing .env is fine; real deployments set the environment directly

	root := &cobra.Command{
		Use:          "store-rating-api",
		Short:        "Store rating REST API",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context()) // serve is the default action
		},
	}
	root.AddCommand(newServeCmd(), newCreateAdminCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
