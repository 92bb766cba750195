package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cloo-solutions/docindex/internal/cli/admin"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "docindexd",
		Short:        "Document indexing daemon and CLI",
		Long:         "docindexd serves the document indexing API and runs operator commands against the same database",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(admin.ServeCmd())
	rootCmd.AddCommand(admin.MigrateCmd())
	rootCmd.AddCommand(admin.PutCmd())
	rootCmd.AddCommand(admin.BackfillCmd())
	rootCmd.AddCommand(admin.SearchCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
