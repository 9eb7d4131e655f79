package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(modelsCmd)
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models available on the backend",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := buildEnv()
		if err != nil {
			return err
		}
		defer env.close()

		if !env.engine.APIKeyReady() {
			return fmt.Errorf("no API key stored; run dockchat and use /setkey first")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		models, err := env.client.ListModels(ctx, env.engine.APIKey())
		if err != nil {
			return fmt.Errorf("failed to fetch models: %w", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCREATED")
		for _, m := range models {
			fmt.Fprintf(w, "%s\t%s\n", m.ID, time.Unix(m.CreatedAt, 0).Format("2006-01-02"))
		}
		return w.Flush()
	},
}
