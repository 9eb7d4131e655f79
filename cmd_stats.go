package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dockchat/utils"
)

var flagVacuum bool

func init() {
	statsCmd.Flags().BoolVar(&flagVacuum, "vacuum", false, "compact the database file")
	rootCmd.AddCommand(statsCmd)
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show local store statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := buildEnv()
		if err != nil {
			return err
		}
		defer env.close()

		if flagVacuum {
			if err := env.db.Vacuum(); err != nil {
				return fmt.Errorf("failed to vacuum store: %w", err)
			}
		}

		stats, err := env.db.GetStats()
		if err != nil {
			return fmt.Errorf("failed to read store stats: %w", err)
		}
		keys, err := env.db.Keys()
		if err != nil {
			return fmt.Errorf("failed to list store keys: %w", err)
		}

		fmt.Printf("database: %s\n", env.config.Data.DBPath)
		fmt.Printf("size:     %s\n", utils.FormatFileSize(stats.DBSizeBytes))
		fmt.Printf("keys:     %d\n", stats.KeyCount)
		for _, k := range keys {
			fmt.Printf("  %s\n", k)
		}

		usage := env.engine.UsageStats()
		fmt.Printf("turns:    %d\n", usage.TotalTurns)
		fmt.Printf("tokens:   %d\n", usage.TotalTokens)
		return nil
	},
}
