package main

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/agenthands/profitgraph/internal/artifacts"
	"github.com/agenthands/profitgraph/internal/logger"
)

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List transcripts not yet processed and cases awaiting graph sync",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store := artifacts.NewStore(cfg.Storage, logger.NewNop())

		done, err := store.History.Load()
		if err != nil {
			return err
		}
		candidates, err := artifacts.Pending(store.Dir, done)
		if err != nil {
			return err
		}

		if len(candidates) == 0 {
			fmt.Println("No new transcripts found.")
		}
		for i, c := range candidates {
			fmt.Printf("[%d] %s (%s)\n", i+1, c.CaseID, filepath.Base(c.Path))
		}

		unsynced, err := store.Pending.Load()
		if err != nil {
			return err
		}
		if len(unsynced) > 0 {
			ids := make([]string, 0, len(unsynced))
			for id := range unsynced {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			fmt.Println("\nAwaiting graph sync:")
			for _, id := range ids {
				fmt.Printf("  %s\n", id)
			}
		}
		return nil
	},
}
