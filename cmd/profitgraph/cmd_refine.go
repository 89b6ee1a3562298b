package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var refineCmd = &cobra.Command{
	Use:   "refine",
	Short: "Derive typed entity relationships for unrefined strategies",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newRefineApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		results, err := a.pipeline.Refine(ctx)
		if len(results) == 0 && err == nil {
			fmt.Println("All strategies are already refined.")
			return nil
		}
		for _, r := range results {
			fmt.Printf("%s  injected=%d rejected=%d failed=%d stamped=%t\n",
				r.StrategyID, r.Injected, r.Rejected, r.Failed, r.Stamped)
		}
		return err
	},
}
