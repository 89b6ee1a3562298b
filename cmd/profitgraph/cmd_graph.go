package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agenthands/profitgraph/internal/core/community"
	"github.com/agenthands/profitgraph/internal/driver"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create the Entity.name uniqueness constraint and lookup indexes",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newGraphApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.graph.BuildIndices(ctx); err != nil {
			return err
		}
		fmt.Println("Constraints applied.")
		return nil
	},
}

var checkLimit int

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Show a few synced videos and their strategy previews",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newGraphApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.graph.ExecuteQuery(ctx, driver.CheckQuery, map[string]interface{}{
			"limit": int64(checkLimit),
		})
		if err != nil {
			return err
		}
		if len(res.Records) == 0 {
			fmt.Println("Graph is empty.")
			return nil
		}
		for _, rec := range res.Records {
			id, _ := rec.Get("id")
			preview, _ := rec.Get("preview")
			fmt.Printf("%v: %v...\n", id, preview)
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().IntVar(&checkLimit, "limit", 5, "number of videos to show")
}

var clustersCmd = &cobra.Command{
	Use:   "clusters",
	Short: "Group entities by their refined relationships",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newGraphApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		clusters, err := community.NewClusterer(a.graph, a.log).Clusters(ctx)
		if err != nil {
			return err
		}
		if len(clusters) == 0 {
			fmt.Println("No related entities yet. Run 'profitgraph refine' first.")
			return nil
		}
		for i, c := range clusters {
			fmt.Printf("[%d] %d entities\n", i+1, len(c.Members))
			for _, m := range c.Members {
				if m.Type != "" {
					fmt.Printf("    %s (%s)\n", m.Name, m.Type)
				} else {
					fmt.Printf("    %s\n", m.Name)
				}
			}
		}
		return nil
	},
}
