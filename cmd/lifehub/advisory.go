package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"lifehub/internal/advisory"
	"lifehub/internal/domain"
	"lifehub/internal/engine"
)

var (
	advisoryModule string
	advisoryLimit  int
)

var advisoryCmd = &cobra.Command{
	Use:   "advisory",
	Short: "Inspect the advisory feed",
}

var advisoryListCmd = &cobra.Command{
	Use:       "list [insight|recommendation|prediction]",
	Short:     "List advisory items of one kind",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"insight", "recommendation", "prediction"},
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := domain.AdvisoryKind(args[0])
		if !kind.Valid() {
			return fmt.Errorf("unknown advisory kind %q", args[0])
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		// The feed is in-memory; the CLI seeds fixtures to have something to
		// show. The real generator lives app-side.
		cfg.Engine.SeedFixtures = true
		cfg.Engine.StorePath = ""

		eng, err := engine.New(cfg, engine.Deps{})
		if err != nil {
			return err
		}
		ctx := context.Background()
		if err := eng.Init(ctx); err != nil {
			return err
		}
		defer eng.Teardown(ctx)

		items := eng.Feed.List(kind, advisory.ListOptions{
			Module: domain.ModuleTag(advisoryModule),
			Limit:  advisoryLimit,
		})
		if len(items) == 0 {
			fmt.Println("no items")
			return nil
		}
		for _, item := range items {
			rank := string(item.Priority)
			if rank == "" {
				rank = fmt.Sprintf("%.0f%%", item.Confidence*100)
			}
			actionable := ""
			if item.Template != nil {
				actionable = fmt.Sprintf("  -> %s", item.Template.Title)
			}
			fmt.Printf("[%s/%s] %s - %s%s\n", item.Module, rank, item.Title, item.Body, actionable)
		}
		return nil
	},
}

var advisoryClearCmd = &cobra.Command{
	Use:       "clear [insight|recommendation|prediction]",
	Short:     "Clear advisory items of one kind",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"insight", "recommendation", "prediction"},
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := domain.AdvisoryKind(args[0])
		if !kind.Valid() {
			return fmt.Errorf("unknown advisory kind %q", args[0])
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		cfg.Engine.SeedFixtures = true
		cfg.Engine.StorePath = ""

		eng, err := engine.New(cfg, engine.Deps{})
		if err != nil {
			return err
		}
		ctx := context.Background()
		if err := eng.Init(ctx); err != nil {
			return err
		}
		defer eng.Teardown(ctx)

		removed := eng.Feed.Clear(kind, domain.ModuleTag(advisoryModule))
		fmt.Printf("cleared %d %s item(s)\n", removed, kind)
		return nil
	},
}

func init() {
	advisoryListCmd.Flags().StringVarP(&advisoryModule, "module", "m", "", "filter by module")
	advisoryListCmd.Flags().IntVarP(&advisoryLimit, "limit", "n", 0, "max items")
	advisoryClearCmd.Flags().StringVarP(&advisoryModule, "module", "m", "", "clear one module only")
	advisoryCmd.AddCommand(advisoryListCmd)
	advisoryCmd.AddCommand(advisoryClearCmd)
}
