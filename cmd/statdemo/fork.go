package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"rpgstat"
)

var (
	forkBasePath    string
	forkOverlayPath string
	forkCtxFlags    []string
)

var forkCmd = &cobra.Command{
	Use:   "fork <stat>",
	Short: "Resolve a stat on a base resolver and on a forked overlay, side by side",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		baseTable, err := loadBonusTable(forkBasePath)
		if err != nil {
			return err
		}
		overlayTable, err := loadBonusTable(forkOverlayPath)
		if err != nil {
			return err
		}
		ctx, err := parseContextFlags(forkCtxFlags)
		if err != nil {
			return err
		}

		base := rpgstat.New[rpgstat.FloatValue]()
		if err := applyBonusTable(base, baseTable); err != nil {
			return err
		}

		overlay := base.Fork()
		if err := applyBonusTable(overlay, overlayTable); err != nil {
			return err
		}

		stat := rpgstat.NewStatID(args[0])
		baseResolved, err := base.Resolve(stat, ctx)
		if err != nil {
			return fmt.Errorf("resolve %s on base: %w", args[0], err)
		}
		overlayResolved, err := overlay.Resolve(stat, ctx)
		if err != nil {
			return fmt.Errorf("resolve %s on fork: %w", args[0], err)
		}

		fmt.Printf("%s base   = %v\n", args[0], baseResolved.Value.Float64())
		fmt.Printf("%s forked = %v\n", args[0], overlayResolved.Value.Float64())
		return nil
	},
}

func init() {
	forkCmd.Flags().StringVar(&forkBasePath, "base", "", "path to the base YAML bonus table (required)")
	forkCmd.Flags().StringVar(&forkOverlayPath, "overlay", "", "path to the overlay YAML bonus table applied only to the fork (required)")
	forkCmd.Flags().StringArrayVar(&forkCtxFlags, "ctx", nil, "context fact as key=value, repeatable")
	forkCmd.MarkFlagRequired("base")
	forkCmd.MarkFlagRequired("overlay")
}
