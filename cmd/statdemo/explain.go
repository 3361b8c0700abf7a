package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"rpgstat"
)

var (
	explainBonusPath string
	explainCtxFlags  []string
)

var explainCmd = &cobra.Command{
	Use:   "explain <stat>",
	Short: "Resolve a stat with debug mode on and print its full breakdown",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		table, err := loadBonusTable(explainBonusPath)
		if err != nil {
			return err
		}
		ctx, err := parseContextFlags(explainCtxFlags)
		if err != nil {
			return err
		}

		r := rpgstat.New[rpgstat.FloatValue]()
		r.Debug(true)
		if err := applyBonusTable(r, table); err != nil {
			return err
		}

		stat := args[0]
		resolved, err := r.Resolve(rpgstat.NewStatID(stat), ctx)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", stat, err)
		}

		fmt.Printf("%s = %v\n", stat, resolved.Value.Float64())
		fmt.Println("sources:")
		for _, c := range resolved.SourceContributions {
			fmt.Printf("  %-12s %v\n", c.Origin, c.Value.Float64())
		}
		fmt.Println("transform steps:")
		for _, step := range resolved.TransformSteps {
			fmt.Printf("  phase=%-3d rule=%-14s %-20s %v -> %v\n",
				step.Phase, step.Rule.Kind.String(), step.Label, step.Before.Float64(), step.After.Float64())
		}
		return nil
	},
}

func init() {
	explainCmd.Flags().StringVar(&explainBonusPath, "bonuses", "", "path to a YAML bonus table (required)")
	explainCmd.Flags().StringArrayVar(&explainCtxFlags, "ctx", nil, "context fact as key=value, repeatable")
	explainCmd.MarkFlagRequired("bonuses")
}
