package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"rpgstat"
)

var (
	resolveBonusPath string
	resolveCtxFlags  []string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [stat ...]",
	Short: "Resolve one or more stats from a bonus table",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		table, err := loadBonusTable(resolveBonusPath)
		if err != nil {
			return err
		}
		ctx, err := parseContextFlags(resolveCtxFlags)
		if err != nil {
			return err
		}

		r := rpgstat.New[rpgstat.FloatValue]()
		if err := applyBonusTable(r, table); err != nil {
			return err
		}

		for _, name := range args {
			resolved, err := r.Resolve(rpgstat.NewStatID(name), ctx)
			if err != nil {
				return fmt.Errorf("resolve %s: %w", name, err)
			}
			fmt.Printf("%s = %v\n", name, resolved.Value.Float64())
		}
		return nil
	},
}

func init() {
	resolveCmd.Flags().StringVar(&resolveBonusPath, "bonuses", "", "path to a YAML bonus table (required)")
	resolveCmd.Flags().StringArrayVar(&resolveCtxFlags, "ctx", nil, "context fact as key=value, repeatable")
	resolveCmd.MarkFlagRequired("bonuses")
}
