package main

import (
	"github.com/spf13/cobra"

	"ammPool/internal/amm"
	"ammPool/internal/ledger"
)

func newDeriveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "derive",
		Short: "Print the pool, share mint and vault addresses for a seed and pair",
		RunE: func(cmd *cobra.Command, _ []string) error {
			programText, _ := cmd.Flags().GetString("program-id")
			programID, err := ledger.ParseKey(programText)
			if err != nil {
				return err
			}
			mintX, err := keyFlag(cmd, "mint-x")
			if err != nil {
				return err
			}
			mintY, err := keyFlag(cmd, "mint-y")
			if err != nil {
				return err
			}
			seed, _ := cmd.Flags().GetUint64("seed")

			addrs, err := amm.Derive(programID, seed, mintX, mintY)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), addrs)
		},
	}
	cmd.Flags().Uint64("seed", 0, "pool seed")
	cmd.Flags().String("mint-x", "", "asset x mint")
	cmd.Flags().String("mint-y", "", "asset y mint")
	return cmd
}
