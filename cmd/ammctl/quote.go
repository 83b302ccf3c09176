package main

import (
	"context"

	"github.com/spf13/cobra"
)

func newQuoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Price an operation against the stored pool without changing it",
	}

	swap := &cobra.Command{Use: "swap", Short: "Quote a swap"}
	swap.Flags().String("pool", "", "pool address")
	swap.Flags().String("from", "x", "input side (x or y)")
	swap.Flags().Uint64("amount-in", 0, "input amount")
	swap.RunE = withEnv(func(ctx context.Context, e *env) (interface{}, error) {
		pool, err := keyFlag(swap, "pool")
		if err != nil {
			return nil, err
		}
		xToY, err := sideFlag(swap)
		if err != nil {
			return nil, err
		}
		amountIn, _ := swap.Flags().GetUint64("amount-in")
		return e.svc.QuoteSwap(ctx, pool, xToY, amountIn)
	})

	deposit := &cobra.Command{Use: "deposit", Short: "Quote the contribution for minting shares"}
	deposit.Flags().String("pool", "", "pool address")
	deposit.Flags().Uint64("lp", 0, "shares to mint")
	deposit.Flags().Uint64("max-x", 0, "most x to contribute")
	deposit.Flags().Uint64("max-y", 0, "most y to contribute")
	deposit.RunE = withEnv(func(ctx context.Context, e *env) (interface{}, error) {
		pool, err := keyFlag(deposit, "pool")
		if err != nil {
			return nil, err
		}
		lp, _ := deposit.Flags().GetUint64("lp")
		maxX, _ := deposit.Flags().GetUint64("max-x")
		maxY, _ := deposit.Flags().GetUint64("max-y")
		return e.svc.QuoteDeposit(ctx, pool, lp, maxX, maxY)
	})

	withdraw := &cobra.Command{Use: "withdraw", Short: "Quote the payout for burning shares"}
	withdraw.Flags().String("pool", "", "pool address")
	withdraw.Flags().String("owner", "", "share holder")
	withdraw.Flags().Uint64("lp", 0, "shares to burn")
	withdraw.RunE = withEnv(func(ctx context.Context, e *env) (interface{}, error) {
		pool, owner, err := poolAndKey(withdraw, "owner")
		if err != nil {
			return nil, err
		}
		lp, _ := withdraw.Flags().GetUint64("lp")
		return e.svc.QuoteWithdraw(ctx, pool, owner, lp)
	})

	cmd.AddCommand(swap, deposit, withdraw)
	return cmd
}
