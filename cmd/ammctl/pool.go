package main

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"ammPool/internal/ledger"
	"ammPool/internal/model"
)

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a pool for an asset pair",
	}
	cmd.Flags().Uint64("seed", 0, "pool seed")
	cmd.Flags().String("mint-x", "", "asset x mint")
	cmd.Flags().String("mint-y", "", "asset y mint")
	cmd.Flags().Uint16("fee-bps", 30, "swap fee in basis points")
	cmd.Flags().String("authority", "", "lock authority, empty for none")

	cmd.RunE = withEnv(func(ctx context.Context, e *env) (interface{}, error) {
		mintX, err := keyFlag(cmd, "mint-x")
		if err != nil {
			return nil, err
		}
		mintY, err := keyFlag(cmd, "mint-y")
		if err != nil {
			return nil, err
		}
		authorityText, _ := cmd.Flags().GetString("authority")
		authority, err := ledger.ParseOptionalKey(authorityText)
		if err != nil {
			return nil, fmt.Errorf("--authority: %w", err)
		}
		seed, _ := cmd.Flags().GetUint64("seed")
		fee, _ := cmd.Flags().GetUint16("fee-bps")

		return e.svc.Initialize(ctx, ledger.InitRequest{
			Seed:      seed,
			MintX:     mintX,
			MintY:     mintY,
			FeeBps:    fee,
			Authority: authority,
		})
	})
	return cmd
}

func newDepositCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deposit",
		Short: "Mint pool shares against a bounded contribution",
	}
	cmd.Flags().String("pool", "", "pool address")
	cmd.Flags().String("owner", "", "depositor")
	cmd.Flags().Uint64("lp", 0, "shares to mint")
	cmd.Flags().Uint64("max-x", 0, "most x to contribute (exact amount on the first deposit)")
	cmd.Flags().Uint64("max-y", 0, "most y to contribute (exact amount on the first deposit)")

	cmd.RunE = withEnv(func(ctx context.Context, e *env) (interface{}, error) {
		pool, owner, err := poolAndKey(cmd, "owner")
		if err != nil {
			return nil, err
		}
		lp, _ := cmd.Flags().GetUint64("lp")
		maxX, _ := cmd.Flags().GetUint64("max-x")
		maxY, _ := cmd.Flags().GetUint64("max-y")
		return e.svc.Deposit(ctx, pool, owner, lp, maxX, maxY)
	})
	return cmd
}

func newSwapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "swap",
		Short: "Exchange one asset for the other",
	}
	cmd.Flags().String("pool", "", "pool address")
	cmd.Flags().String("owner", "", "trader")
	cmd.Flags().String("from", "x", "input side (x or y)")
	cmd.Flags().Uint64("amount-in", 0, "input amount")
	cmd.Flags().Uint64("min-out", 0, "least output accepted")

	cmd.RunE = withEnv(func(ctx context.Context, e *env) (interface{}, error) {
		pool, owner, err := poolAndKey(cmd, "owner")
		if err != nil {
			return nil, err
		}
		xToY, err := sideFlag(cmd)
		if err != nil {
			return nil, err
		}
		amountIn, _ := cmd.Flags().GetUint64("amount-in")
		minOut, _ := cmd.Flags().GetUint64("min-out")
		return e.svc.Swap(ctx, pool, owner, xToY, amountIn, minOut)
	})
	return cmd
}

func newWithdrawCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "withdraw",
		Short: "Burn pool shares for a proportional payout",
	}
	cmd.Flags().String("pool", "", "pool address")
	cmd.Flags().String("owner", "", "share holder")
	cmd.Flags().Uint64("lp", 0, "shares to burn")
	cmd.Flags().Uint64("min-x", 0, "least x accepted")
	cmd.Flags().Uint64("min-y", 0, "least y accepted")

	cmd.RunE = withEnv(func(ctx context.Context, e *env) (interface{}, error) {
		pool, owner, err := poolAndKey(cmd, "owner")
		if err != nil {
			return nil, err
		}
		lp, _ := cmd.Flags().GetUint64("lp")
		minX, _ := cmd.Flags().GetUint64("min-x")
		minY, _ := cmd.Flags().GetUint64("min-y")
		return e.svc.Withdraw(ctx, pool, owner, lp, minX, minY)
	})
	return cmd
}

func newLockCmd(locked bool) *cobra.Command {
	use, short := "unlock", "Resume a paused pool"
	if locked {
		use, short = "lock", "Pause deposits, swaps and withdrawals"
	}
	cmd := &cobra.Command{Use: use, Short: short}
	cmd.Flags().String("pool", "", "pool address")
	cmd.Flags().String("authority", "", "pool authority")

	cmd.RunE = withEnv(func(ctx context.Context, e *env) (interface{}, error) {
		pool, authority, err := poolAndKey(cmd, "authority")
		if err != nil {
			return nil, err
		}
		return e.svc.SetLocked(ctx, pool, authority, locked)
	})
	return cmd
}

type poolView struct {
	model.PoolRecord
	Owner  string  `json:"owner,omitempty"`
	Shares *uint64 `json:"owner_shares,omitempty"`
}

func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print one pool, or every pool when --pool is empty",
	}
	cmd.Flags().String("pool", "", "pool address")
	cmd.Flags().String("owner", "", "also print this holder's shares")

	cmd.RunE = withEnv(func(ctx context.Context, e *env) (interface{}, error) {
		poolText, _ := cmd.Flags().GetString("pool")
		if poolText == "" {
			return e.svc.Pools(ctx)
		}
		pool, err := keyFlag(cmd, "pool")
		if err != nil {
			return nil, err
		}
		rec, err := e.svc.Pool(ctx, pool)
		if err != nil {
			return nil, err
		}
		view := poolView{PoolRecord: rec}

		ownerText, _ := cmd.Flags().GetString("owner")
		owner, err := ledger.ParseOptionalKey(ownerText)
		if err != nil {
			return nil, fmt.Errorf("--owner: %w", err)
		}
		if owner != nil {
			shares, err := e.svc.Shares(ctx, pool, *owner)
			if err != nil {
				return nil, err
			}
			view.Owner = owner.String()
			view.Shares = &shares
		}
		return view, nil
	})
	return cmd
}

func poolAndKey(cmd *cobra.Command, name string) (solana.PublicKey, solana.PublicKey, error) {
	pool, err := keyFlag(cmd, "pool")
	if err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, err
	}
	key, err := keyFlag(cmd, name)
	if err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, err
	}
	return pool, key, nil
}
