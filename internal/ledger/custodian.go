package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
)

// ErrInsufficientFunds is returned by MemoryCustodian when an account cannot
// cover a transfer.
var ErrInsufficientFunds = errors.New("insufficient funds")

// Custodian moves assets between user accounts and pool vaults and issues
// share tokens. The ledger calls it before committing, and undoes completed
// steps through the inverse call when a later step fails.
type Custodian interface {
	Deposit(ctx context.Context, from, vault, mint solana.PublicKey, amount uint64) error
	Withdraw(ctx context.Context, vault, to, mint solana.PublicKey, amount uint64) error
	MintShares(ctx context.Context, lpMint, to solana.PublicKey, amount uint64) error
	BurnShares(ctx context.Context, lpMint, from solana.PublicKey, amount uint64) error
}

// MemoryCustodian keeps token balances per (mint, account) in memory.
type MemoryCustodian struct {
	mu       sync.Mutex
	balances map[balanceKey]uint64
}

type balanceKey struct {
	mint    solana.PublicKey
	account solana.PublicKey
}

var _ Custodian = (*MemoryCustodian)(nil)

func NewMemoryCustodian() *MemoryCustodian {
	return &MemoryCustodian{balances: make(map[balanceKey]uint64)}
}

// Fund credits amount of mint to account.
func (c *MemoryCustodian) Fund(mint, account solana.PublicKey, amount uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.credit(mint, account, amount)
}

// Balance returns the balance of mint held by account.
func (c *MemoryCustodian) Balance(mint, account solana.PublicKey) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.balances[balanceKey{mint: mint, account: account}]
}

func (c *MemoryCustodian) Deposit(_ context.Context, from, vault, mint solana.PublicKey, amount uint64) error {
	return c.move(mint, from, vault, amount)
}

func (c *MemoryCustodian) Withdraw(_ context.Context, vault, to, mint solana.PublicKey, amount uint64) error {
	return c.move(mint, vault, to, amount)
}

func (c *MemoryCustodian) MintShares(_ context.Context, lpMint, to solana.PublicKey, amount uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.credit(lpMint, to, amount)
}

func (c *MemoryCustodian) BurnShares(_ context.Context, lpMint, from solana.PublicKey, amount uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.debit(lpMint, from, amount)
}

func (c *MemoryCustodian) move(mint, from, to solana.PublicKey, amount uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.debit(mint, from, amount); err != nil {
		return err
	}
	if err := c.credit(mint, to, amount); err != nil {
		// restore the debit; it cannot fail
		c.balances[balanceKey{mint: mint, account: from}] += amount
		return err
	}
	return nil
}

func (c *MemoryCustodian) debit(mint, account solana.PublicKey, amount uint64) error {
	key := balanceKey{mint: mint, account: account}
	have := c.balances[key]
	if have < amount {
		return fmt.Errorf("%w: %s holds %d of %s, needs %d", ErrInsufficientFunds, account, have, mint, amount)
	}
	c.balances[key] = have - amount
	return nil
}

func (c *MemoryCustodian) credit(mint, account solana.PublicKey, amount uint64) error {
	key := balanceKey{mint: mint, account: account}
	have := c.balances[key]
	if have+amount < have {
		return fmt.Errorf("balance overflow: %s of %s", account, mint)
	}
	c.balances[key] = have + amount
	return nil
}

// transfer is one custodian step together with its inverse.
type transfer struct {
	name string
	do   func(ctx context.Context) error
	undo func(ctx context.Context) error
}

func depositStep(c Custodian, from, vault, mint solana.PublicKey, amount uint64) transfer {
	return transfer{
		name: "deposit " + mint.String(),
		do:   func(ctx context.Context) error { return c.Deposit(ctx, from, vault, mint, amount) },
		undo: func(ctx context.Context) error { return c.Withdraw(ctx, vault, from, mint, amount) },
	}
}

func withdrawStep(c Custodian, vault, to, mint solana.PublicKey, amount uint64) transfer {
	return transfer{
		name: "withdraw " + mint.String(),
		do:   func(ctx context.Context) error { return c.Withdraw(ctx, vault, to, mint, amount) },
		undo: func(ctx context.Context) error { return c.Deposit(ctx, to, vault, mint, amount) },
	}
}

func mintStep(c Custodian, lpMint, to solana.PublicKey, amount uint64) transfer {
	return transfer{
		name: "mint shares",
		do:   func(ctx context.Context) error { return c.MintShares(ctx, lpMint, to, amount) },
		undo: func(ctx context.Context) error { return c.BurnShares(ctx, lpMint, to, amount) },
	}
}

func burnStep(c Custodian, lpMint, from solana.PublicKey, amount uint64) transfer {
	return transfer{
		name: "burn shares",
		do:   func(ctx context.Context) error { return c.BurnShares(ctx, lpMint, from, amount) },
		undo: func(ctx context.Context) error { return c.MintShares(ctx, lpMint, from, amount) },
	}
}
