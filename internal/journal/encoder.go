package journal

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gagliardetto/solana-go"

	"ammPool/internal/amm"
	"ammPool/internal/model"
)

// Encoder turns committed pool operations into journal records. Sequence
// numbers are left zero and stamped by the Writer.
type Encoder struct {
	poolABI abi.ABI
	now     func() time.Time
}

func NewEncoder() (*Encoder, error) {
	poolABI, err := PoolEventsABI()
	if err != nil {
		return nil, fmt.Errorf("parse pool events abi: %w", err)
	}
	return &Encoder{poolABI: poolABI, now: time.Now}, nil
}

// Initialize encodes the creation of a pool.
func (e *Encoder) Initialize(cfg amm.Config) (model.LogRecord, error) {
	var authority solana.PublicKey
	if cfg.Authority != nil {
		authority = *cfg.Authority
	}
	return e.build(model.EventInitialize, cfg.Addresses.Config, authority,
		[32]byte(cfg.MintX),
		[32]byte(cfg.MintY),
		cfg.Seed,
		cfg.FeeBps,
		[32]byte(cfg.Addresses.LPMint),
		[32]byte(cfg.Addresses.VaultX),
		[32]byte(cfg.Addresses.VaultY),
	)
}

// Deposit encodes a committed deposit; after is the resulting pool state.
func (e *Encoder) Deposit(pool, owner solana.PublicKey, q amm.DepositQuote, after amm.State) (model.LogRecord, error) {
	return e.build(model.EventDeposit, pool, owner,
		q.Shares, q.AmountX, q.AmountY, after.ReserveX, after.ReserveY, after.TotalShares)
}

// Swap encodes a committed swap; after is the resulting pool state.
func (e *Encoder) Swap(pool, owner solana.PublicKey, q amm.SwapQuote, after amm.State) (model.LogRecord, error) {
	return e.build(model.EventSwap, pool, owner,
		q.XToY, q.AmountIn, q.AmountInNet, q.AmountOut, after.ReserveX, after.ReserveY)
}

// Withdraw encodes a committed withdrawal; after is the resulting pool state.
func (e *Encoder) Withdraw(pool, owner solana.PublicKey, q amm.WithdrawQuote, after amm.State) (model.LogRecord, error) {
	return e.build(model.EventWithdraw, pool, owner,
		q.Shares, q.AmountX, q.AmountY, after.ReserveX, after.ReserveY, after.TotalShares)
}

// Lock encodes a lock toggle.
func (e *Encoder) Lock(pool, authority solana.PublicKey, locked bool) (model.LogRecord, error) {
	return e.build(model.EventLock, pool, authority, locked)
}

func (e *Encoder) build(name string, pool, actor solana.PublicKey, values ...interface{}) (model.LogRecord, error) {
	event, ok := e.poolABI.Events[name]
	if !ok {
		return model.LogRecord{}, fmt.Errorf("unknown event %s", name)
	}
	data, err := event.Inputs.NonIndexed().Pack(values...)
	if err != nil {
		return model.LogRecord{}, fmt.Errorf("pack %s: %w", name, err)
	}
	return buildLogRecord(pool, event.ID, data, []common.Hash{topicFromKey(pool), topicFromKey(actor)}, e.now()), nil
}

func buildLogRecord(pool solana.PublicKey, topic0 common.Hash, data []byte, indexed []common.Hash, at time.Time) model.LogRecord {
	topics := make([]string, 0, len(indexed)+1)
	topics = append(topics, topic0.Hex())
	for _, topic := range indexed {
		topics = append(topics, topic.Hex())
	}

	return model.LogRecord{
		Pool:       pool.String(),
		Topics:     topics,
		Data:       hexutil.Encode(data),
		Timestamp:  uint64(at.Unix()),
		RecordedAt: at.UTC().Format(time.RFC3339Nano),
	}
}

func topicFromKey(key solana.PublicKey) common.Hash {
	return common.BytesToHash(key[:])
}
