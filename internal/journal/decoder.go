package journal

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"ammPool/internal/model"
)

// MetaLookup resolves pool metadata for pools whose Initialize event is not
// in the journal being decoded.
type MetaLookup func(ctx context.Context, pool string) (model.PoolMeta, error)

// DecodeContext provides shared dependencies for decoding.
type DecodeContext struct {
	Context       context.Context
	PoolMetaCache *PoolMetaCache
	Lookup        MetaLookup
	Logger        *zap.Logger
}

// PoolMetaCache caches pool metadata by pool address.
type PoolMetaCache struct {
	mu   sync.RWMutex
	data map[string]model.PoolMeta
}

func NewPoolMetaCache() *PoolMetaCache {
	return &PoolMetaCache{data: make(map[string]model.PoolMeta)}
}

func (c *PoolMetaCache) Get(pool string) (model.PoolMeta, bool) {
	c.mu.RLock()
	meta, ok := c.data[pool]
	c.mu.RUnlock()
	return meta, ok
}

func (c *PoolMetaCache) Set(pool string, meta model.PoolMeta) {
	c.mu.Lock()
	c.data[pool] = meta
	c.mu.Unlock()
}

// Decoder turns journal records back into typed events.
type Decoder struct {
	poolABI     abi.ABI
	topicToName map[string]string
}

func NewDecoder() (*Decoder, error) {
	poolABI, err := PoolEventsABI()
	if err != nil {
		return nil, err
	}

	topicToName := make(map[string]string, len(poolABI.Events))
	for name, event := range poolABI.Events {
		topicToName[strings.ToLower(event.ID.Hex())] = name
	}
	return &Decoder{poolABI: poolABI, topicToName: topicToName}, nil
}

// CanDecode checks if the topic0 is a pool event.
func (d *Decoder) CanDecode(topic0 string) bool {
	if topic0 == "" {
		return false
	}
	_, ok := d.topicToName[strings.ToLower(topic0)]
	return ok
}

// Decode converts a LogRecord into a TypedEvent. Initialize events populate
// the metadata cache for the events that follow.
func (d *Decoder) Decode(log model.LogRecord, ctx DecodeContext) (*model.TypedEvent, error) {
	if len(log.Topics) == 0 {
		return nil, fmt.Errorf("missing topics")
	}
	name, ok := d.topicToName[strings.ToLower(log.Topics[0])]
	if !ok {
		return nil, fmt.Errorf("unsupported topic0: %s", log.Topics[0])
	}

	event := d.poolABI.Events[name]
	keys, err := parseIndexedKeys(event, log.Topics)
	if err != nil {
		return nil, err
	}
	if keys[0].String() != log.Pool {
		return nil, fmt.Errorf("pool topic %s does not match record pool %s", keys[0], log.Pool)
	}
	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return nil, err
	}

	if name == model.EventInitialize {
		decoded, err := decodeInitialize(keys[1], values)
		if err != nil {
			return nil, err
		}
		meta := model.PoolMeta{MintX: decoded.MintX, MintY: decoded.MintY, FeeBps: decoded.FeeBps, Seed: decoded.Seed}
		if ctx.PoolMetaCache != nil {
			ctx.PoolMetaCache.Set(log.Pool, meta)
		}
		return buildTypedEvent(log, name, decoded, meta), nil
	}

	meta, err := getPoolMeta(ctx, log.Pool)
	if err != nil {
		return nil, err
	}

	var decoded interface{}
	switch name {
	case model.EventDeposit:
		decoded, err = decodeDeposit(keys[1], values)
	case model.EventSwap:
		decoded, err = decodeSwap(keys[1], values)
	case model.EventWithdraw:
		decoded, err = decodeWithdraw(keys[1], values)
	case model.EventLock:
		decoded, err = decodeLock(keys[1], values)
	default:
		return nil, fmt.Errorf("unsupported event name: %s", name)
	}
	if err != nil {
		return nil, err
	}
	return buildTypedEvent(log, name, decoded, meta), nil
}

func getPoolMeta(ctx DecodeContext, pool string) (model.PoolMeta, error) {
	if ctx.PoolMetaCache != nil {
		if meta, ok := ctx.PoolMetaCache.Get(pool); ok {
			return meta, nil
		}
	}
	if ctx.Lookup == nil {
		return model.PoolMeta{}, fmt.Errorf("no metadata for pool %s", pool)
	}

	callCtx := ctx.Context
	if callCtx == nil {
		callCtx = context.Background()
	}
	meta, err := ctx.Lookup(callCtx, pool)
	if err != nil {
		return model.PoolMeta{}, fmt.Errorf("lookup pool %s: %w", pool, err)
	}
	if ctx.PoolMetaCache != nil {
		ctx.PoolMetaCache.Set(pool, meta)
	}
	return meta, nil
}

func buildTypedEvent(log model.LogRecord, name string, decoded interface{}, meta model.PoolMeta) *model.TypedEvent {
	return &model.TypedEvent{
		Sequence:  log.Sequence,
		Pool:      log.Pool,
		EventName: name,
		Timestamp: log.Timestamp,
		Decoded:   decoded,
		PoolMeta:  meta,
		Raw:       &model.RawLogRef{Topic0: log.Topics[0], Data: log.Data},
	}
}

func decodeInitialize(authority solana.PublicKey, values []interface{}) (model.InitializeEventData, error) {
	if len(values) != 7 {
		return model.InitializeEventData{}, fmt.Errorf("unexpected initialize values: %d", len(values))
	}
	var keys [5]solana.PublicKey
	for i, idx := range []int{0, 1, 4, 5, 6} {
		key, err := asKey(values[idx])
		if err != nil {
			return model.InitializeEventData{}, err
		}
		keys[i] = key
	}
	seed, err := asUint64(values[2])
	if err != nil {
		return model.InitializeEventData{}, err
	}
	feeBps, ok := values[3].(uint16)
	if !ok {
		return model.InitializeEventData{}, fmt.Errorf("unsupported fee type %T", values[3])
	}

	return model.InitializeEventData{
		Authority: keyString(authority),
		MintX:     keys[0].String(),
		MintY:     keys[1].String(),
		Seed:      seed,
		FeeBps:    feeBps,
		LPMint:    keys[2].String(),
		VaultX:    keys[3].String(),
		VaultY:    keys[4].String(),
	}, nil
}

func decodeDeposit(owner solana.PublicKey, values []interface{}) (model.DepositEventData, error) {
	amounts, err := asAmounts(values, 6)
	if err != nil {
		return model.DepositEventData{}, fmt.Errorf("deposit: %w", err)
	}
	return model.DepositEventData{
		Owner:       owner.String(),
		Shares:      amounts[0],
		AmountX:     amounts[1],
		AmountY:     amounts[2],
		ReserveX:    amounts[3],
		ReserveY:    amounts[4],
		TotalShares: amounts[5],
	}, nil
}

func decodeWithdraw(owner solana.PublicKey, values []interface{}) (model.WithdrawEventData, error) {
	amounts, err := asAmounts(values, 6)
	if err != nil {
		return model.WithdrawEventData{}, fmt.Errorf("withdraw: %w", err)
	}
	return model.WithdrawEventData{
		Owner:       owner.String(),
		Shares:      amounts[0],
		AmountX:     amounts[1],
		AmountY:     amounts[2],
		ReserveX:    amounts[3],
		ReserveY:    amounts[4],
		TotalShares: amounts[5],
	}, nil
}

func decodeSwap(owner solana.PublicKey, values []interface{}) (model.SwapEventData, error) {
	if len(values) != 6 {
		return model.SwapEventData{}, fmt.Errorf("unexpected swap values: %d", len(values))
	}
	xToY, ok := values[0].(bool)
	if !ok {
		return model.SwapEventData{}, fmt.Errorf("unsupported direction type %T", values[0])
	}
	amounts, err := asAmounts(values[1:], 5)
	if err != nil {
		return model.SwapEventData{}, fmt.Errorf("swap: %w", err)
	}
	return model.SwapEventData{
		Owner:       owner.String(),
		XToY:        xToY,
		AmountIn:    amounts[0],
		AmountInNet: amounts[1],
		AmountOut:   amounts[2],
		ReserveX:    amounts[3],
		ReserveY:    amounts[4],
	}, nil
}

func decodeLock(authority solana.PublicKey, values []interface{}) (model.LockEventData, error) {
	if len(values) != 1 {
		return model.LockEventData{}, fmt.Errorf("unexpected lock values: %d", len(values))
	}
	locked, ok := values[0].(bool)
	if !ok {
		return model.LockEventData{}, fmt.Errorf("unsupported lock type %T", values[0])
	}
	return model.LockEventData{Authority: authority.String(), Locked: locked}, nil
}

func parseIndexedKeys(event abi.Event, topics []string) ([]solana.PublicKey, error) {
	indexedCount := len(indexedArguments(event.Inputs))
	if len(topics) != indexedCount+1 {
		return nil, fmt.Errorf("expected %d topics, got %d", indexedCount+1, len(topics))
	}
	hashes, err := parseTopicHashes(topics[1:])
	if err != nil {
		return nil, err
	}
	keys := make([]solana.PublicKey, 0, len(hashes))
	for _, h := range hashes {
		keys = append(keys, solana.PublicKeyFromBytes(h.Bytes()))
	}
	return keys, nil
}

func parseTopicHashes(topics []string) ([]common.Hash, error) {
	out := make([]common.Hash, 0, len(topics))
	for _, topic := range topics {
		data, err := hexutil.Decode(topic)
		if err != nil {
			return nil, fmt.Errorf("invalid topic: %w", err)
		}
		if len(data) > 32 {
			return nil, fmt.Errorf("topic length %d", len(data))
		}
		out = append(out, common.BytesToHash(data))
	}
	return out, nil
}

func indexedArguments(args abi.Arguments) abi.Arguments {
	indexed := make(abi.Arguments, 0, len(args))
	for _, arg := range args {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return indexed
}

func unpackNonIndexed(event abi.Event, dataHex string) ([]interface{}, error) {
	data, err := hexutil.Decode(dataHex)
	if err != nil {
		return nil, fmt.Errorf("invalid data: %w", err)
	}
	values, err := event.Inputs.NonIndexed().Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", event.Name, err)
	}
	return values, nil
}

func asKey(value interface{}) (solana.PublicKey, error) {
	switch v := value.(type) {
	case [32]byte:
		return solana.PublicKeyFromBytes(v[:]), nil
	case []byte:
		if len(v) != 32 {
			return solana.PublicKey{}, fmt.Errorf("key length %d", len(v))
		}
		return solana.PublicKeyFromBytes(v), nil
	default:
		return solana.PublicKey{}, fmt.Errorf("unsupported key type %T", value)
	}
}

func asUint64(value interface{}) (uint64, error) {
	switch v := value.(type) {
	case uint64:
		return v, nil
	case uint32:
		return uint64(v), nil
	case uint16:
		return uint64(v), nil
	case uint8:
		return uint64(v), nil
	default:
		return 0, fmt.Errorf("unsupported uint type %T", value)
	}
}

func asAmounts(values []interface{}, want int) ([]string, error) {
	if len(values) != want {
		return nil, fmt.Errorf("expected %d values, got %d", want, len(values))
	}
	out := make([]string, 0, want)
	for _, value := range values {
		v, err := asUint64(value)
		if err != nil {
			return nil, err
		}
		out = append(out, strconv.FormatUint(v, 10))
	}
	return out, nil
}

// keyString renders the all-zero key as empty; it stands for "no authority".
func keyString(key solana.PublicKey) string {
	if key.IsZero() {
		return ""
	}
	return key.String()
}
