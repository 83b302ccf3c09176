package journal

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"ammPool/internal/amm"
	"ammPool/internal/model"
)

var (
	testProgram = solana.MustPublicKeyFromBase58("Fg6PaFpoGXkYsidMpWTK6W2BeZ7FEfcYkg476zPFsLnS")
	testMintX   = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
	testMintY   = solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	testOwner   = solana.MustPublicKeyFromBase58("9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM")
)

func newTestEncoder(t *testing.T) *Encoder {
	t.Helper()
	enc, err := NewEncoder()
	if err != nil {
		t.Fatalf("encoder: %v", err)
	}
	enc.now = func() time.Time { return time.Unix(1700000000, 0) }
	return enc
}

func newTestPool(t *testing.T, authority *solana.PublicKey) *amm.Pool {
	t.Helper()
	pool, err := amm.Initialize(amm.InitParams{
		ProgramID: testProgram,
		Seed:      1111,
		MintX:     testMintX,
		MintY:     testMintY,
		FeeBps:    200,
		Authority: authority,
	})
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return pool
}

func TestEncodeDecodeLifecycle(t *testing.T) {
	enc := newTestEncoder(t)
	dec, err := NewDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}
	ctx := DecodeContext{PoolMetaCache: NewPoolMetaCache(), Logger: zap.NewNop()}

	authority := testOwner
	pool := newTestPool(t, &authority)
	addr := pool.Config.Addresses.Config

	initRec, err := enc.Initialize(pool.Config)
	if err != nil {
		t.Fatalf("encode initialize: %v", err)
	}
	if initRec.Pool != addr.String() || initRec.Timestamp != 1700000000 {
		t.Fatalf("initialize record: %+v", initRec)
	}
	if !dec.CanDecode(initRec.Topics[0]) || !dec.CanDecode("0x"+strings.ToUpper(initRec.Topics[0][2:])) {
		t.Fatalf("decoder should accept its own topic0 in any case")
	}
	if dec.CanDecode("") {
		t.Fatalf("empty topic0 should not decode")
	}

	event, err := dec.Decode(initRec, ctx)
	if err != nil {
		t.Fatalf("decode initialize: %v", err)
	}
	init, ok := event.Decoded.(model.InitializeEventData)
	if !ok {
		t.Fatalf("initialize type mismatch: %T", event.Decoded)
	}
	if init.Authority != testOwner.String() || init.Seed != 1111 || init.FeeBps != 200 {
		t.Fatalf("initialize payload: %+v", init)
	}
	if init.MintX != testMintX.String() || init.VaultY != pool.Config.Addresses.VaultY.String() {
		t.Fatalf("initialize keys: %+v", init)
	}

	dep, err := pool.Deposit(8000, 10000, 50000)
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	depRec, err := enc.Deposit(addr, testOwner, dep, pool.State)
	if err != nil {
		t.Fatalf("encode deposit: %v", err)
	}
	event, err = dec.Decode(depRec, ctx)
	if err != nil {
		t.Fatalf("decode deposit: %v", err)
	}
	deposit, ok := event.Decoded.(model.DepositEventData)
	if !ok {
		t.Fatalf("deposit type mismatch: %T", event.Decoded)
	}
	if deposit.Shares != "8000" || deposit.AmountX != "10000" || deposit.AmountY != "50000" || deposit.TotalShares != "8000" {
		t.Fatalf("deposit payload: %+v", deposit)
	}
	if event.PoolMeta.FeeBps != 200 || event.PoolMeta.MintY != testMintY.String() {
		t.Fatalf("pool meta not carried from initialize: %+v", event.PoolMeta)
	}

	swap, err := pool.Swap(true, 1000, 4422)
	if err != nil {
		t.Fatalf("swap: %v", err)
	}
	swapRec, err := enc.Swap(addr, testOwner, swap, pool.State)
	if err != nil {
		t.Fatalf("encode swap: %v", err)
	}
	event, err = dec.Decode(swapRec, ctx)
	if err != nil {
		t.Fatalf("decode swap: %v", err)
	}
	s, ok := event.Decoded.(model.SwapEventData)
	if !ok {
		t.Fatalf("swap type mismatch: %T", event.Decoded)
	}
	if !s.XToY || s.AmountIn != "1000" || s.AmountInNet != "980" || s.AmountOut != "4462" || s.ReserveY != "45538" {
		t.Fatalf("swap payload: %+v", s)
	}
	if s.Owner != testOwner.String() {
		t.Fatalf("swap owner mismatch: %s", s.Owner)
	}

	wd, err := pool.Withdraw(5000, 0, 0, 8000)
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	wdRec, err := enc.Withdraw(addr, testOwner, wd, pool.State)
	if err != nil {
		t.Fatalf("encode withdraw: %v", err)
	}
	event, err = dec.Decode(wdRec, ctx)
	if err != nil {
		t.Fatalf("decode withdraw: %v", err)
	}
	w, ok := event.Decoded.(model.WithdrawEventData)
	if !ok {
		t.Fatalf("withdraw type mismatch: %T", event.Decoded)
	}
	if w.AmountX != "6875" || w.AmountY != "28461" || w.TotalShares != "3000" {
		t.Fatalf("withdraw payload: %+v", w)
	}

	lockRec, err := enc.Lock(addr, testOwner, true)
	if err != nil {
		t.Fatalf("encode lock: %v", err)
	}
	event, err = dec.Decode(lockRec, ctx)
	if err != nil {
		t.Fatalf("decode lock: %v", err)
	}
	lock, ok := event.Decoded.(model.LockEventData)
	if !ok || !lock.Locked || lock.Authority != testOwner.String() {
		t.Fatalf("lock payload: %+v", event.Decoded)
	}
}

func TestDecodeWithoutAuthority(t *testing.T) {
	enc := newTestEncoder(t)
	dec, err := NewDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	pool := newTestPool(t, nil)
	rec, err := enc.Initialize(pool.Config)
	if err != nil {
		t.Fatalf("encode initialize: %v", err)
	}
	event, err := dec.Decode(rec, DecodeContext{})
	if err != nil {
		t.Fatalf("decode initialize: %v", err)
	}
	if got := event.Decoded.(model.InitializeEventData).Authority; got != "" {
		t.Fatalf("expected empty authority, got %q", got)
	}
}

func TestDecodeUsesLookup(t *testing.T) {
	enc := newTestEncoder(t)
	dec, err := NewDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}
	pool := newTestPool(t, nil)
	addr := pool.Config.Addresses.Config

	rec, err := enc.Lock(addr, testOwner, false)
	if err != nil {
		t.Fatalf("encode lock: %v", err)
	}

	if _, err := dec.Decode(rec, DecodeContext{PoolMetaCache: NewPoolMetaCache()}); err == nil {
		t.Fatalf("expected missing metadata error")
	}

	calls := 0
	cache := NewPoolMetaCache()
	ctx := DecodeContext{
		PoolMetaCache: cache,
		Lookup: func(_ context.Context, p string) (model.PoolMeta, error) {
			calls++
			if p != addr.String() {
				return model.PoolMeta{}, errors.New("unknown pool")
			}
			return model.PoolMeta{FeeBps: 30}, nil
		},
	}
	for i := 0; i < 2; i++ {
		event, err := dec.Decode(rec, ctx)
		if err != nil {
			t.Fatalf("decode lock: %v", err)
		}
		if event.PoolMeta.FeeBps != 30 {
			t.Fatalf("lookup meta not applied: %+v", event.PoolMeta)
		}
	}
	if calls != 1 {
		t.Fatalf("lookup should be cached, called %d times", calls)
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	enc := newTestEncoder(t)
	dec, err := NewDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}
	pool := newTestPool(t, nil)
	rec, err := enc.Initialize(pool.Config)
	if err != nil {
		t.Fatalf("encode initialize: %v", err)
	}

	short := rec
	short.Topics = rec.Topics[:2]
	if _, err := dec.Decode(short, DecodeContext{}); err == nil {
		t.Fatalf("expected topic count error")
	}

	wrongPool := rec
	wrongPool.Pool = testOwner.String()
	if _, err := dec.Decode(wrongPool, DecodeContext{}); err == nil {
		t.Fatalf("expected pool mismatch error")
	}

	badData := rec
	badData.Data = "0x1234"
	if _, err := dec.Decode(badData, DecodeContext{}); err == nil {
		t.Fatalf("expected unpack error")
	}

	unknown := rec
	unknown.Topics = append([]string{"0x" + strings.Repeat("ab", 32)}, rec.Topics[1:]...)
	if dec.CanDecode(unknown.Topics[0]) {
		t.Fatalf("unknown topic0 should not decode")
	}
}

func TestWriterStampsAndResumesSequence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal", "events.jsonl")
	enc := newTestEncoder(t)
	pool := newTestPool(t, nil)
	addr := pool.Config.Addresses.Config

	w, err := NewWriter(path)
	if err != nil {
		t.Fatalf("writer: %v", err)
	}
	a, _ := enc.Lock(addr, testOwner, true)
	b, _ := enc.Lock(addr, testOwner, false)
	if err := w.Append(a, b); err != nil {
		t.Fatalf("append: %v", err)
	}
	if w.Sequence() != 2 {
		t.Fatalf("sequence after two appends: %d", w.Sequence())
	}

	reopened, err := NewWriter(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if err := reopened.Append(a); err != nil {
		t.Fatalf("append after reopen: %v", err)
	}

	var seqs []uint64
	err = ReadFile(context.Background(), path, func(record model.LogRecord, parseErr error) error {
		if parseErr != nil {
			return parseErr
		}
		seqs = append(seqs, record.Sequence)
		return nil
	})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(seqs) != 3 || seqs[0] != 1 || seqs[1] != 2 || seqs[2] != 3 {
		t.Fatalf("sequences: %v", seqs)
	}
}

func TestWritersShareJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	enc := newTestEncoder(t)
	pool := newTestPool(t, nil)
	record, _ := enc.Lock(pool.Config.Addresses.Config, testOwner, true)

	first, err := NewWriter(path)
	if err != nil {
		t.Fatalf("writer: %v", err)
	}
	second, err := NewWriter(path)
	if err != nil {
		t.Fatalf("writer: %v", err)
	}
	if err := first.Append(record); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := second.Append(record); err != nil {
		t.Fatalf("append: %v", err)
	}
	if first.Sequence() != 1 || second.Sequence() != 2 {
		t.Fatalf("sequences: first=%d second=%d", first.Sequence(), second.Sequence())
	}

	var wg sync.WaitGroup
	for _, w := range []*Writer{first, second} {
		wg.Add(1)
		go func(w *Writer) {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				if err := w.Append(record, record); err != nil {
					t.Errorf("append: %v", err)
					return
				}
			}
		}(w)
	}
	wg.Wait()

	var seqs []uint64
	err = ReadFile(context.Background(), path, func(record model.LogRecord, parseErr error) error {
		if parseErr != nil {
			return parseErr
		}
		seqs = append(seqs, record.Sequence)
		return nil
	})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(seqs) != 42 {
		t.Fatalf("records: %d", len(seqs))
	}
	for i, seq := range seqs {
		if seq != uint64(i+1) {
			t.Fatalf("record %d has sequence %d", i, seq)
		}
	}
}

func TestReadRecordsReportsBadLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	content := "{\"sequence\":1,\"pool\":\"p\"}\n\nnot json\n{\"sequence\":2,\"pool\":\"p\"}\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	var good, bad int
	err := ReadFile(context.Background(), path, func(record model.LogRecord, parseErr error) error {
		if parseErr != nil {
			bad++
			return nil
		}
		good++
		return nil
	})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if good != 2 || bad != 1 {
		t.Fatalf("good=%d bad=%d", good, bad)
	}

	if _, err := LastSequence(path); err == nil {
		t.Fatalf("LastSequence should reject a corrupt journal")
	}
	last, err := LastSequence(filepath.Join(t.TempDir(), "missing.jsonl"))
	if err != nil || last != 0 {
		t.Fatalf("missing journal: %d, %v", last, err)
	}
}

func TestMemorySink(t *testing.T) {
	sink := NewMemorySink()
	if err := sink.Append(model.LogRecord{Pool: "a"}, model.LogRecord{Pool: "b"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	records := sink.Records()
	if len(records) != 2 || records[0].Sequence != 1 || records[1].Sequence != 2 {
		t.Fatalf("records: %+v", records)
	}
}
