// Package journal records pool events as an append-only JSONL log.
//
// Each event is stored the way a chain log is: topic0 is the event ID,
// indexed identities follow as topics, and the remaining fields are ABI
// encoded into data. Anything that reads chain logs can read the journal.
package journal

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const poolEventsABIJSON = `[
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "name": "pool", "type": "bytes32"},
      {"indexed": true, "name": "authority", "type": "bytes32"},
      {"indexed": false, "name": "mintX", "type": "bytes32"},
      {"indexed": false, "name": "mintY", "type": "bytes32"},
      {"indexed": false, "name": "seed", "type": "uint64"},
      {"indexed": false, "name": "feeBps", "type": "uint16"},
      {"indexed": false, "name": "lpMint", "type": "bytes32"},
      {"indexed": false, "name": "vaultX", "type": "bytes32"},
      {"indexed": false, "name": "vaultY", "type": "bytes32"}
    ],
    "name": "Initialize",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "name": "pool", "type": "bytes32"},
      {"indexed": true, "name": "owner", "type": "bytes32"},
      {"indexed": false, "name": "shares", "type": "uint64"},
      {"indexed": false, "name": "amountX", "type": "uint64"},
      {"indexed": false, "name": "amountY", "type": "uint64"},
      {"indexed": false, "name": "reserveX", "type": "uint64"},
      {"indexed": false, "name": "reserveY", "type": "uint64"},
      {"indexed": false, "name": "totalShares", "type": "uint64"}
    ],
    "name": "Deposit",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "name": "pool", "type": "bytes32"},
      {"indexed": true, "name": "owner", "type": "bytes32"},
      {"indexed": false, "name": "xToY", "type": "bool"},
      {"indexed": false, "name": "amountIn", "type": "uint64"},
      {"indexed": false, "name": "amountInNet", "type": "uint64"},
      {"indexed": false, "name": "amountOut", "type": "uint64"},
      {"indexed": false, "name": "reserveX", "type": "uint64"},
      {"indexed": false, "name": "reserveY", "type": "uint64"}
    ],
    "name": "Swap",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "name": "pool", "type": "bytes32"},
      {"indexed": true, "name": "owner", "type": "bytes32"},
      {"indexed": false, "name": "shares", "type": "uint64"},
      {"indexed": false, "name": "amountX", "type": "uint64"},
      {"indexed": false, "name": "amountY", "type": "uint64"},
      {"indexed": false, "name": "reserveX", "type": "uint64"},
      {"indexed": false, "name": "reserveY", "type": "uint64"},
      {"indexed": false, "name": "totalShares", "type": "uint64"}
    ],
    "name": "Withdraw",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "name": "pool", "type": "bytes32"},
      {"indexed": true, "name": "authority", "type": "bytes32"},
      {"indexed": false, "name": "locked", "type": "bool"}
    ],
    "name": "Lock",
    "type": "event"
  }
]`

var (
	poolEventsABI     abi.ABI
	poolEventsABIOnce sync.Once
	poolEventsABIErr  error
)

// PoolEventsABI returns the parsed pool events ABI.
func PoolEventsABI() (abi.ABI, error) {
	poolEventsABIOnce.Do(func() {
		poolEventsABI, poolEventsABIErr = abi.JSON(strings.NewReader(poolEventsABIJSON))
	})
	return poolEventsABI, poolEventsABIErr
}
