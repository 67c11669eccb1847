package eth

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Ledger status codes of a debate escrow contract
const (
	StatusCodeCreated   uint8 = 0
	StatusCodeActive    uint8 = 1
	StatusCodeVoting    uint8 = 2
	StatusCodeFinalized uint8 = 3
)

// Event names emitted by the debate factory contract
const (
	EventDebateCreated   = "DebateCreated"
	EventDebateJoined    = "DebateJoined"
	EventDebateFinalized = "DebateFinalized"
	EventPrizeClaimed    = "PrizeClaimed"
)

// ABI of the debate factory and the per-debate escrow it deploys.
// getDebate lives on the escrow, the events on the factory.
const debateABIJson = `[
  {
    "name": "getDebate",
    "type": "function",
    "stateMutability": "view",
    "inputs": [],
    "outputs": [
      {"name": "creator", "type": "address"},
      {"name": "opponent", "type": "address"},
      {"name": "stake", "type": "uint256"},
      {"name": "winner", "type": "address"},
      {"name": "status", "type": "uint8"},
      {"name": "prizeClaimed", "type": "bool"},
      {"name": "prizeAmount", "type": "uint256"}
    ]
  },
  {
    "name": "DebateCreated",
    "type": "event",
    "inputs": [
      {"name": "debateId", "type": "uint256", "indexed": true},
      {"name": "creator", "type": "address", "indexed": true},
      {"name": "debateContract", "type": "address", "indexed": false},
      {"name": "stake", "type": "uint256", "indexed": false}
    ]
  },
  {
    "name": "DebateJoined",
    "type": "event",
    "inputs": [
      {"name": "debateId", "type": "uint256", "indexed": true},
      {"name": "opponent", "type": "address", "indexed": true},
      {"name": "stake", "type": "uint256", "indexed": false}
    ]
  },
  {
    "name": "DebateFinalized",
    "type": "event",
    "inputs": [
      {"name": "debateId", "type": "uint256", "indexed": true},
      {"name": "winner", "type": "address", "indexed": false}
    ]
  },
  {
    "name": "PrizeClaimed",
    "type": "event",
    "inputs": [
      {"name": "debateId", "type": "uint256", "indexed": true},
      {"name": "winner", "type": "address", "indexed": false},
      {"name": "amount", "type": "uint256", "indexed": false}
    ]
  }
]`

var (
	debateABI     abi.ABI
	debateABIOnce sync.Once
)

func DebateABI() *abi.ABI {
	debateABIOnce.Do(func() {
		parsed, err := abi.JSON(strings.NewReader(debateABIJson))
		if err != nil {
			// The ABI is a compile-time constant
			panic(err)
		}
		debateABI = parsed
	})
	return &debateABI
}
