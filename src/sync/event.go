package sync

import "time"

// Ledger coordinates shared by every forwarded event
type Event struct {
	DebateId        string    `json:"debateId"`
	ContractAddress string    `json:"contractAddress"`
	TransactionHash string    `json:"transactionHash"`
	BlockNumber     uint64    `json:"blockNumber"`
	ChainId         int64     `json:"chainId"`
	Timestamp       time.Time `json:"timestamp"`
}

type CreatedEvent struct {
	Event
	Creator string `json:"creator"`
	Stake   string `json:"stake"`
}

type JoinedEvent struct {
	Event
	Opponent string `json:"opponent"`
	Stake    string `json:"stake"`
}

type FinalizedEvent struct {
	Event
	Winner string `json:"winner"`
}

type ClaimedEvent struct {
	Event
	Winner string `json:"winner"`
	Amount string `json:"amount"`
}
