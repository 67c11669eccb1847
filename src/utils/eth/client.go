package eth

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/debate-arena/syncer/src/utils/config"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"
)

// Reported for every failed ledger interaction. A failure is never a
// clean read.
var ErrLedgerRead = errors.New("ledger read failed")

// On-chain state of one debate escrow contract
type DebateState struct {
	Creator      common.Address
	Opponent     common.Address
	Stake        *big.Int
	Winner       common.Address
	StatusCode   uint8
	PrizeClaimed bool
	PrizeAmount  *big.Int
}

func (self *DebateState) IsFinalized() bool {
	return self.StatusCode >= StatusCodeFinalized
}

// StateReader is the read-only capability to fetch a debate's on-chain
// struct. Safe for concurrent use.
type StateReader interface {
	ReadDebateState(ctx context.Context, contractAddress string) (*DebateState, error)
}

// ReceiptSource is what the confirmation tracker needs from the ledger
type ReceiptSource interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}

// LogSource is what the event listener needs from the ledger
type LogSource interface {
	SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error)
}

// Client wraps an RPC connection with the debate ABI
type Client struct {
	*ethclient.Client

	chainConfig config.Chain
}

func NewClient(log *logrus.Entry, chainConfig *config.Chain) (self *Client, err error) {
	client, err := ethclient.Dial(chainConfig.RpcUrl)
	if err != nil {
		log.WithError(err).Error("Cannot connect to the RPC provider")
		return
	}

	self = &Client{
		Client:      client,
		chainConfig: *chainConfig,
	}
	return
}

// NewSubscriberClient dials the websocket endpoint used for log
// subscriptions
func NewSubscriberClient(log *logrus.Entry, chainConfig *config.Chain) (client *ethclient.Client, err error) {
	client, err = ethclient.Dial(chainConfig.WsUrl)
	if err != nil {
		log.WithError(err).Error("Cannot connect to the websocket provider")
		return
	}
	return
}

func (self *Client) ReadDebateState(ctx context.Context, contractAddress string) (state *DebateState, err error) {
	if !common.IsHexAddress(contractAddress) {
		return nil, fmt.Errorf("%w: invalid contract address %s", ErrLedgerRead, contractAddress)
	}

	callCtx, cancel := context.WithTimeout(ctx, self.chainConfig.CallTimeout)
	defer cancel()

	contractAbi := DebateABI()
	data, err := contractAbi.Pack("getDebate")
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrLedgerRead, err)
	}

	addr := common.HexToAddress(contractAddress)
	output, err := self.CallContract(callCtx, ethereum.CallMsg{
		To:   &addr,
		Data: data,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrLedgerRead, err)
	}
	if len(output) == 0 {
		// eth_call on a non-deployed address returns no data
		return nil, fmt.Errorf("%w: no contract deployed at %s", ErrLedgerRead, contractAddress)
	}

	values, err := contractAbi.Unpack("getDebate", output)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrLedgerRead, err)
	}
	if len(values) != 7 {
		return nil, fmt.Errorf("%w: unexpected getDebate output arity %d", ErrLedgerRead, len(values))
	}

	state = &DebateState{
		Creator:      values[0].(common.Address),
		Opponent:     values[1].(common.Address),
		Stake:        values[2].(*big.Int),
		Winner:       values[3].(common.Address),
		StatusCode:   values[4].(uint8),
		PrizeClaimed: values[5].(bool),
		PrizeAmount:  values[6].(*big.Int),
	}
	return
}
