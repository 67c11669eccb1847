package listen

import (
	"context"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	stdsync "sync"
	"testing"
	"time"

	"github.com/debate-arena/syncer/src/sync"
	"github.com/debate-arena/syncer/src/utils/config"
	"github.com/debate-arena/syncer/src/utils/eth"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type fakeSubscription struct {
	errs chan error
}

func (self *fakeSubscription) Unsubscribe()      {}
func (self *fakeSubscription) Err() <-chan error { return self.errs }

type fakeLogSource struct {
	mtx      stdsync.Mutex
	channels map[common.Hash]chan<- types.Log
	count    int
}

func newFakeLogSource() *fakeLogSource {
	return &fakeLogSource{channels: make(map[common.Hash]chan<- types.Log)}
}

func (self *fakeLogSource) SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	self.channels[q.Topics[0][0]] = ch
	self.count++
	return &fakeSubscription{errs: make(chan error)}, nil
}

// emit waits for the subscription to be up before delivering the log
func (self *fakeLogSource) emit(eventName string, log types.Log) {
	topic := eth.DebateABI().Events[eventName].ID
	deadline := time.Now().Add(time.Second)
	for {
		self.mtx.Lock()
		ch := self.channels[topic]
		self.mtx.Unlock()
		if ch != nil {
			ch <- log
			return
		}
		if time.Now().After(deadline) {
			panic("subscription never established")
		}
		time.Sleep(time.Millisecond)
	}
}

func (self *fakeLogSource) subscriptionCount() int {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	return self.count
}

type recordedRequest struct {
	path string
	body []byte
}

type ingestRecorder struct {
	mtx      stdsync.Mutex
	requests []recordedRequest
	server   *httptest.Server
}

func newIngestRecorder() *ingestRecorder {
	self := new(ingestRecorder)
	self.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		self.mtx.Lock()
		self.requests = append(self.requests, recordedRequest{path: r.URL.Path, body: body})
		self.mtx.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	return self
}

func (self *ingestRecorder) get() []recordedRequest {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	out := make([]recordedRequest, len(self.requests))
	copy(out, self.requests)
	return out
}

func TestListenerSuite(t *testing.T) {
	suite.Run(t, new(ListenerTestSuite))
}

type ListenerTestSuite struct {
	suite.Suite

	config   *config.Config
	source   *fakeLogSource
	recorder *ingestRecorder
	listener *Listener
}

func (s *ListenerTestSuite) SetupTest() {
	s.recorder = newIngestRecorder()
	s.source = newFakeLogSource()

	s.config = config.Default()
	s.config.Chain.FactoryAddress = "0x00000000000000000000000000000000000000aa"
	s.config.Chain.Id = 31337
	s.config.Listener.IngestUrl = s.recorder.server.URL
	s.config.Listener.ResubscribeDelay = 10 * time.Millisecond

	s.listener = NewListener(s.config).WithLogSource(s.source)
}

func (s *ListenerTestSuite) TearDownTest() {
	s.listener.StopWait()
	s.recorder.server.Close()
}

func addressTopic(addr common.Address) common.Hash {
	return common.BytesToHash(common.LeftPadBytes(addr.Bytes(), 32))
}

func createdLog(s *suite.Suite, debateId int64, creator, contract common.Address, stake int64) types.Log {
	event := eth.DebateABI().Events[eth.EventDebateCreated]
	data, err := event.Inputs.NonIndexed().Pack(contract, big.NewInt(stake))
	s.Require().NoError(err)
	return types.Log{
		Topics:      []common.Hash{event.ID, common.BigToHash(big.NewInt(debateId)), addressTopic(creator)},
		Data:        data,
		BlockNumber: 42,
		TxHash:      common.HexToHash("0xbeef"),
	}
}

func (s *ListenerTestSuite) TestDecodesAndForwardsCreated() {
	s.Require().NoError(s.listener.Start())

	creator := common.HexToAddress("0x1111111111111111111111111111111111111111")
	contract := common.HexToAddress("0x2222222222222222222222222222222222222222")
	s.source.emit(eth.EventDebateCreated, createdLog(&s.Suite, 7, creator, contract, 5000000))

	require.Eventually(s.T(), func() bool {
		return len(s.recorder.get()) == 1
	}, time.Second, 5*time.Millisecond)

	request := s.recorder.get()[0]
	s.Equal("/v1/sync/created", request.path)

	var payload sync.CreatedEvent
	s.Require().NoError(json.Unmarshal(request.body, &payload))
	s.Equal("7", payload.DebateId)
	s.Equal(creator.Hex(), payload.Creator)
	s.Equal(contract.Hex(), payload.ContractAddress)
	s.Equal("5000000", payload.Stake)
	s.Equal(uint64(42), payload.BlockNumber)
	s.Equal(int64(31337), payload.ChainId)
}

func (s *ListenerTestSuite) TestDecodesFinalized() {
	s.Require().NoError(s.listener.Start())

	winner := common.HexToAddress("0x3333333333333333333333333333333333333333")
	event := eth.DebateABI().Events[eth.EventDebateFinalized]
	data, err := event.Inputs.NonIndexed().Pack(winner)
	s.Require().NoError(err)

	s.source.emit(eth.EventDebateFinalized, types.Log{
		Topics:      []common.Hash{event.ID, common.BigToHash(big.NewInt(9))},
		Data:        data,
		BlockNumber: 55,
		TxHash:      common.HexToHash("0xf00d"),
	})

	require.Eventually(s.T(), func() bool {
		return len(s.recorder.get()) == 1
	}, time.Second, 5*time.Millisecond)

	request := s.recorder.get()[0]
	s.Equal("/v1/sync/finalized", request.path)

	var payload sync.FinalizedEvent
	s.Require().NoError(json.Unmarshal(request.body, &payload))
	s.Equal("9", payload.DebateId)
	s.Equal(winner.Hex(), payload.Winner)
}

func (s *ListenerTestSuite) TestMalformedLogIsDropped() {
	s.Require().NoError(s.listener.Start())

	event := eth.DebateABI().Events[eth.EventDebateCreated]
	s.source.emit(eth.EventDebateCreated, types.Log{
		Topics: []common.Hash{event.ID, common.BigToHash(big.NewInt(1)), addressTopic(common.Address{})},
		Data:   []byte{0x01, 0x02},
	})

	// A good log right after still goes through
	creator := common.HexToAddress("0x1111111111111111111111111111111111111111")
	contract := common.HexToAddress("0x2222222222222222222222222222222222222222")
	s.source.emit(eth.EventDebateCreated, createdLog(&s.Suite, 2, creator, contract, 100))

	require.Eventually(s.T(), func() bool {
		return len(s.recorder.get()) == 1
	}, time.Second, 5*time.Millisecond)

	var payload sync.CreatedEvent
	s.Require().NoError(json.Unmarshal(s.recorder.get()[0].body, &payload))
	s.Equal("2", payload.DebateId)
}

func (s *ListenerTestSuite) TestStartIsIdempotent() {
	s.Require().NoError(s.listener.Start())

	require.Eventually(s.T(), func() bool {
		return s.source.subscriptionCount() == 4
	}, time.Second, 5*time.Millisecond)

	// Second start is a no-op, no extra subscriptions appear
	s.Require().NoError(s.listener.Start())
	time.Sleep(20 * time.Millisecond)
	s.Equal(4, s.source.subscriptionCount())
}

func (s *ListenerTestSuite) TestStopClosesProgress() {
	progress := make(chan uint64, 4)
	s.listener = NewListener(s.config).WithLogSource(s.source).WithProgressChannel(progress)
	s.Require().NoError(s.listener.Start())

	s.listener.StopWait()

	// The consumer drains the channel and sees it closed
	_, ok := <-progress
	s.False(ok)
}

func (s *ListenerTestSuite) TestEmitsProgress() {
	progress := make(chan uint64, 10)
	s.listener = NewListener(s.config).WithLogSource(s.source).WithProgressChannel(progress)
	s.Require().NoError(s.listener.Start())

	creator := common.HexToAddress("0x1111111111111111111111111111111111111111")
	contract := common.HexToAddress("0x2222222222222222222222222222222222222222")
	s.source.emit(eth.EventDebateCreated, createdLog(&s.Suite, 3, creator, contract, 100))

	select {
	case height := <-progress:
		s.Equal(uint64(42), height)
	case <-time.After(time.Second):
		s.FailNow("no progress emitted")
	}
}
