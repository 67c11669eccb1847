package gateway

import (
	"context"

	"github.com/debate-arena/syncer/src/claim"
	"github.com/debate-arena/syncer/src/tracker"
	"github.com/debate-arena/syncer/src/utils/model"
	"github.com/debate-arena/syncer/src/verify"

	"github.com/ethereum/go-ethereum/common"
)

// What the handlers need from the domain components, narrow enough to
// fake in tests

type Verifier interface {
	Verify(ctx context.Context, ledgerId string) (*verify.Result, error)
	VerifyDebate(ctx context.Context, debate *model.Debate) *verify.Result
}

type EligibilityGate interface {
	CheckEligibility(ctx context.Context, contractAddress, claimant string) (*claim.Eligibility, error)
}

type ConfirmationWaiter interface {
	AwaitConfirmation(ctx context.Context, hash common.Hash) (*tracker.Result, error)
}
