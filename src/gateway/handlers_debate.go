package gateway

import (
	"errors"
	"net/http"
	"time"

	"github.com/debate-arena/syncer/src/utils/model"
	"github.com/debate-arena/syncer/src/verify"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

// Ledger view included in the finalize response
type blockchainView struct {
	Winner       string `json:"winner"`
	Status       string `json:"status"`
	PrizeClaimed bool   `json:"prizeClaimed"`
}

type verificationView struct {
	Verified      bool                `json:"verified"`
	Reason        string              `json:"reason,omitempty"`
	Discrepancies []model.Discrepancy `json:"discrepancies,omitempty"`
}

func verificationOf(result *verify.Result) verificationView {
	return verificationView{
		Verified:      result.Verified,
		Reason:        result.Reason,
		Discrepancies: result.Discrepancies,
	}
}

// onFinalize copies the ledger-determined winner and terminal status into
// the cache's business fields. The ledger must already report the debate
// finalized, a cache-side finalize never runs ahead of the chain.
func (self *Server) onFinalize(c *gin.Context) {
	debate, err := self.store.GetDebate(c.Request.Context(), c.Param("id"))
	if errors.Is(err, model.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "debate not found"})
		return
	}
	if err != nil {
		self.storeFailure(c, err)
		return
	}
	if debate.ContractAddress == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "debate has no contract"})
		return
	}

	result := self.verifier.VerifyDebate(c.Request.Context(), debate)
	if result.Ledger == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": verify.ReasonLedgerReadFailed})
		return
	}
	// Only the ledger's finalized flag gates the write. Other
	// discrepancies don't block it: every value written below is
	// ledger-derived, so the write itself repairs them, and the
	// verification block in the response reports what diverged.
	if !result.Ledger.IsFinalized() {
		self.badRequest(c, "debate not yet finalized on-chain")
		return
	}

	winner := result.Ledger.Winner.Hex()
	now := time.Now().UTC()
	err = self.store.UpdateFields(c.Request.Context(), debate.LedgerId, map[string]interface{}{
		"winner_id":       winner,
		"status":          model.DebateStatusCompleted,
		"finalized_at":    now,
		"on_chain_winner": winner,
		"on_chain_status": string(model.DebateStatusCompleted),
		"sync_status":     model.SyncStatusConfirmed,
		"last_synced_at":  now,
	})
	if err != nil {
		self.storeFailure(c, err)
		return
	}

	if self.monitor != nil {
		self.monitor.GetReport().Gateway.State.Finalizations.Inc()
	}
	c.JSON(http.StatusOK, gin.H{
		"database": gin.H{
			"id":          debate.LedgerId,
			"status":      model.DebateStatusCompleted,
			"winnerId":    winner,
			"finalizedAt": now,
		},
		"blockchain": blockchainView{
			Winner:       winner,
			Status:       string(verify.StatusForCode(result.Ledger.StatusCode)),
			PrizeClaimed: result.Ledger.PrizeClaimed,
		},
		"verification": verificationOf(result),
	})
}

type claimRequest struct {
	TransactionHash string `json:"transactionHash"`
	Claimant        string `json:"claimant"`
}

// onClaim records an executed claim transaction. The gate re-derives
// eligibility from the ledger, the supplied transaction is confirmed
// before anything is written, and the cache update is display only - the
// escrow contract remains the enforcement boundary against double claims.
func (self *Server) onClaim(c *gin.Context) {
	var request claimRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		self.badRequest(c, err.Error())
		return
	}
	if request.TransactionHash == "" {
		self.badRequest(c, "transactionHash is required")
		return
	}
	if request.Claimant == "" {
		self.badRequest(c, "claimant is required")
		return
	}

	debate, err := self.store.GetDebate(c.Request.Context(), c.Param("id"))
	if errors.Is(err, model.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "debate not found"})
		return
	}
	if err != nil {
		self.storeFailure(c, err)
		return
	}
	if debate.ContractAddress == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "debate has no contract"})
		return
	}

	eligibility, err := self.gate.CheckEligibility(c.Request.Context(), debate.ContractAddress, request.Claimant)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": verify.ReasonLedgerReadFailed})
		return
	}
	if !eligibility.Eligible {
		status := http.StatusBadRequest
		if eligibility.AlreadyClaimed {
			status = http.StatusConflict
		}
		if self.monitor != nil {
			self.monitor.GetReport().Gateway.Errors.BadRequests.Inc()
		}
		c.JSON(status, eligibility)
		return
	}

	result, err := self.tracker.AwaitConfirmation(c.Request.Context(), common.HexToHash(request.TransactionHash))
	if err != nil {
		reason := err.Error()
		if result != nil && result.Reason != "" {
			reason = result.Reason
		}
		self.badRequest(c, reason)
		return
	}

	now := time.Now().UTC()
	err = self.store.UpdateFields(c.Request.Context(), debate.LedgerId, map[string]interface{}{
		"prize_claimed":       now,
		"prize_claim_tx_hash": request.TransactionHash,
		"prize_claim_amount":  eligibility.PrizeAmount,
		"sync_status":         model.SyncStatusConfirmed,
		"last_synced_at":      now,
		"last_synced_block":   result.BlockNumber,
	})
	if err != nil {
		self.storeFailure(c, err)
		return
	}

	if self.monitor != nil {
		self.monitor.GetReport().Gateway.State.ClaimsRecorded.Inc()
	}
	c.JSON(http.StatusOK, gin.H{
		"id":          debate.LedgerId,
		"prizeAmount": eligibility.PrizeAmount,
		"blockNumber": result.BlockNumber,
	})
}

func (self *Server) onVerification(c *gin.Context) {
	result, err := self.verifier.Verify(c.Request.Context(), c.Param("id"))
	if errors.Is(err, model.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "debate not found"})
		return
	}
	if err != nil {
		self.storeFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, verificationOf(result))
}
