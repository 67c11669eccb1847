package gateway

import (
	"net/http"

	"github.com/debate-arena/syncer/src/sync"

	"github.com/gin-gonic/gin"
)

// One route per event type. A malformed payload is rejected with 400 and
// only logged - the listener does not retry, a dropped event is recovered
// by the next reconciler sweep.

func (self *Server) onSyncCreated(c *gin.Context) {
	var event sync.CreatedEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		self.badRequest(c, err.Error())
		return
	}
	if msg, ok := requireFields(&event.Event, event.Creator, "creator"); !ok {
		self.badRequest(c, msg)
		return
	}

	if err := self.applier.ApplyCreated(c.Request.Context(), &event); err != nil {
		self.storeFailure(c, err)
		return
	}
	self.accepted(c, event.DebateId)
}

func (self *Server) onSyncJoined(c *gin.Context) {
	var event sync.JoinedEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		self.badRequest(c, err.Error())
		return
	}
	if msg, ok := requireFields(&event.Event, event.Opponent, "opponent"); !ok {
		self.badRequest(c, msg)
		return
	}

	if err := self.applier.ApplyJoined(c.Request.Context(), &event); err != nil {
		self.storeFailure(c, err)
		return
	}
	self.accepted(c, event.DebateId)
}

func (self *Server) onSyncFinalized(c *gin.Context) {
	var event sync.FinalizedEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		self.badRequest(c, err.Error())
		return
	}
	if msg, ok := requireFields(&event.Event, event.Winner, "winner"); !ok {
		self.badRequest(c, msg)
		return
	}

	if err := self.applier.ApplyFinalized(c.Request.Context(), &event); err != nil {
		self.storeFailure(c, err)
		return
	}
	self.accepted(c, event.DebateId)
}

func (self *Server) onSyncClaimed(c *gin.Context) {
	var event sync.ClaimedEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		self.badRequest(c, err.Error())
		return
	}
	if msg, ok := requireFields(&event.Event, event.Winner, "winner"); !ok {
		self.badRequest(c, msg)
		return
	}

	if err := self.applier.ApplyClaimed(c.Request.Context(), &event); err != nil {
		self.storeFailure(c, err)
		return
	}
	self.accepted(c, event.DebateId)
}

func requireFields(event *sync.Event, party, partyName string) (msg string, ok bool) {
	switch {
	case event.DebateId == "":
		return "debateId is required", false
	case party == "":
		return partyName + " is required", false
	case event.TransactionHash == "":
		return "transactionHash is required", false
	case event.BlockNumber == 0:
		return "blockNumber is required", false
	}
	return "", true
}

func (self *Server) accepted(c *gin.Context, ledgerId string) {
	if self.monitor != nil {
		self.monitor.GetReport().Gateway.State.IngestAccepted.Inc()
	}
	c.JSON(http.StatusOK, gin.H{"id": ledgerId})
}

func (self *Server) badRequest(c *gin.Context, msg string) {
	self.Log.WithField("error", msg).WithField("path", c.FullPath()).Debug("Bad request")
	if self.monitor != nil {
		self.monitor.GetReport().Gateway.Errors.BadRequests.Inc()
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

func (self *Server) storeFailure(c *gin.Context, err error) {
	self.Log.WithError(err).WithField("path", c.FullPath()).Error("Persistence failure")
	if self.monitor != nil {
		self.monitor.GetReport().Gateway.Errors.DbErrors.Inc()
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
