package gateway

import (
	"context"
	"net/http"

	"github.com/debate-arena/syncer/src/claim"
	"github.com/debate-arena/syncer/src/sync"
	"github.com/debate-arena/syncer/src/tracker"
	"github.com/debate-arena/syncer/src/utils/config"
	"github.com/debate-arena/syncer/src/utils/model"
	"github.com/debate-arena/syncer/src/utils/monitoring"
	"github.com/debate-arena/syncer/src/utils/task"
	"github.com/debate-arena/syncer/src/verify"

	"github.com/gin-gonic/gin"
	"github.com/rs/xid"
)

// Rest API server. Sync ingestion is consumed by the event listener and
// by the user-driven creation/join flows, the debate routes by the
// application.
type Server struct {
	*task.Task

	httpServer *http.Server
	Router     *gin.Engine

	store    model.DebateStore
	applier  *sync.Applier
	verifier Verifier
	gate     EligibilityGate
	tracker  ConfirmationWaiter
	monitor  *monitoring.Monitor
}

func NewServer(config *config.Config) (self *Server) {
	self = new(Server)

	self.Task = task.NewTask(config, "gateway").
		WithSubtaskFunc(self.run).
		WithOnStop(self.stop)

	if !config.IsDevelopment {
		gin.SetMode(gin.ReleaseMode)
	}
	self.Router = gin.New()
	self.Router.Use(requestId(), gin.Recovery())

	self.httpServer = &http.Server{
		Addr:              config.Gateway.ListenAddress,
		Handler:           self.Router,
		ReadHeaderTimeout: config.Gateway.ServerRequestTimeout,
	}

	return
}

func (self *Server) WithStore(store model.DebateStore) *Server {
	self.store = store
	return self
}

func (self *Server) WithApplier(applier *sync.Applier) *Server {
	self.applier = applier
	return self
}

func (self *Server) WithVerifier(verifier Verifier) *Server {
	self.verifier = verifier
	return self
}

func (self *Server) WithGate(gate EligibilityGate) *Server {
	self.gate = gate
	return self
}

func (self *Server) WithTracker(tracker ConfirmationWaiter) *Server {
	self.tracker = tracker
	return self
}

func (self *Server) WithMonitor(monitor *monitoring.Monitor) *Server {
	self.monitor = monitor
	return self
}

var (
	_ ConfirmationWaiter = (*tracker.Tracker)(nil)
	_ EligibilityGate    = (*claim.Gate)(nil)
	_ Verifier           = (*verify.Verifier)(nil)
)

func (self *Server) run() (err error) {
	self.RegisterRoutes()

	err = self.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		self.Log.WithError(err).Error("Failed to start gateway server")
		return
	}
	return nil
}

// RegisterRoutes is split out so handler tests can run the router without
// binding a socket
func (self *Server) RegisterRoutes() {
	v1 := self.Router.Group("v1")
	{
		v1.POST("sync/created", self.onSyncCreated)
		v1.POST("sync/joined", self.onSyncJoined)
		v1.POST("sync/finalized", self.onSyncFinalized)
		v1.POST("sync/claimed", self.onSyncClaimed)

		v1.POST("debates/:id/finalize", self.onFinalize)
		v1.POST("debates/:id/claim", self.onClaim)
		v1.GET("debates/:id/verification", self.onVerification)
	}
}

func (self *Server) stop() {
	ctx, cancel := context.WithTimeout(context.Background(), self.Config.StopTimeout)
	defer cancel()

	err := self.httpServer.Shutdown(ctx)
	if err != nil {
		self.Log.WithError(err).Error("Failed to gracefully shutdown gateway server")
		return
	}
}

func requestId() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-Id")
		if id == "" {
			id = xid.New().String()
		}
		c.Set("request_id", id)
		c.Header("X-Request-Id", id)
		c.Next()
	}
}
