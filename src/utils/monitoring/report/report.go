package report

type Report struct {
	Run        *RunReport        `json:"run,omitempty"`
	Tracker    *TrackerReport    `json:"tracker,omitempty"`
	Listener   *ListenerReport   `json:"listener,omitempty"`
	Syncer     *SyncerReport     `json:"syncer,omitempty"`
	Reconciler *ReconcilerReport `json:"reconciler,omitempty"`
	Gateway    *GatewayReport    `json:"gateway,omitempty"`
}
