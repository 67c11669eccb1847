package tracker

// Position of a confirmation session. Higher level flows compose
// sign -> await confirmation -> apply to cache, and must not move to the
// apply step before Success.
type State int

const (
	Idle State = iota
	Preparing
	Signing
	Confirming
	Syncing
	Success
	Error
)

func (state State) String() string {
	switch state {
	case Idle:
		return "idle"
	case Preparing:
		return "preparing"
	case Signing:
		return "signing"
	case Confirming:
		return "confirming"
	case Syncing:
		return "syncing"
	case Success:
		return "success"
	case Error:
		return "error"
	}
	return "unknown"
}
