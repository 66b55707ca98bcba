package room

// Phase is the stage of a single room activation.
// Phases only move forward: Idle, Prepared, Monitoring, Secured.
type Phase int

// Activation phases.
const (
	PhaseIdle Phase = iota
	PhasePrepared
	PhaseMonitoring
	PhaseSecured
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhasePrepared:
		return "prepared"
	case PhaseMonitoring:
		return "monitoring"
	case PhaseSecured:
		return "secured"
	default:
		return "unknown"
	}
}

// CanAdvanceTo reports whether next directly follows p.
func (p Phase) CanAdvanceTo(next Phase) bool {
	return next == p+1 && next <= PhaseSecured
}

// Terminal reports whether no further transition is possible.
func (p Phase) Terminal() bool {
	return p == PhaseSecured
}
