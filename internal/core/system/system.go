package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput      Phase = iota // 0: sample viewports
	PhasePreUpdate               // 1: dispatch last tick's events
	PhaseUpdate                  // 2: grow and shrink streaming windows
	PhasePostUpdate              // 3: statistics
	PhasePersist                 // 4: journal flush
)

func (p Phase) String() string {
	switch p {
	case PhaseInput:
		return "input"
	case PhasePreUpdate:
		return "pre-update"
	case PhaseUpdate:
		return "update"
	case PhasePostUpdate:
		return "post-update"
	case PhasePersist:
		return "persist"
	default:
		return "unknown"
	}
}

// System is one unit of per-tick work.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
