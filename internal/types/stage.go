package types

// Stage is the pipeline state machine position of a run. Values are stable
// and persisted; do not renumber.
type Stage int

const (
	StageSampling Stage = iota + 1
	StageAnalyzing
	StageScripting
	StageSynthesizing
	StageComposing
	StageSucceeded
	StageFailed
	StageCancelled
)

func (s Stage) String() string {
	switch s {
	case StageSampling:
		return "sampling"
	case StageAnalyzing:
		return "analyzing"
	case StageScripting:
		return "scripting"
	case StageSynthesizing:
		return "synthesizing"
	case StageComposing:
		return "composing"
	case StageSucceeded:
		return "succeeded"
	case StageFailed:
		return "failed"
	case StageCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions are legal from s.
func (s Stage) Terminal() bool {
	return s == StageSucceeded || s == StageFailed || s == StageCancelled
}

// legalTransitions is the fixed transition table. Success moves strictly
// forward; Failed and Cancelled are reachable from any working stage.
var legalTransitions = map[Stage][]Stage{
	StageSampling:     {StageAnalyzing, StageFailed, StageCancelled},
	StageAnalyzing:    {StageScripting, StageFailed, StageCancelled},
	StageScripting:    {StageSynthesizing, StageFailed, StageCancelled},
	StageSynthesizing: {StageComposing, StageFailed, StageCancelled},
	StageComposing:    {StageSucceeded, StageFailed, StageCancelled},
}

// CanTransition reports whether from → to is in the legal transition table.
func CanTransition(from, to Stage) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Progress maps a stage to a coarse completion percentage for callers.
func (s Stage) Progress() int {
	switch s {
	case StageSampling:
		return 10
	case StageAnalyzing:
		return 30
	case StageScripting:
		return 50
	case StageSynthesizing:
		return 70
	case StageComposing:
		return 90
	case StageSucceeded:
		return 100
	default:
		return 0
	}
}
