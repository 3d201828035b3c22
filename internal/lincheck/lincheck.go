// Package lincheck is a small-state linearizability checker in the style
// of Wing & Gong: given a recorded history of overlapping call/return
// intervals and a sequential model to replay them against, it searches
// for an order consistent with real-time constraints that reproduces
// every observed result. It is sized for the handful of goroutines and
// operations a property test can record, not for production auditing of
// large histories.
package lincheck

// Event is one call/return pair recorded during a concurrent execution.
// Start and End come from a single shared counter bumped once per call
// and once per return, so two events with non-overlapping [Start, End]
// ranges are known to be ordered in real time exactly as their ranges
// are.
type Event[Op, Result any] struct {
	Op     Op
	Result Result
	Start  int
	End    int
}

// Step applies op to model sequentially, returning the model's next
// state and the result that operation produces.
type Step[Model, Op, Result any] func(model Model, op Op) (next Model, result Result)

// Linearizable reports whether history admits some total order —
// consistent with the real-time constraints implied by each event's
// Start/End — under which replaying every event's Op against init via
// step reproduces that event's recorded Result.
func Linearizable[Model, Op, Result any](
	init Model,
	history []Event[Op, Result],
	step Step[Model, Op, Result],
	equal func(a, b Result) bool,
) bool {
	used := make([]bool, len(history))
	return search(init, history, used, step, equal)
}

func search[Model, Op, Result any](
	model Model,
	history []Event[Op, Result],
	used []bool,
	step Step[Model, Op, Result],
	equal func(a, b Result) bool,
) bool {
	remaining := false
	for i := range history {
		if used[i] {
			continue
		}
		remaining = true
		if !minimal(history, used, i) {
			continue
		}
		next, result := step(model, history[i].Op)
		if !equal(result, history[i].Result) {
			continue
		}
		used[i] = true
		if search(next, history, used, step, equal) {
			return true
		}
		used[i] = false
	}
	return !remaining
}

// minimal reports whether event i is free to be linearized next: no
// still-unused event has already returned before i was called, which
// would force it earlier in any valid order.
func minimal[Op, Result any](history []Event[Op, Result], used []bool, i int) bool {
	for j := range history {
		if j == i || used[j] {
			continue
		}
		if history[j].End <= history[i].Start {
			return false
		}
	}
	return true
}
