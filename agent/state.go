package agent

import "github.com/nettee/synphora"

// State is a node of the executor's state machine.
type State string

const (
	StateStart  State = "start"
	StateReason State = "reason"
	StateAct    State = "act"
	StateEnd    State = "end"
)

// RunState is the mutable state of one run. It is owned by the executor
// goroutine until the run finishes.
type RunState struct {
	// ID identifies the run in logs.
	ID string

	// History is the append-only conversation, starting with the caller's
	// messages.
	History []synphora.Message

	// Iterations counts executed Reason steps.
	Iterations int

	// Path lists the states visited, in order.
	Path []State

	// Finished is set once End has run.
	Finished bool

	// Err records why the run ended early, nil on a normal finish.
	Err error
}

func newRunState(id string, history []synphora.Message) *RunState {
	return &RunState{
		ID:      id,
		History: append([]synphora.Message(nil), history...),
	}
}

func (s *RunState) append(m synphora.Message) {
	s.History = append(s.History, m)
}

// Last returns the most recent message, or the zero Message when the
// history is empty.
func (s *RunState) Last() synphora.Message {
	if len(s.History) == 0 {
		return synphora.Message{}
	}
	return s.History[len(s.History)-1]
}
