package event

import (
	"errors"
	"fmt"
)

// ErrInvalidSequence is wrapped by every error returned from Validate.
var ErrInvalidSequence = errors.New("event: invalid sequence")

type artifactPhase int

const (
	phaseStarted artifactPhase = iota + 1
	phaseCompleted
	phaseListed
)

// Validate checks a complete run's event sequence: exactly one RunStarted
// first, exactly one RunFinished last, and for every artifact ID the order
// Start, Chunk*, Complete, then at most one ListUpdated.
//
// An artifact that is listed without having been streamed in this run
// (an upload announced by the server) is accepted.
func Validate(events []Event) error {
	if len(events) == 0 {
		return fmt.Errorf("%w: no events", ErrInvalidSequence)
	}
	if events[0].Type != RunStarted {
		return fmt.Errorf("%w: first event is %s", ErrInvalidSequence, events[0].Type)
	}
	if last := events[len(events)-1]; last.Type != RunFinished {
		return fmt.Errorf("%w: last event is %s", ErrInvalidSequence, last.Type)
	}

	phases := make(map[string]artifactPhase)
	for i, e := range events {
		if i > 0 && e.Type == RunStarted {
			return fmt.Errorf("%w: repeated %s at %d", ErrInvalidSequence, e.Type, i)
		}
		if i < len(events)-1 && e.Type == RunFinished {
			return fmt.Errorf("%w: %s at %d is not last", ErrInvalidSequence, e.Type, i)
		}

		phase := phases[e.ArtifactID]
		switch e.Type {
		case ArtifactContentStart:
			if phase != 0 {
				return fmt.Errorf("%w: artifact %s started twice", ErrInvalidSequence, e.ArtifactID)
			}
			phases[e.ArtifactID] = phaseStarted
		case ArtifactContentChunk:
			if phase != phaseStarted {
				return fmt.Errorf("%w: chunk for artifact %s outside its stream", ErrInvalidSequence, e.ArtifactID)
			}
		case ArtifactContentComplete:
			if phase != phaseStarted {
				return fmt.Errorf("%w: artifact %s completed without start", ErrInvalidSequence, e.ArtifactID)
			}
			phases[e.ArtifactID] = phaseCompleted
		case ArtifactListUpdated:
			if phase == phaseStarted || phase == phaseListed {
				return fmt.Errorf("%w: artifact %s listed out of order", ErrInvalidSequence, e.ArtifactID)
			}
			phases[e.ArtifactID] = phaseListed
		}
	}

	for id, phase := range phases {
		if phase == phaseStarted {
			return fmt.Errorf("%w: artifact %s never completed", ErrInvalidSequence, id)
		}
	}
	return nil
}
