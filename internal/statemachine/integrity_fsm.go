package statemachine

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"
)

// Integrity states of the audit chain
const (
	IntegrityUnknown     = "unknown"
	IntegrityVerified    = "verified"
	IntegrityCompromised = "compromised"
)

// Integrity events
const (
	EventConfirm = "confirm"
	EventBreach  = "breach"
	EventRestore = "restore"
)

// IntegrityFSM tracks what the last replay concluded about the chain.
// A compromised chain only returns to verified through Restore, which callers
// must reserve for a full replay from genesis.
type IntegrityFSM struct {
	fsm *fsm.FSM
}

// NewIntegrityFSM starts in the unknown state. onCompromised, if non-nil, runs
// every time the chain enters the compromised state.
func NewIntegrityFSM(onCompromised func(ctx context.Context)) *IntegrityFSM {
	callbacks := fsm.Callbacks{}
	if onCompromised != nil {
		callbacks["enter_"+IntegrityCompromised] = func(ctx context.Context, e *fsm.Event) {
			onCompromised(ctx)
		}
	}

	return &IntegrityFSM{
		fsm: fsm.NewFSM(
			IntegrityUnknown,
			fsm.Events{
				// unknown → verified
				{Name: EventConfirm, Src: []string{IntegrityUnknown}, Dst: IntegrityVerified},

				// unknown/verified → compromised
				{Name: EventBreach, Src: []string{IntegrityUnknown, IntegrityVerified}, Dst: IntegrityCompromised},

				// compromised → verified (full replay only)
				{Name: EventRestore, Src: []string{IntegrityCompromised}, Dst: IntegrityVerified},
			},
			callbacks,
		),
	}
}

// Confirm records a replay that found no break
func (f *IntegrityFSM) Confirm(ctx context.Context, fullReplay bool) error {
	switch f.Current() {
	case IntegrityVerified:
		return nil
	case IntegrityCompromised:
		if !fullReplay {
			return nil
		}
		return f.fire(ctx, EventRestore)
	}
	return f.fire(ctx, EventConfirm)
}

// Breach records a replay that found a break
func (f *IntegrityFSM) Breach(ctx context.Context) error {
	if f.Current() == IntegrityCompromised {
		return nil
	}
	return f.fire(ctx, EventBreach)
}

func (f *IntegrityFSM) fire(ctx context.Context, event string) error {
	if err := f.fsm.Event(ctx, event); err != nil {
		return fmt.Errorf("integrity transition %s from %s failed: %w", event, f.fsm.Current(), err)
	}
	return nil
}

// Current returns the current state
func (f *IntegrityFSM) Current() string {
	return f.fsm.Current()
}

// Can checks if a transition is possible
func (f *IntegrityFSM) Can(event string) bool {
	return f.fsm.Can(event)
}
