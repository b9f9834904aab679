// Package session provides the recording session state machine and the
// recorder that guarantees a single microphone owner.
package session

import (
	"errors"
	"fmt"
	"sync"
)

// State represents the lifecycle state of a recording session.
type State int

const (
	// StateIdle - Session created, nothing acquired.
	StateIdle State = iota
	// StateAcquiring - Waiting for the input device.
	StateAcquiring
	// StateCapturing - Device held, chunks accumulating, timer armed.
	StateCapturing
	// StateStopping - Stop requested; device being released.
	StateStopping
	// StateEncoding - Chunks concatenated and encoded for transport.
	StateEncoding
	// StateDelivering - Waiting on the transcription service.
	StateDelivering
	// StateClosed - Terminal. All resources released.
	StateClosed
	// StateError - Acquisition, capture or encoding failed. Always followed by CLOSED.
	StateError
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateAcquiring:
		return "ACQUIRING"
	case StateCapturing:
		return "CAPTURING"
	case StateStopping:
		return "STOPPING"
	case StateEncoding:
		return "ENCODING"
	case StateDelivering:
		return "DELIVERING"
	case StateClosed:
		return "CLOSED"
	case StateError:
		return "ERROR"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// IsTerminal returns true if the state is terminal (CLOSED).
func (s State) IsTerminal() bool {
	return s == StateClosed
}

// Errors for invalid state transitions.
var (
	ErrSessionClosed     = errors.New("session is closed")
	ErrInvalidTransition = errors.New("invalid session state transition")
)

var transitions = map[State][]State{
	StateIdle:       {StateAcquiring},
	StateAcquiring:  {StateCapturing, StateError},
	StateCapturing:  {StateStopping, StateError},
	StateStopping:   {StateEncoding},
	StateEncoding:   {StateDelivering, StateError},
	StateDelivering: {},
	StateError:      {},
}

// Lifecycle manages the state machine for a single recording session.
// Thread-safe for concurrent access.
//
// State transitions:
//
//	IDLE → ACQUIRING → CAPTURING → STOPPING → ENCODING → DELIVERING → CLOSED
//	           │            │                     │
//	           └────────────┴──────→ ERROR ←──────┘
//	                                   │
//	                                   └──→ CLOSED
//
// Rules:
//   - Forward transitions are validated against the table above.
//   - Close() moves any non-terminal state to CLOSED; only the first caller wins.
//   - CLOSED: all transitions return ErrSessionClosed.
type Lifecycle struct {
	mu        sync.RWMutex
	sessionId string
	state     State
	history   []State
}

// NewLifecycle creates a new session lifecycle in IDLE state.
func NewLifecycle(sessionId string) *Lifecycle {
	return &Lifecycle{
		sessionId: sessionId,
		state:     StateIdle,
		history:   []State{StateIdle},
	}
}

// SessionId returns the session ID.
func (l *Lifecycle) SessionId() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.sessionId
}

// State returns the current state.
func (l *Lifecycle) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// IsClosed returns true if the session reached CLOSED.
func (l *Lifecycle) IsClosed() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state.IsTerminal()
}

// History returns every state visited, in order.
func (l *Lifecycle) History() []State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]State(nil), l.history...)
}

// Transition moves to the next state if the table allows it.
func (l *Lifecycle) Transition(to State) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state.IsTerminal() {
		return ErrSessionClosed
	}
	for _, allowed := range transitions[l.state] {
		if allowed == to {
			l.state = to
			l.history = append(l.history, to)
			return nil
		}
	}
	return fmt.Errorf("%w: %v → %v", ErrInvalidTransition, l.state, to)
}

// Close transitions the session to CLOSED from any state.
// Returns true if this call performed the transition, false if already closed.
func (l *Lifecycle) Close() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state.IsTerminal() {
		return false
	}
	l.state = StateClosed
	l.history = append(l.history, StateClosed)
	return true
}
