package session

import (
	"errors"
	"sync"
	"testing"
)

func TestLifecycle_InitialState(t *testing.T) {
	lc := NewLifecycle("rec-1")

	if lc.State() != StateIdle {
		t.Errorf("expected StateIdle, got %v", lc.State())
	}
	if lc.SessionId() != "rec-1" {
		t.Errorf("expected rec-1, got %v", lc.SessionId())
	}
	if lc.IsClosed() {
		t.Error("expected IsClosed to be false")
	}
}

func TestLifecycle_HappyPath(t *testing.T) {
	lc := NewLifecycle("rec-1")

	path := []State{StateAcquiring, StateCapturing, StateStopping, StateEncoding, StateDelivering}
	for _, s := range path {
		if err := lc.Transition(s); err != nil {
			t.Fatalf("transition to %v: unexpected error: %v", s, err)
		}
	}
	if !lc.Close() {
		t.Fatal("expected Close to succeed from DELIVERING")
	}

	want := append([]State{StateIdle}, path...)
	want = append(want, StateClosed)
	got := lc.History()
	if len(got) != len(want) {
		t.Fatalf("expected history %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("history[%d]: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestLifecycle_ErrorReachableFrom(t *testing.T) {
	tests := []struct {
		name string
		path []State
	}{
		{"acquiring", []State{StateAcquiring}},
		{"capturing", []State{StateAcquiring, StateCapturing}},
		{"encoding", []State{StateAcquiring, StateCapturing, StateStopping, StateEncoding}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lc := NewLifecycle("rec-1")
			for _, s := range tt.path {
				if err := lc.Transition(s); err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
			}
			if err := lc.Transition(StateError); err != nil {
				t.Errorf("expected ERROR to be reachable, got %v", err)
			}
			if !lc.Close() {
				t.Error("expected ERROR to close")
			}
		})
	}
}

func TestLifecycle_ErrorNotReachableFromStoppingOrDelivering(t *testing.T) {
	lc := NewLifecycle("rec-1")
	_ = lc.Transition(StateAcquiring)
	_ = lc.Transition(StateCapturing)
	_ = lc.Transition(StateStopping)

	if err := lc.Transition(StateError); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition from STOPPING, got %v", err)
	}

	_ = lc.Transition(StateEncoding)
	_ = lc.Transition(StateDelivering)
	if err := lc.Transition(StateError); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition from DELIVERING, got %v", err)
	}
}

func TestLifecycle_SecondStopIsRejected(t *testing.T) {
	lc := NewLifecycle("rec-1")
	_ = lc.Transition(StateAcquiring)
	_ = lc.Transition(StateCapturing)

	if err := lc.Transition(StateStopping); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := lc.Transition(StateStopping); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestLifecycle_SkipRejected(t *testing.T) {
	lc := NewLifecycle("rec-1")
	if err := lc.Transition(StateCapturing); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
	if lc.State() != StateIdle {
		t.Errorf("expected state unchanged, got %v", lc.State())
	}
}

func TestLifecycle_Close_FromAnyState(t *testing.T) {
	for _, s := range []State{StateIdle, StateAcquiring, StateCapturing} {
		t.Run(s.String(), func(t *testing.T) {
			lc := NewLifecycle("rec-1")
			for _, step := range []State{StateAcquiring, StateCapturing} {
				if lc.State() == s {
					break
				}
				_ = lc.Transition(step)
			}
			if !lc.Close() {
				t.Error("expected first Close to succeed")
			}
			if lc.Close() {
				t.Error("expected second Close to be a no-op")
			}
		})
	}
}

func TestLifecycle_TransitionAfterClose(t *testing.T) {
	lc := NewLifecycle("rec-1")
	lc.Close()

	if err := lc.Transition(StateAcquiring); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("expected ErrSessionClosed, got %v", err)
	}
}

func TestLifecycle_ConcurrentClose(t *testing.T) {
	lc := NewLifecycle("rec-1")
	_ = lc.Transition(StateAcquiring)

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if lc.Close() {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("expected exactly one Close to win, got %d", wins)
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state    State
		expected string
	}{
		{StateIdle, "IDLE"},
		{StateAcquiring, "ACQUIRING"},
		{StateCapturing, "CAPTURING"},
		{StateStopping, "STOPPING"},
		{StateEncoding, "ENCODING"},
		{StateDelivering, "DELIVERING"},
		{StateClosed, "CLOSED"},
		{StateError, "ERROR"},
		{State(99), "UNKNOWN(99)"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.expected {
			t.Errorf("expected %s, got %s", tt.expected, got)
		}
	}
}

func TestState_IsTerminal(t *testing.T) {
	if !StateClosed.IsTerminal() {
		t.Error("expected CLOSED to be terminal")
	}
	if StateError.IsTerminal() {
		t.Error("expected ERROR to be transient")
	}
}
