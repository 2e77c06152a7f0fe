package kafka

import (
	// Go Internal Packages
	"fmt"
	"sync"
	"time"
)

// State is a lifecycle state of the persistent consumer.
type State uint8

const (
	StateUninitialized State = iota
	StateConnecting
	StateSubscribed
	StateRunning
	StateDisconnected
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateConnecting:
		return "connecting"
	case StateSubscribed:
		return "subscribed"
	case StateRunning:
		return "running"
	case StateDisconnected:
		return "disconnected"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// Event drives a State transition.
type Event uint8

const (
	EventConnect Event = iota
	EventSubscribed
	EventConnectFailed
	EventRun
	EventRunStopped
	EventClose
)

func (e Event) String() string {
	switch e {
	case EventConnect:
		return "connect"
	case EventSubscribed:
		return "subscribed"
	case EventConnectFailed:
		return "connect_failed"
	case EventRun:
		return "run"
	case EventRunStopped:
		return "run_stopped"
	case EventClose:
		return "close"
	default:
		return fmt.Sprintf("event(%d)", uint8(e))
	}
}

// InvalidTransitionError reports an event that is not allowed in a state.
type InvalidTransitionError struct {
	From  State
	Event Event
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid consumer transition: %s on %s", e.Event, e.From)
}

// Transition is the consumer lifecycle. It has no side effects.
//
//	uninitialized|disconnected --connect--> connecting
//	connecting --subscribed--> subscribed
//	connecting --connect_failed--> disconnected
//	subscribed --run--> running
//	running --run_stopped--> subscribed
//	any but closed --close--> closed
func Transition(from State, event Event) (State, error) {
	switch {
	case event == EventClose && from != StateClosed:
		return StateClosed, nil
	case event == EventConnect && (from == StateUninitialized || from == StateDisconnected):
		return StateConnecting, nil
	case event == EventSubscribed && from == StateConnecting:
		return StateSubscribed, nil
	case event == EventConnectFailed && from == StateConnecting:
		return StateDisconnected, nil
	case event == EventRun && from == StateSubscribed:
		return StateRunning, nil
	case event == EventRunStopped && from == StateRunning:
		return StateSubscribed, nil
	}
	return from, &InvalidTransitionError{From: from, Event: event}
}

// Session is the process-wide consumer state.
type Session struct {
	mu      sync.RWMutex
	state   State
	groupID string
}

// NewSession derives the consumer group id from the process start time.
func NewSession(prefix string, startedAt time.Time) *Session {
	return &Session{groupID: fmt.Sprintf("%s-%d", prefix, startedAt.UnixMilli())}
}

// Apply moves the session along Transition. On error the state is unchanged.
func (s *Session) Apply(event Event) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := Transition(s.state, event)
	if err != nil {
		return s.state, err
	}
	s.state = next
	return next, nil
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) GroupID() string {
	return s.groupID
}

// Connected reports whether the consumer is subscribed.
func (s *Session) Connected() bool {
	st := s.State()
	return st == StateSubscribed || st == StateRunning
}

// Running reports whether the run loop is active.
func (s *Session) Running() bool {
	return s.State() == StateRunning
}
