// Package waitstate implements a waitable integer cell: a value that can be
// set and read under a lock, with a blocking wait for the next change.
//
// It is the leaf dependency of the processor thread-control model (§4.1):
// every processor thread's Stopped/Started/Running/Terminated state lives
// in one of these.
package waitstate

import "sync"

// State is a thread-safe integer cell with change notification.
type State struct {
	mu      sync.Mutex
	cond    *sync.Cond
	current int
}

// New creates a State initialized to initial.
func New(initial int) *State {
	s := &State{current: initial}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Get returns the current value.
func (s *State) Get() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Set stores new and wakes every goroutine blocked in AwaitChange.
func (s *State) Set(new int) {
	s.mu.Lock()
	s.current = new
	s.mu.Unlock()
	s.cond.Broadcast()
}

// AwaitChange blocks until the stored value differs from current, then
// returns the new value. Guards against spurious wakeups internally.
func (s *State) AwaitChange(current int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.current == current {
		s.cond.Wait()
	}
	return s.current
}
