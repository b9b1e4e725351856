// Package signals implements a minimal in-process signal system. It lets
// parts of the application get notified when events occur elsewhere
// without coupling the two sides.
package signals

import (
	"fmt"
	"sync"
)

// Signal is a named event source. Listeners connect once and every Send
// fans the event out to all of them, in connection order.
type Signal[T any] struct {
	name string

	mu        sync.RWMutex
	listeners []func(T)
}

// New creates a named signal.
func New[T any](name string) *Signal[T] {
	return &Signal[T]{name: name}
}

// Connect registers a listener. Listeners are never removed; connect for
// the lifetime of the process.
func (s *Signal[T]) Connect(fn func(T)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Send notifies all listeners of this signal. Listeners run synchronously
// on the calling goroutine.
func (s *Signal[T]) Send(event T) {
	s.mu.RLock()
	listeners := s.listeners
	s.mu.RUnlock()

	for _, fn := range listeners {
		fn(event)
	}
}

// Len returns the number of connected listeners.
func (s *Signal[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.listeners)
}

func (s *Signal[T]) String() string {
	return fmt.Sprintf("<Signal:%s>", s.name)
}
