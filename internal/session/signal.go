package session

import (
	"sync"
)

// Signal is the "identity updated" broadcast. Notify never blocks and carries
// no payload; subscribers re-read the store when it fires.
type Signal interface {
	Subscribe() (<-chan struct{}, func())
	Notify()
}

// LocalSignal delivers notifications within one process. Each subscriber has
// a one-slot buffer, so bursts coalesce into a single pending delivery.
type LocalSignal struct {
	mu   sync.Mutex
	next int
	subs map[int]chan struct{}
}

func NewLocalSignal() *LocalSignal {
	return &LocalSignal{subs: make(map[int]chan struct{})}
}

// Subscribe registers a listener. The returned func unsubscribes and closes
// the channel; calling it more than once is harmless.
func (s *LocalSignal) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			close(ch)
		})
	}
}

func (s *LocalSignal) Notify() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Subscribers returns the number of live subscriptions.
func (s *LocalSignal) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}
