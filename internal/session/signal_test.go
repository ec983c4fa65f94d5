package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocalSignal_Coalesces(t *testing.T) {
	s := NewLocalSignal()
	ch, unsubscribe := s.Subscribe()
	defer unsubscribe()

	s.Notify()
	s.Notify()
	s.Notify()

	assert.Len(t, ch, 1)
	<-ch
	assert.Len(t, ch, 0)
}

func TestLocalSignal_FansOut(t *testing.T) {
	s := NewLocalSignal()
	a, unsubA := s.Subscribe()
	b, unsubB := s.Subscribe()
	defer unsubA()
	defer unsubB()

	s.Notify()
	assert.Len(t, a, 1)
	assert.Len(t, b, 1)
}

func TestLocalSignal_Unsubscribe(t *testing.T) {
	s := NewLocalSignal()
	ch, unsubscribe := s.Subscribe()
	assert.Equal(t, 1, s.Subscribers())

	unsubscribe()
	unsubscribe()
	assert.Equal(t, 0, s.Subscribers())

	_, ok := <-ch
	assert.False(t, ok)

	assert.NotPanics(t, s.Notify)
}
