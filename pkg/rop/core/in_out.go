package core

import (
	"github.com/ib-77/ropline/pkg/rop/message"
)

// Receive blocks for the next message on ch. A closed channel panics with
// *BrokenChannelError: every link must end with Quit.
func Receive[T any](stage string, ch <-chan message.Message[T]) message.Message[T] {
	m, ok := <-ch
	if !ok {
		panic(&BrokenChannelError{Stage: stage, Op: "receive"})
	}
	return m
}

// Send blocks until ch accepts m. Sending on a closed link panics with
// *BrokenChannelError.
func Send[T any](stage string, ch chan<- message.Message[T], m message.Message[T]) {
	defer func() {
		if r := recover(); r != nil {
			panic(&BrokenChannelError{Stage: stage, Op: "send", Cause: r})
		}
	}()
	ch <- m
}

// NewLink allocates a bounded link between two stages.
func NewLink[T any](capacity int) chan message.Message[T] {
	return make(chan message.Message[T], capacity)
}
