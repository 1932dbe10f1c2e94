package core

import (
	"errors"
	"fmt"
)

var (
	// ErrChannelBroken means a link was closed before the Quit sentinel
	// travelled through it.
	ErrChannelBroken = errors.New("the channel is broken")

	// ErrEmptyResult is forwarded as Skip when a processor returns the zero Result.
	ErrEmptyResult = errors.New("processor returned an empty result")
)

// BrokenChannelError is the panic value raised by a stage that finds its
// link disconnected.
type BrokenChannelError struct {
	Stage string
	Op    string
	Cause any
}

func (e *BrokenChannelError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("stage %q: %s: %v: %v", e.Stage, e.Op, ErrChannelBroken, e.Cause)
	}
	return fmt.Sprintf("stage %q: %s: %v", e.Stage, e.Op, ErrChannelBroken)
}

func (e *BrokenChannelError) Unwrap() error {
	return ErrChannelBroken
}

// PanicError replaces the result of a processor that panicked.
type PanicError struct {
	Stage string
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("stage %q: processor panicked: %v", e.Stage, e.Value)
}

// Unwrap exposes the panic value when it was itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
