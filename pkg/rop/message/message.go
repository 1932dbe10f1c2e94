package message

import (
	"errors"
	"fmt"

	"github.com/ib-77/ropline/pkg/rop"
)

// ErrInvalidMessage is raised when a zero Message is interpreted.
var ErrInvalidMessage = errors.New("invalid message: zero value carries no variant")

// Kind names the variant a Message holds.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindQuit
	KindSkip
	KindWork
)

func (k Kind) String() string {
	switch k {
	case KindQuit:
		return "quit"
	case KindSkip:
		return "skip"
	case KindWork:
		return "work"
	default:
		return "invalid"
	}
}

// Message is what crosses every stage boundary: the Quit sentinel, a Skip
// carrying the error of an item that already failed, or Work carrying a
// Result produced by the previous hop.
type Message[T any] struct {
	kind Kind
	err  error
	work rop.Result[T]
}

func Quit[T any]() Message[T] {
	return Message[T]{kind: KindQuit}
}

func Skip[T any](err error) Message[T] {
	return Message[T]{kind: KindSkip, err: err}
}

func Work[T any](r rop.Result[T]) Message[T] {
	return Message[T]{kind: KindWork, work: r}
}

// WorkOk wraps a valid payload.
func WorkOk[T any](v T) Message[T] {
	return Work(rop.Success(v))
}

// WorkErr wraps an error as Work. Stages never emit this shape; it exists so
// callers and tests can feed it to a worker.
func WorkErr[T any](err error) Message[T] {
	return Work(rop.Fail[T](err))
}

func (m Message[T]) Kind() Kind {
	return m.kind
}

func (m Message[T]) IsQuit() bool {
	return m.kind == KindQuit
}

func (m Message[T]) IsSkip() bool {
	return m.kind == KindSkip
}

func (m Message[T]) IsWork() bool {
	return m.kind == KindWork
}

// Err returns the Skip error, or the error inside a failed Work result.
func (m Message[T]) Err() error {
	switch m.kind {
	case KindSkip:
		return m.err
	case KindWork:
		return m.work.Err()
	default:
		return nil
	}
}

// Result returns the Work payload; it is the zero Result for Quit and Skip.
func (m Message[T]) Result() rop.Result[T] {
	return m.work
}

func (m Message[T]) String() string {
	switch m.kind {
	case KindQuit:
		return "Quit"
	case KindSkip:
		return fmt.Sprintf("Skip(%v)", m.err)
	case KindWork:
		if m.work.IsSuccess() {
			return fmt.Sprintf("Work(%v)", m.work.Result())
		}
		return fmt.Sprintf("Work(Err(%v))", m.work.Err())
	default:
		return "Invalid"
	}
}

// Fold interprets m with exactly one handler per variant. It panics with
// ErrInvalidMessage on the zero Message.
func Fold[T, R any](m Message[T],
	onWork func(r rop.Result[T]) R,
	onSkip func(err error) R,
	onQuit func() R) R {

	switch m.kind {
	case KindQuit:
		return onQuit()
	case KindSkip:
		return onSkip(m.err)
	case KindWork:
		return onWork(m.work)
	default:
		panic(ErrInvalidMessage)
	}
}

// Handlers is a handler table for Match.
type Handlers[T, R any] struct {
	OnWork func(r rop.Result[T]) R
	OnSkip func(err error) R
	OnQuit func() R
}

func Match[T, R any](m Message[T], h Handlers[T, R]) R {
	return Fold(m, h.OnWork, h.OnSkip, h.OnQuit)
}
