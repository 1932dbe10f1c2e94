// Package message defines the protocol spoken on every link of a pipeline.
//
// A Message[T] is always exactly one of:
//   - Quit: the shutdown sentinel, forwarded once by every stage
//   - Skip(err): an item that failed upstream and bypasses every remaining transform
//   - Work(result): a Result[T] produced by the previous hop
//
// Consumers interpret messages through Fold (or Match with a Handlers table),
// which takes one handler per variant, so no variant can be forgotten.
package message
