// Package pipe wires stages into a fixed, linear pipeline.
//
// A pipeline of N stages owns N+1 bounded links and N worker goroutines:
//
//	caller -> link 1 -> stage 1 -> link 2 -> ... -> stage N -> link N+1 -> caller
//
// Chains are built with New and Then, which keep every link statically typed:
//
//	p, err := pipe.Then(
//	    pipe.Then(pipe.New[uint32](pipe.WithCapacity(100)),
//	        pipe.Try("double", double)),
//	    pipe.Try("check", check),
//	).Build(ctx)
//
// The caller submits with Submit or SubmitError and reads with
// TryReceiveResult. A full link blocks Submit, which is the only
// backpressure. Results come out in submission order. Shutdown sends the
// Quit sentinel, discards in-flight messages until Quit reaches the end,
// and joins every worker.
//
// An item whose transform fails becomes Skip and passes through the
// remaining stages untouched, so the consumer receives the original error.
package pipe
