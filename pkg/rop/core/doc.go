// Package core contains the stage worker: the Locomotive loop that receives
// a message, applies or bypasses the stage processor and forwards the
// outcome, plus the guarded Send/Receive helpers used on every link.
//
// A stage forwards Quit exactly once and then stops. Skip is never handed to
// the processor. A failed Work result, whether produced locally or received
// from upstream, leaves the stage as Skip. A processor panic is recovered and
// forwarded as Skip carrying *PanicError.
package core
