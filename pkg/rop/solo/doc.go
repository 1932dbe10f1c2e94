// Package solo contains single-value, synchronous ROP primitives. The
// pipeline uses them to lift caller transforms into stage processors.
//
// Highlights:
// - Succeed/Fail: construct Result[T]
// - Validate: fail an input that does not pass a check
// - Map: wrap an infallible transform
// - Try: call a function (Out, error) and convert error to failure
// - Finally: reduce a Result to a concrete value via success/error handlers
package solo
