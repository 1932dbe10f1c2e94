// Package rop holds the Result value that travels inside pipeline messages:
// a successful payload or the error that replaced it, stamped with an id and
// a creation time.
package rop
