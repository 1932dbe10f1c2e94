// Package sample holds the reference two-stage workload used by the CLI,
// the example program and the pipeline tests: a doubling stage that rejects
// payloads of 5 and above, and a bound check on the doubled value.
package sample

import (
	"context"
	"fmt"
)

// Reading is the raw input item.
type Reading struct {
	Payload uint32
}

// Scaled is a Reading after doubling.
type Scaled struct {
	Payload float64
}

// Verdict is the final outcome for an item.
type Verdict struct {
	Payload bool
}

const (
	ReadingLimit = 5
	ScaledLimit  = 10.0
)

// Double scales a reading by two. Payloads at or above ReadingLimit fail.
func Double(_ context.Context, in Reading) (Scaled, error) {
	if in.Payload < ReadingLimit {
		return Scaled{Payload: 2.0 * float64(in.Payload)}, nil
	}
	return Scaled{}, fmt.Errorf("Payload %d more than %d", in.Payload, ReadingLimit)
}

// Check accepts doubled values below ScaledLimit.
func Check(_ context.Context, in Scaled) (Verdict, error) {
	if in.Payload < ScaledLimit {
		return Verdict{Payload: true}, nil
	}
	return Verdict{}, fmt.Errorf("Payload %v more than %v", in.Payload, ScaledLimit)
}

// Readings turns raw numbers into input items.
func Readings(values ...uint32) []Reading {
	out := make([]Reading, 0, len(values))
	for _, v := range values {
		out = append(out, Reading{Payload: v})
	}
	return out
}
