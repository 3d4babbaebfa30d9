// Package calculator implements the per-request state machine that submits
// a decoded request to the shared pipeline, pumps it across ticks, and
// routes output to the unary or streaming serializer.
package calculator

import (
	"github.com/vajain-rhods/openvino-model-server/api"
	"github.com/vajain-rhods/openvino-model-server/detok"
	"github.com/vajain-rhods/openvino-model-server/pipeline"
)

// State is the calculator's lifecycle tag.
type State int

const (
	Uninitialized State = iota
	Submitted
	PumpingUnary
	PumpingStreaming
	Done
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Submitted:
		return "submitted"
	case PumpingUnary:
		return "pumping_unary"
	case PumpingStreaming:
		return "pumping_streaming"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// Payload is one HTTP request body handed to the core at most once per
// request.
type Payload struct {
	Body []byte
}

// Input is what the host passes to one Process tick: a payload, a
// loopback signal, both, or neither.
type Input struct {
	Payload  *Payload
	Loopback bool
}

// Output is what one Process tick yields: zero or more wire-ready packets
// (a unary envelope, or one or more framed SSE chunks emitted together)
// plus whether the host should re-arm the calculator.
type Output struct {
	Packets  []string
	Loopback bool
}

// CalculatorState is the per-invocation state carried between ticks.
type CalculatorState struct {
	Request    *api.Request
	Handle     pipeline.Handle
	Detok      *detok.IncrementalDetokenizer
	Created    int64
	SeqCounter int64
}
