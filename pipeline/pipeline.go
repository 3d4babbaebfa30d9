// Package pipeline defines the interfaces the calculator uses to reach the
// continuous-batching engine and its tokenizer. This package never
// implements real token generation, only the contract the core depends on
// plus (in refengine) an in-process stand-in used by the demo server.
package pipeline

import "context"

// Status is the terminal/non-terminal state of a GenerationHandle.
type Status int

const (
	// Running means the generation has not yet produced all of its output.
	Running Status = iota
	// Finished means read_all would return immediately and read_one has no
	// further tokens to deliver.
	Finished
)

// Tokenizer decodes token IDs to text. Implementations must be safe for
// concurrent use by multiple calculator instances.
type Tokenizer interface {
	Decode(ctx context.Context, tokens []int64) (string, error)
}

// GenerationConfig mirrors api.GenerationConfig's shape without importing
// the api package, keeping this interface boundary free of the HTTP-facing
// request type. Pipeline implementations receive exactly the fields they
// need to drive sampling.
type GenerationConfig struct {
	NumGroups          int
	GroupSize          int
	NumReturnSequences int
	DoSample           bool
	MaxTokens          *int
	Temperature        *float64
	TopP               *float64
	TopK               *int
	RepetitionPenalty  *float64
	LengthPenalty      *float64
	DiversityPenalty   *float64
	Seed               *int
	IgnoreEOS          *bool
}

// SequenceOutput is one completed sequence's full token list, as returned
// by Handle.ReadAll.
type SequenceOutput struct {
	Tokens []int64
}

// Handle is a per-request cursor into the shared pipeline. It is owned
// exclusively by one calculator instance and dropped when that instance
// closes.
type Handle interface {
	// ReadOne is non-blocking: it returns at most one new token per
	// sequence since the last read. ok is false when no new token is
	// available yet; that is not an error, just an empty tick.
	ReadOne(ctx context.Context) (token int64, ok bool, err error)

	// ReadAll blocks until the generation is complete and returns every
	// sequence's full token list.
	ReadAll(ctx context.Context) ([]SequenceOutput, error)

	// Status reports whether the generation has finished.
	Status() Status
}

// Pipeline is the shared, thread-safe continuous-batching engine. The core
// performs no locking of its own; implementations must tolerate concurrent
// AddRequest calls from many calculator instances.
type Pipeline interface {
	AddRequest(ctx context.Context, prompt string, cfg GenerationConfig) (Handle, error)
	Tokenizer() Tokenizer
}

// Notifier wakes the pipeline's executor thread after a request is
// submitted. A real engine integration provides this; the reference
// pipeline's notifier is a no-op since it schedules eagerly.
type Notifier func()
