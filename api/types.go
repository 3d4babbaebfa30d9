// Package api holds the wire-adjacent domain types shared across the
// decoder, the calculator, and the serializer: the normalized request, the
// derived generation parameters, and the error kinds the core can raise.
package api

import "fmt"

// Kind classifies why an invocation aborted. The HTTP surface maps each
// Kind to a status code; the core itself never inspects a status code.
type Kind int

const (
	// BadRequest covers JSON shape or value-range violations in decoding.
	BadRequest Kind = iota
	// NotFound covers a missing resource bundle at open.
	NotFound
	// InvariantViolation covers fatal precondition failures: double
	// submission, unset handle during pump, multi-sequence streaming.
	InvariantViolation
	// EngineFailure covers a pipeline or tokenizer failure.
	EngineFailure
)

func (k Kind) String() string {
	switch k {
	case BadRequest:
		return "bad_request"
	case NotFound:
		return "not_found"
	case InvariantViolation:
		return "invariant_violation"
	case EngineFailure:
		return "engine_failure"
	default:
		return "unknown"
	}
}

// StatusError is the one error type the core returns. No local recovery is
// attempted anywhere in this module; every StatusError aborts the current
// invocation and is surfaced to the host.
type StatusError struct {
	Kind    Kind
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewStatusError constructs a StatusError with a formatted message.
func NewStatusError(kind Kind, format string, args ...any) *StatusError {
	return &StatusError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Message is one entry of a chat-completions messages array: an arbitrary
// string-to-string mapping. Callers that need the prompt read the
// "content" key of the first entry.
type Message map[string]string

// Request is a normalized, immutable chat-completions request. It is
// consulted on every tick of the owning state machine and never mutated
// after Decode returns it.
type Request struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream,omitempty"`

	MaxTokens          *int     `json:"max_tokens,omitempty"`
	Temperature        *float64 `json:"temperature,omitempty"`
	TopP               *float64 `json:"top_p,omitempty"`
	TopK               *int     `json:"top_k,omitempty"`
	RepetitionPenalty  *float64 `json:"repetition_penalty,omitempty"`
	LengthPenalty      *float64 `json:"length_penalty,omitempty"`
	DiversityPenalty   *float64 `json:"diversity_penalty,omitempty"`
	Seed               *int     `json:"seed,omitempty"`
	BestOf             *int     `json:"best_of,omitempty"`
	N                  *int     `json:"n,omitempty"`
	IgnoreEOS          *bool    `json:"ignore_eos,omitempty"`
}

// Prompt returns the content of the first message, which serves as the
// prompt handed to the engine. Decode already guarantees Messages is
// non-empty and that the first entry has a "content" key.
func (r *Request) Prompt() string {
	return r.Messages[0]["content"]
}

// GenerationConfig is the derived parameter bundle passed to the batched
// engine.
type GenerationConfig struct {
	NumGroups           int
	GroupSize           int
	NumReturnSequences  int
	DoSample            bool
	MaxTokens           *int
	Temperature         *float64
	TopP                *float64
	TopK                *int
	RepetitionPenalty   *float64
	LengthPenalty       *float64
	DiversityPenalty    *float64
	Seed                *int
	IgnoreEOS           *bool
}

// DeriveGenerationConfig maps a normalized request onto the engine's
// parameter bundle: num_groups is always 1, group_size mirrors best_of
// (defaulting to 1 when unset), num_return_sequences mirrors n, and
// do_sample is set iff temperature>0 and group_size==1.
func DeriveGenerationConfig(r *Request) GenerationConfig {
	groupSize := 1
	if r.BestOf != nil {
		groupSize = *r.BestOf
	}

	cfg := GenerationConfig{
		NumGroups:         1,
		GroupSize:         groupSize,
		DoSample:          r.Temperature != nil && *r.Temperature > 0 && groupSize == 1,
		MaxTokens:         r.MaxTokens,
		Temperature:       r.Temperature,
		TopP:              r.TopP,
		TopK:              r.TopK,
		RepetitionPenalty: r.RepetitionPenalty,
		LengthPenalty:     r.LengthPenalty,
		DiversityPenalty:  r.DiversityPenalty,
		Seed:              r.Seed,
		IgnoreEOS:         r.IgnoreEOS,
	}
	if r.N != nil {
		cfg.NumReturnSequences = *r.N
	}
	return cfg
}
