// Package openai implements components A and C: decoding a chat-completions
// request (decode.go) and serializing the unary/streaming response
// envelopes plus SSE framing (respond.go, sse.go).
package openai

import "encoding/json"

// Completion is one sequence's fully detokenized text, as produced by the
// unary read_all branch.
type Completion struct {
	Content string
}

// unaryChoice is one entry of a chat.completion's choices array.
type unaryChoice struct {
	FinishReason string  `json:"finish_reason"`
	Index        int     `json:"index"`
	Logprobs     any     `json:"logprobs"`
	Message      message `json:"message"`
}

type message struct {
	Content string `json:"content"`
	Role    string `json:"role"`
}

// UnaryEnvelope is the chat.completion response object. Field order in the
// emitted JSON (choices, created, model, object) follows the declaration
// order below; encoding/json preserves struct field order.
type UnaryEnvelope struct {
	Choices []unaryChoice `json:"choices"`
	Created int64         `json:"created"`
	Model   string        `json:"model"`
	Object  string        `json:"object"`
}

// NewUnaryEnvelope builds the chat.completion envelope for the N completed
// sequences returned by read_all.
func NewUnaryEnvelope(model string, created int64, completions []Completion) UnaryEnvelope {
	choices := make([]unaryChoice, len(completions))
	for i, c := range completions {
		choices[i] = unaryChoice{
			FinishReason: "stop",
			Index:        i,
			Logprobs:     nil,
			Message:      message{Content: c.Content, Role: "assistant"},
		}
	}
	return UnaryEnvelope{Choices: choices, Created: created, Model: model, Object: "chat.completion"}
}

// chunkChoice is the single-element choices entry of a streaming chunk.
type chunkChoice struct {
	FinishReason any   `json:"finish_reason"`
	Index        int   `json:"index"`
	Logprobs     any   `json:"logprobs"`
	Delta        delta `json:"delta"`
}

// delta holds the incremental content of a non-terminal chunk. A terminal
// chunk's delta is the empty object.
type delta struct {
	Content string `json:"content,omitempty"`
}

// StreamingChunk is the chat.completion.chunk response object.
type StreamingChunk struct {
	Choices []chunkChoice `json:"choices"`
	Created int64         `json:"created"`
	Model   string        `json:"model"`
	Object  string        `json:"object"`
}

// NewContentChunk builds a non-terminal streaming chunk carrying one text
// fragment from the incremental detokenizer.
func NewContentChunk(model string, created int64, content string) StreamingChunk {
	return StreamingChunk{
		Choices: []chunkChoice{{
			FinishReason: nil,
			Index:        0,
			Logprobs:     nil,
			Delta:        delta{Content: content},
		}},
		Created: created,
		Model:   model,
		Object:  "chat.completion.chunk",
	}
}

// NewStopChunk builds the terminal streaming chunk sent once the handle
// reports its generation finished: finish_reason "stop" and an empty
// delta.
func NewStopChunk(model string, created int64) StreamingChunk {
	return StreamingChunk{
		Choices: []chunkChoice{{
			FinishReason: "stop",
			Index:        0,
			Logprobs:     nil,
			Delta:        delta{},
		}},
		Created: created,
		Model:   model,
		Object:  "chat.completion.chunk",
	}
}

// Marshal renders an envelope to its wire JSON form. Both UnaryEnvelope and
// StreamingChunk satisfy this via plain struct marshaling; the helper keeps
// call sites (server, tests) from repeating the json.Marshal/must-succeed
// boilerplate.
func Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}
