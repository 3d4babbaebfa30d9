// Package detok implements an incremental detokenizer: it buffers token
// IDs and emits safe, printable text chunks, holding back partial UTF-8
// sequences and sub-word fragments until a word boundary appears.
package detok

import (
	"context"
	"strings"

	"github.com/vajain-rhods/openvino-model-server/pipeline"
)

// replacementChar is U+FFFD, emitted by a tokenizer when it cannot yet
// decode a complete multi-byte token; grounded in the original
// TextStreamer::put's check for the replacement character.
const replacementChar = "�"

// IncrementalDetokenizer holds a token ID buffer plus printed_len, the
// UTF-8 byte offset already emitted. It is single-threaded and owned by
// exactly one calculator instance.
type IncrementalDetokenizer struct {
	tokenizer  pipeline.Tokenizer
	tokens     []int64
	printedLen int
}

// New constructs an IncrementalDetokenizer bound to the given tokenizer.
func New(tokenizer pipeline.Tokenizer) *IncrementalDetokenizer {
	return &IncrementalDetokenizer{tokenizer: tokenizer}
}

// Put appends one token to the buffer, redecodes the whole buffer, and
// returns the text chunk that becomes safe to emit, if any: a trailing
// newline flushes and resets the buffer, a trailing replacement character
// holds back (an incomplete multi-byte token), and a space anywhere in the
// unprinted tail flushes the whole unprinted tail.
func (d *IncrementalDetokenizer) Put(ctx context.Context, token int64) (string, bool, error) {
	d.tokens = append(d.tokens, token)

	text, err := d.tokenizer.Decode(ctx, d.tokens)
	if err != nil {
		return "", false, err
	}

	switch {
	case len(text) > 0 && strings.HasSuffix(text, "\n"):
		chunk := text[d.printedLen:]
		d.tokens = d.tokens[:0]
		d.printedLen = 0
		return chunk, true, nil

	case strings.HasSuffix(text, replacementChar):
		return "", false, nil

	case containsSpace(text[d.printedLen:]):
		chunk := text[d.printedLen:]
		d.printedLen = len(text)
		return chunk, true, nil

	default:
		return "", false, nil
	}
}

func containsSpace(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == ' ' {
			return true
		}
	}
	return false
}

// PrintedLen reports the current printed_len, for invariant checks in
// tests: it must never exceed the length of the buffer's decoded text.
func (d *IncrementalDetokenizer) PrintedLen() int {
	return d.printedLen
}

// Tokens reports the currently buffered token IDs.
func (d *IncrementalDetokenizer) Tokens() []int64 {
	return d.tokens
}
