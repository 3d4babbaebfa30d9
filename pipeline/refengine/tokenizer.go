// Package refengine is an in-process stand-in continuous-batching engine:
// it satisfies pipeline.Pipeline, pipeline.Handle, and pipeline.Tokenizer
// well enough to drive the demo server binary. The calculator's tests use
// their own fakes, not this package.
// It is not, and is not meant to become, a real text-generation engine.
package refengine

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Tokenizer is a whitespace-delimited word tokenizer with a growable
// vocabulary. Safe for concurrent Decode.
type Tokenizer struct {
	mu     sync.RWMutex
	words  []string
	byWord map[string]int64
}

// NewTokenizer returns an empty tokenizer; tokens are assigned ids the
// first time a word is seen by Encode.
func NewTokenizer() *Tokenizer {
	return &Tokenizer{byWord: make(map[string]int64)}
}

// Encode splits text on whitespace and returns (possibly newly minted)
// token ids for each word, in order.
func (t *Tokenizer) Encode(text string) []int64 {
	fields := strings.Fields(text)
	ids := make([]int64, len(fields))
	for i, w := range fields {
		ids[i] = t.id(w)
	}
	return ids
}

func (t *Tokenizer) id(word string) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if id, ok := t.byWord[word]; ok {
		return id
	}
	id := int64(len(t.words))
	t.words = append(t.words, word)
	t.byWord[word] = id
	return id
}

// Decode joins the words for the given token ids with a single space,
// matching the whitespace-boundary assumption the incremental detokenizer
// relies on.
func (t *Tokenizer) Decode(_ context.Context, tokens []int64) (string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	words := make([]string, len(tokens))
	for i, id := range tokens {
		if id < 0 || int(id) >= len(t.words) {
			return "", fmt.Errorf("refengine: unknown token id %d", id)
		}
		words[i] = t.words[id]
	}
	return strings.Join(words, " "), nil
}
