package refengine

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/vajain-rhods/openvino-model-server/api"
	"github.com/vajain-rhods/openvino-model-server/pipeline"
)

// Engine is a toy continuous-batching pipeline: it answers every prompt
// with one fixed reply per requested sequence, pre-tokenized through its
// own Tokenizer, and lets callers drain that reply one token at a time.
// golang.org/x/sync/semaphore caps how many generations may be in flight
// at once, the same role it plays around the teacher's runner sequences.
type Engine struct {
	tokenizer *Tokenizer
	sem       *semaphore.Weighted
	reply     string
}

// New returns an Engine bounded to maxConcurrent in-flight generations,
// each of which replies with the given fixed text (split into one token
// per word, capped by the request's MaxTokens if set).
func New(maxConcurrent int64, reply string) *Engine {
	if reply == "" {
		reply = "hello there\n"
	}
	return &Engine{
		tokenizer: NewTokenizer(),
		sem:       semaphore.NewWeighted(maxConcurrent),
		reply:     reply,
	}
}

func (e *Engine) Tokenizer() pipeline.Tokenizer { return e.tokenizer }

// AddRequest implements pipeline.Pipeline. It blocks acquiring a slot, then
// precomputes max(group_size, num_return_sequences) sequences' worth of
// tokens for the handle to drain.
func (e *Engine) AddRequest(ctx context.Context, prompt string, cfg pipeline.GenerationConfig) (pipeline.Handle, error) {
	if err := e.sem.Acquire(ctx, 1); err != nil {
		return nil, api.NewStatusError(api.EngineFailure, "refengine: could not acquire a generation slot: %v", err)
	}

	groupSize := cfg.GroupSize
	if groupSize < 1 {
		groupSize = 1
	}
	numSeqs := groupSize
	if cfg.NumReturnSequences > numSeqs {
		numSeqs = cfg.NumReturnSequences
	}

	tokens := e.tokenizer.Encode(e.reply)
	if cfg.MaxTokens != nil && len(tokens) > *cfg.MaxTokens {
		tokens = tokens[:*cfg.MaxTokens]
	}

	sequences := make([][]int64, numSeqs)
	for i := range sequences {
		sequences[i] = tokens
	}

	h := &handle{
		sem:       e.sem,
		sequences: sequences,
		emitted:   0,
	}
	return h, nil
}

// handle is a single-producer cursor owned by exactly one calculator
// instance, releasing its engine slot once drained.
type handle struct {
	mu        sync.Mutex
	sem       *semaphore.Weighted
	sequences [][]int64
	emitted   int
	released  bool
}

func (h *handle) ReadOne(ctx context.Context) (int64, bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.sequences) != 1 {
		return 0, false, api.NewStatusError(api.InvariantViolation, "refengine: streaming requires exactly one sequence, got %d", len(h.sequences))
	}
	seq := h.sequences[0]
	if h.emitted >= len(seq) {
		h.releaseLocked()
		return 0, false, nil
	}
	tok := seq[h.emitted]
	h.emitted++
	if h.emitted >= len(seq) {
		h.releaseLocked()
	}
	return tok, true, nil
}

func (h *handle) ReadAll(ctx context.Context) ([]pipeline.SequenceOutput, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]pipeline.SequenceOutput, len(h.sequences))
	for i, seq := range h.sequences {
		out[i] = pipeline.SequenceOutput{Tokens: seq}
	}
	h.emitted = maxLen(h.sequences)
	h.releaseLocked()
	return out, nil
}

func (h *handle) Status() pipeline.Status {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.sequences) == 1 && h.emitted >= len(h.sequences[0]) {
		return pipeline.Finished
	}
	return pipeline.Running
}

func (h *handle) releaseLocked() {
	if h.released {
		return
	}
	h.released = true
	h.sem.Release(1)
}

func maxLen(seqs [][]int64) int {
	m := 0
	for _, s := range seqs {
		if len(s) > m {
			m = len(s)
		}
	}
	return m
}
