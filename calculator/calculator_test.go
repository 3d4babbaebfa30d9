package calculator

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/vajain-rhods/openvino-model-server/pipeline"
	"github.com/vajain-rhods/openvino-model-server/resources"
)

// fakeTokenizer decodes token ids by concatenating pieces from a fixed
// vocabulary, letting tests control exactly what text each cumulative
// buffer produces.
type fakeTokenizer struct {
	vocab []string
}

func (t fakeTokenizer) Decode(_ context.Context, tokens []int64) (string, error) {
	var sb strings.Builder
	for _, tok := range tokens {
		sb.WriteString(t.vocab[tok])
	}
	return sb.String(), nil
}

// fakeHandle is a GenerationHandle test double with precomputed sequences.
type fakeHandle struct {
	sequences [][]int64
	emitted   int
}

func (h *fakeHandle) ReadOne(_ context.Context) (int64, bool, error) {
	if len(h.sequences) != 1 {
		panic("fakeHandle.ReadOne called with != 1 sequence")
	}
	seq := h.sequences[0]
	if h.emitted >= len(seq) {
		return 0, false, nil
	}
	tok := seq[h.emitted]
	h.emitted++
	return tok, true, nil
}

func (h *fakeHandle) ReadAll(_ context.Context) ([]pipeline.SequenceOutput, error) {
	out := make([]pipeline.SequenceOutput, len(h.sequences))
	for i, s := range h.sequences {
		out[i] = pipeline.SequenceOutput{Tokens: s}
	}
	return out, nil
}

func (h *fakeHandle) Status() pipeline.Status {
	if len(h.sequences) == 1 && h.emitted >= len(h.sequences[0]) {
		return pipeline.Finished
	}
	return pipeline.Running
}

type fakePipeline struct {
	tokenizer fakeTokenizer
	handle    *fakeHandle
}

func (p *fakePipeline) AddRequest(_ context.Context, _ string, _ pipeline.GenerationConfig) (pipeline.Handle, error) {
	return p.handle, nil
}

func (p *fakePipeline) Tokenizer() pipeline.Tokenizer { return p.tokenizer }

func newRegistry(t *testing.T, name string, pl *fakePipeline) *resources.Map {
	t.Helper()
	m := resources.NewMap()
	m.Set(name, resources.Bundle{Pipeline: pl, Notifier: func() {}})
	return m
}

func TestCalculator_UnaryHappyPath(t *testing.T) {
	pl := &fakePipeline{
		tokenizer: fakeTokenizer{vocab: []string{"hello"}},
		handle:    &fakeHandle{sequences: [][]int64{{0}}},
	}
	registry := newRegistry(t, "n", pl)

	calc, err := Open("n", registry)
	if err != nil {
		t.Fatal(err)
	}
	defer calc.Close()

	body := []byte(`{"model":"m","messages":[{"role":"user","content":"hi"}],"max_tokens":4}`)
	out, err := calc.Process(context.Background(), Input{Payload: &Payload{Body: body}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Packets) != 1 {
		t.Fatalf("len(Packets) = %d, want 1", len(out.Packets))
	}
	if out.Loopback {
		t.Errorf("unary branch must not emit loopback")
	}
	if calc.State() != Done {
		t.Errorf("State() = %v, want Done", calc.State())
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(out.Packets[0]), &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["object"] != "chat.completion" {
		t.Errorf("object = %v, want chat.completion", decoded["object"])
	}
	if decoded["model"] != "m" {
		t.Errorf("model = %v, want m", decoded["model"])
	}
	choice := decoded["choices"].([]any)[0].(map[string]any)
	if choice["finish_reason"] != "stop" {
		t.Errorf("finish_reason = %v, want stop", choice["finish_reason"])
	}
	if choice["index"].(float64) != 0 {
		t.Errorf("index = %v, want 0", choice["index"])
	}
	msg := choice["message"].(map[string]any)
	if msg["content"] != "hello" {
		t.Errorf("message.content = %v, want hello", msg["content"])
	}
}

func TestCalculator_BestOfBeams(t *testing.T) {
	pl := &fakePipeline{
		tokenizer: fakeTokenizer{vocab: []string{"a", "b", "c"}},
		handle:    &fakeHandle{sequences: [][]int64{{0}, {1}, {2}}},
	}
	registry := newRegistry(t, "n", pl)

	calc, err := Open("n", registry)
	if err != nil {
		t.Fatal(err)
	}
	defer calc.Close()

	body := []byte(`{"model":"m","messages":[{"role":"user","content":"hi"}],"best_of":3}`)
	out, err := calc.Process(context.Background(), Input{Payload: &Payload{Body: body}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(out.Packets[0]), &decoded); err != nil {
		t.Fatal(err)
	}
	choices := decoded["choices"].([]any)
	if len(choices) != 3 {
		t.Fatalf("len(choices) = %d, want 3", len(choices))
	}
	for i, want := range []string{"a", "b", "c"} {
		choice := choices[i].(map[string]any)
		if choice["index"].(float64) != float64(i) {
			t.Errorf("choices[%d].index = %v, want %d", i, choice["index"], i)
		}
		msg := choice["message"].(map[string]any)
		if msg["content"] != want {
			t.Errorf("choices[%d].message.content = %v, want %q", i, msg["content"], want)
		}
	}
}

func TestCalculator_StreamingHappyPath(t *testing.T) {
	// vocab pieces "hel","lo ","world" decode incrementally to
	// "hel" -> no emit, "hello " -> emit "hello ", "hello world" -> no emit
	// (no space after "world"), then FINISHED.
	pl := &fakePipeline{
		tokenizer: fakeTokenizer{vocab: []string{"hel", "lo ", "world"}},
		handle:    &fakeHandle{sequences: [][]int64{{0, 1, 2}}},
	}
	registry := newRegistry(t, "n", pl)

	calc, err := Open("n", registry)
	if err != nil {
		t.Fatal(err)
	}
	defer calc.Close()

	body := []byte(`{"model":"m","messages":[{"role":"user","content":"hi"}],"max_tokens":4,"stream":true}`)
	out, err := calc.Process(context.Background(), Input{Payload: &Payload{Body: body}})
	if err != nil {
		t.Fatalf("tick 1: %v", err)
	}

	var frames []string
	frames = append(frames, out.Packets...)
	loopback := out.Loopback
	for loopback {
		out, err = calc.Process(context.Background(), Input{Loopback: true})
		if err != nil {
			t.Fatalf("streaming tick: %v", err)
		}
		frames = append(frames, out.Packets...)
		loopback = out.Loopback
	}

	if len(frames) < 2 {
		t.Fatalf("expected at least 2 SSE frames, got %d: %v", len(frames), frames)
	}
	if frames[len(frames)-1] != "data: [DONE]\n\n" {
		t.Errorf("last frame = %q, want data: [DONE]", frames[len(frames)-1])
	}
	if !strings.Contains(frames[len(frames)-2], `"finish_reason":"stop"`) {
		t.Errorf("second-to-last frame = %q, want finish_reason stop", frames[len(frames)-2])
	}
	for _, f := range frames[:len(frames)-2] {
		if strings.Contains(f, `"finish_reason":"stop"`) {
			t.Errorf("non-terminal frame has finish_reason stop: %q", f)
		}
	}
	if calc.State() != Done {
		t.Errorf("State() = %v, want Done", calc.State())
	}
}

func TestCalculator_BadRequestNoEnvelope(t *testing.T) {
	pl := &fakePipeline{tokenizer: fakeTokenizer{}, handle: &fakeHandle{}}
	registry := newRegistry(t, "n", pl)

	calc, err := Open("n", registry)
	if err != nil {
		t.Fatal(err)
	}
	defer calc.Close()

	body := []byte(`{"messages":[{"role":"user","content":"x"}]}`)
	out, err := calc.Process(context.Background(), Input{Payload: &Payload{Body: body}})
	if err == nil {
		t.Fatal("expected an error for a missing model field")
	}
	if len(out.Packets) != 0 {
		t.Errorf("expected no packets on decode failure, got %v", out.Packets)
	}
}

func TestCalculator_NotFoundNode(t *testing.T) {
	registry := resources.NewMap()
	if _, err := Open("missing", registry); err == nil {
		t.Fatal("expected a NotFound error")
	}
}

func TestCalculator_DoubleSubmissionIsFatal(t *testing.T) {
	pl := &fakePipeline{
		tokenizer: fakeTokenizer{vocab: []string{"hel", "lo ", "world"}},
		handle:    &fakeHandle{sequences: [][]int64{{0, 1, 2}}},
	}
	registry := newRegistry(t, "n", pl)

	calc, err := Open("n", registry)
	if err != nil {
		t.Fatal(err)
	}
	defer calc.Close()

	body := []byte(`{"model":"m","messages":[{"role":"user","content":"hi"}],"stream":true}`)
	if _, err := calc.Process(context.Background(), Input{Payload: &Payload{Body: body}}); err != nil {
		t.Fatalf("first submit: %v", err)
	}

	if _, err := calc.Process(context.Background(), Input{Payload: &Payload{Body: body}}); err == nil {
		t.Fatal("expected an invariant violation on double submission")
	}
}
