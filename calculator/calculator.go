package calculator

import (
	"context"
	"errors"
	"time"

	"github.com/vajain-rhods/openvino-model-server/api"
	"github.com/vajain-rhods/openvino-model-server/detok"
	"github.com/vajain-rhods/openvino-model-server/openai"
	"github.com/vajain-rhods/openvino-model-server/pipeline"
	"github.com/vajain-rhods/openvino-model-server/resources"
)

// Calculator is one request's owning state-machine instance. It is driven
// serially by the host: all of its fields are touched only from its own
// ticks, never concurrently.
type Calculator struct {
	bundle resources.Bundle
	state  State
	data   CalculatorState
}

// Open binds the calculator to the named node instance's resource bundle.
// NotFound propagates verbatim from the registry lookup.
func Open(nodeName string, registry *resources.Map) (*Calculator, error) {
	bundle, err := registry.Lookup(nodeName)
	if err != nil {
		return nil, err
	}
	return &Calculator{bundle: bundle, state: Uninitialized}, nil
}

// Close releases the calculator's handle and detokenizer. What the engine
// does with an abandoned handle is up to the engine; this only drops the
// calculator's own references.
func (c *Calculator) Close() {
	c.data.Handle = nil
	c.data.Detok = nil
}

// State reports the calculator's current lifecycle tag.
func (c *Calculator) State() State {
	return c.state
}

// Request returns the decoded request, or nil before the first successful
// tick. The host uses this only to pick unary vs. SSE response headers;
// the core never mutates it after decode.
func (c *Calculator) Request() *api.Request {
	return c.data.Request
}

// Process runs one tick: it submits the request on the first call, and on
// that call and every later one pumps the unary or streaming branch.
func (c *Calculator) Process(ctx context.Context, in Input) (Output, error) {
	if in.Payload == nil && !in.Loopback {
		return Output{}, nil
	}

	if c.state == Uninitialized {
		if in.Payload == nil {
			return Output{}, nil
		}
		if err := c.submit(in.Payload); err != nil {
			return Output{}, err
		}
	} else if in.Payload != nil {
		return Output{}, api.NewStatusError(api.InvariantViolation, "calculator: request payload delivered to an already-submitted instance")
	}

	switch c.state {
	case PumpingUnary:
		return c.processUnary(ctx)
	case PumpingStreaming:
		return c.processStreaming(ctx)
	case Done:
		return Output{}, nil
	default:
		return Output{}, api.NewStatusError(api.InvariantViolation, "calculator: unexpected state %s after submit", c.state)
	}
}

// submit implements the submission step and moves the state from
// Uninitialized straight to PumpingUnary or PumpingStreaming.
func (c *Calculator) submit(payload *Payload) error {
	if c.data.Request != nil || c.data.Handle != nil || c.data.Detok != nil {
		return api.NewStatusError(api.InvariantViolation, "calculator: double submission")
	}

	req, genCfg, err := openai.DecodeChatCompletionRequest(payload.Body)
	if err != nil {
		return err
	}

	pcfg := toPipelineConfig(genCfg)
	handle, err := c.bundle.Pipeline.AddRequest(context.Background(), req.Prompt(), pcfg)
	if err != nil {
		return api.NewStatusError(api.EngineFailure, "calculator: add_request failed: %v", err)
	}
	if c.bundle.Notifier != nil {
		c.bundle.Notifier()
	}

	c.data.Request = req
	c.data.Handle = handle
	c.data.Detok = detok.New(c.bundle.Pipeline.Tokenizer())
	c.data.Created = time.Now().Unix()

	if req.Stream {
		c.state = PumpingStreaming
	} else {
		c.state = PumpingUnary
	}
	return nil
}

// processUnary runs a blocking read_all and emits exactly one envelope
// before transitioning to Done.
func (c *Calculator) processUnary(ctx context.Context) (Output, error) {
	if c.data.Handle == nil {
		return Output{}, api.NewStatusError(api.InvariantViolation, "calculator: unary pump with no handle")
	}

	outputs, err := c.data.Handle.ReadAll(ctx)
	if err != nil {
		return Output{}, api.NewStatusError(api.EngineFailure, "calculator: read_all failed: %v", err)
	}
	if len(outputs) == 0 {
		return Output{}, api.NewStatusError(api.InvariantViolation, "calculator: read_all returned zero sequences")
	}

	tokenizer := c.bundle.Pipeline.Tokenizer()
	completions := make([]openai.Completion, len(outputs))
	for i, seq := range outputs {
		text, err := tokenizer.Decode(ctx, seq.Tokens)
		if err != nil {
			return Output{}, api.NewStatusError(api.EngineFailure, "calculator: tokenizer decode failed: %v", err)
		}
		completions[i] = openai.Completion{Content: text}
	}

	envelope := openai.NewUnaryEnvelope(c.data.Request.Model, c.data.Created, completions)
	packet, err := openai.Marshal(envelope)
	if err != nil {
		return Output{}, api.NewStatusError(api.EngineFailure, "calculator: marshal unary envelope: %v", err)
	}

	c.data.SeqCounter++
	c.state = Done
	return Output{Packets: []string{string(packet)}}, nil
}

// processStreaming pumps one token out of the handle per tick, feeding it
// through the detokenizer and emitting a content chunk whenever the
// detokenizer judges a boundary safe, until the handle reports Finished.
// Streaming requires the handle to hold exactly one sequence; this is
// enforced by the read below rather than checked separately here, since
// the handle is in the best position to know how many sequences it holds.
func (c *Calculator) processStreaming(ctx context.Context) (Output, error) {
	if c.data.Handle == nil {
		return Output{}, api.NewStatusError(api.InvariantViolation, "calculator: streaming pump with no handle")
	}

	if c.data.Handle.Status() == pipeline.Finished {
		stop := openai.NewStopChunk(c.data.Request.Model, c.data.Created)
		stopJSON, err := openai.Marshal(stop)
		if err != nil {
			return Output{}, api.NewStatusError(api.EngineFailure, "calculator: marshal stop chunk: %v", err)
		}

		c.data.SeqCounter++
		c.state = Done
		return Output{Packets: []string{openai.Frame(stopJSON), openai.DoneFrame}}, nil
	}

	token, ok, err := c.data.Handle.ReadOne(ctx)
	if err != nil {
		var se *api.StatusError
		if errors.As(err, &se) && se.Kind == api.InvariantViolation {
			return Output{}, se
		}
		return Output{}, api.NewStatusError(api.EngineFailure, "calculator: read_one failed: %v", err)
	}

	if !ok {
		return Output{Loopback: true}, nil
	}

	chunkText, emitted, err := c.data.Detok.Put(ctx, token)
	if err != nil {
		return Output{}, api.NewStatusError(api.EngineFailure, "calculator: detokenize failed: %v", err)
	}
	if !emitted {
		return Output{Loopback: true}, nil
	}

	chunk := openai.NewContentChunk(c.data.Request.Model, c.data.Created, chunkText)
	chunkJSON, err := openai.Marshal(chunk)
	if err != nil {
		return Output{}, api.NewStatusError(api.EngineFailure, "calculator: marshal content chunk: %v", err)
	}

	c.data.SeqCounter++
	return Output{Packets: []string{openai.Frame(chunkJSON)}, Loopback: true}, nil
}
