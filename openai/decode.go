package openai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/vajain-rhods/openvino-model-server/api"
)

// DecodeChatCompletionRequest parses and validates a JSON chat-completions
// request body and produces a normalized api.Request plus its derived
// api.GenerationConfig. It is pure: no I/O, no shared state, and it never
// mutates its input.
//
// Decode failures are always *api.StatusError with Kind api.BadRequest.
func DecodeChatCompletionRequest(body []byte) (*api.Request, api.GenerationConfig, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, api.GenerationConfig{}, api.NewStatusError(api.BadRequest, "request body is not a JSON object: %v", err)
	}
	return decodeDocument(doc)
}

func decodeDocument(doc map[string]any) (*api.Request, api.GenerationConfig, error) {
	req := &api.Request{}

	model, ok := doc["model"]
	if !ok {
		return nil, api.GenerationConfig{}, api.NewStatusError(api.BadRequest, "missing required field %q", "model")
	}
	modelStr, ok := model.(string)
	if !ok {
		return nil, api.GenerationConfig{}, api.NewStatusError(api.BadRequest, "field %q must be a string", "model")
	}
	req.Model = modelStr

	messages, err := decodeMessages(doc["messages"])
	if err != nil {
		return nil, api.GenerationConfig{}, err
	}
	req.Messages = messages

	if v, ok := doc["stream"]; ok {
		b, ok := v.(bool)
		if !ok {
			return nil, api.GenerationConfig{}, api.NewStatusError(api.BadRequest, "field %q must be a boolean", "stream")
		}
		req.Stream = b
	}

	if err := decodeOptionalInt(doc, "max_tokens", &req.MaxTokens, func(n int) error {
		if n <= 0 {
			return fmt.Errorf("field %q must be > 0", "max_tokens")
		}
		return nil
	}); err != nil {
		return nil, api.GenerationConfig{}, api.NewStatusError(api.BadRequest, "%v", err)
	}

	if err := decodeOptionalFloat(doc, "temperature", &req.Temperature, func(f float64) error {
		if f < 0 || f > 2 {
			return fmt.Errorf("field %q must be within [0,2]", "temperature")
		}
		return nil
	}); err != nil {
		return nil, api.GenerationConfig{}, api.NewStatusError(api.BadRequest, "%v", err)
	}

	if err := decodeOptionalFloat(doc, "top_p", &req.TopP, func(f float64) error {
		if f < 0 || f > 1 {
			return fmt.Errorf("field %q must be within [0,1]", "top_p")
		}
		return nil
	}); err != nil {
		return nil, api.GenerationConfig{}, api.NewStatusError(api.BadRequest, "%v", err)
	}

	if err := decodeOptionalInt(doc, "top_k", &req.TopK, nil); err != nil {
		return nil, api.GenerationConfig{}, api.NewStatusError(api.BadRequest, "%v", err)
	}
	if err := decodeOptionalFloat(doc, "repetition_penalty", &req.RepetitionPenalty, nil); err != nil {
		return nil, api.GenerationConfig{}, api.NewStatusError(api.BadRequest, "%v", err)
	}
	if err := decodeOptionalFloat(doc, "length_penalty", &req.LengthPenalty, nil); err != nil {
		return nil, api.GenerationConfig{}, api.NewStatusError(api.BadRequest, "%v", err)
	}
	if err := decodeOptionalFloat(doc, "diversity_penalty", &req.DiversityPenalty, nil); err != nil {
		return nil, api.GenerationConfig{}, api.NewStatusError(api.BadRequest, "%v", err)
	}
	if err := decodeOptionalInt(doc, "seed", &req.Seed, nil); err != nil {
		return nil, api.GenerationConfig{}, api.NewStatusError(api.BadRequest, "%v", err)
	}
	if err := decodeOptionalInt(doc, "best_of", &req.BestOf, nil); err != nil {
		return nil, api.GenerationConfig{}, api.NewStatusError(api.BadRequest, "%v", err)
	}
	if err := decodeOptionalInt(doc, "n", &req.N, nil); err != nil {
		return nil, api.GenerationConfig{}, api.NewStatusError(api.BadRequest, "%v", err)
	}

	if v, ok := doc["ignore_eos"]; ok {
		b, ok := v.(bool)
		if !ok {
			return nil, api.GenerationConfig{}, api.NewStatusError(api.BadRequest, "field %q must be a boolean", "ignore_eos")
		}
		req.IgnoreEOS = &b
	}

	return req, api.DeriveGenerationConfig(req), nil
}

func decodeMessages(v any) ([]api.Message, error) {
	if v == nil {
		return nil, api.NewStatusError(api.BadRequest, "missing required field %q", "messages")
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, api.NewStatusError(api.BadRequest, "field %q must be an array", "messages")
	}
	if len(arr) == 0 {
		return nil, api.NewStatusError(api.BadRequest, "field %q must be non-empty", "messages")
	}

	out := make([]api.Message, 0, len(arr))
	for i, entry := range arr {
		obj, ok := entry.(map[string]any)
		if !ok {
			return nil, api.NewStatusError(api.BadRequest, "messages[%d] must be an object", i)
		}
		msg := make(api.Message, len(obj))
		for k, val := range obj {
			s, ok := val.(string)
			if !ok {
				return nil, api.NewStatusError(api.BadRequest, "messages[%d].%s must be a string", i, k)
			}
			msg[k] = s
		}
		out = append(out, msg)
	}

	if _, ok := out[0]["content"]; !ok {
		return nil, api.NewStatusError(api.BadRequest, "messages[0] must have a %q field", "content")
	}

	return out, nil
}

// isFloatLiteral reports whether a JSON number's literal text is classified
// as floating-point rather than integer, matching the distinction a JSON
// parser that keeps separate int/double number kinds would draw: a decimal
// point or exponent makes it a double even when its value happens to be a
// whole number (e.g. "1.0" or "1e2").
func isFloatLiteral(s json.Number) bool {
	return strings.ContainsAny(string(s), ".eE")
}

// decodeOptionalInt reads an optional integer field. It rejects a literal
// classified as floating-point ("1.0", "1e1") even when its value is
// integral, so that int- and float-typed fields stay disjoint the way the
// underlying engine's request parser treats them.
func decodeOptionalInt(doc map[string]any, key string, dst **int, validate func(int) error) error {
	v, ok := doc[key]
	if !ok {
		return nil
	}
	num, ok := v.(json.Number)
	if !ok || isFloatLiteral(num) {
		return fmt.Errorf("field %q must be an integer", key)
	}
	i64, err := strconv.ParseInt(string(num), 10, 64)
	if err != nil {
		return fmt.Errorf("field %q must be an integer", key)
	}
	n := int(i64)
	if validate != nil {
		if err := validate(n); err != nil {
			return err
		}
	}
	*dst = &n
	return nil
}

// decodeOptionalFloat reads an optional floating-point field. It requires
// the literal to be classified as floating-point ("1.0", not "1"), so an
// integer-shaped value is rejected the same way the underlying engine's
// request parser rejects it for a double-typed field.
func decodeOptionalFloat(doc map[string]any, key string, dst **float64, validate func(float64) error) error {
	v, ok := doc[key]
	if !ok {
		return nil
	}
	num, ok := v.(json.Number)
	if !ok || !isFloatLiteral(num) {
		return fmt.Errorf("field %q must be a floating-point number", key)
	}
	f, err := strconv.ParseFloat(string(num), 64)
	if err != nil {
		return fmt.Errorf("field %q must be a floating-point number", key)
	}
	if validate != nil {
		if err := validate(f); err != nil {
			return err
		}
	}
	*dst = &f
	return nil
}
