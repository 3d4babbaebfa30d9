package openai

import "fmt"

// DoneFrame is the terminal SSE sentinel emitted after the final stop
// chunk.
const DoneFrame = "data: [DONE]\n\n"

// Frame wraps a JSON payload as an SSE message: "data: " + json + "\n\n".
func Frame(payload []byte) string {
	return fmt.Sprintf("data: %s\n\n", payload)
}
