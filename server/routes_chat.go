package server

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vajain-rhods/openvino-model-server/api"
	"github.com/vajain-rhods/openvino-model-server/calculator"
	"github.com/vajain-rhods/openvino-model-server/openai"
)

// ChatCompletionsHandler drives one calculator instance end to end: Open,
// repeated Process ticks, Close, writing either the unary envelope or an
// SSE stream back to the client as the core produces packets. This
// handler contains no decode/serialize/state-machine logic of its own;
// that all lives in openai and calculator.
func (s *Server) ChatCompletionsHandler(c *gin.Context) {
	requestID := uuid.NewString()
	log := slog.With("request_id", requestID)

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		log.Error("reading request body", "error", err)
		writeError(c, api.NewStatusError(api.BadRequest, "could not read request body"))
		return
	}

	calc, err := calculator.Open(s.nodeName, s.registry)
	if err != nil {
		log.Error("opening calculator", "error", err)
		writeError(c, asStatusError(err))
		return
	}
	defer calc.Close()

	ctx := c.Request.Context()

	out, err := calc.Process(ctx, calculator.Input{Payload: &calculator.Payload{Body: body}})
	if err != nil {
		log.Error("processing request", "error", err)
		writeError(c, asStatusError(err))
		return
	}

	req := calc.Request()
	if req != nil && req.Stream {
		s.streamChat(c, calc, log, out)
		return
	}

	s.unaryChat(c, out)
}

func (s *Server) unaryChat(c *gin.Context, out calculator.Output) {
	if len(out.Packets) != 1 {
		writeError(c, api.NewStatusError(api.InvariantViolation, "unary response produced %d packets, expected 1", len(out.Packets)))
		return
	}
	c.Data(http.StatusOK, "application/json", []byte(out.Packets[0]))
}

func (s *Server) streamChat(c *gin.Context, calc *calculator.Calculator, log *slog.Logger, first calculator.Output) {
	w := c.Writer
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	writePackets(w, first.Packets)
	w.Flush()

	loopback := first.Loopback
	ctx := c.Request.Context()
	for loopback {
		out, err := calc.Process(ctx, calculator.Input{Loopback: true})
		if err != nil {
			log.Error("streaming tick failed", "error", err)
			return
		}
		writePackets(w, out.Packets)
		w.Flush()
		loopback = out.Loopback
	}
}

func writePackets(w io.Writer, packets []string) {
	for _, p := range packets {
		if _, err := io.WriteString(w, p); err != nil {
			return
		}
	}
}

func writeError(c *gin.Context, err *api.StatusError) {
	code, body := openai.NewErrorResponse(err)
	c.JSON(code, body)
}

func asStatusError(err error) *api.StatusError {
	var se *api.StatusError
	if errors.As(err, &se) {
		return se
	}
	return api.NewStatusError(api.EngineFailure, "%v", err)
}
