package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/yourusername/gofibs/pkg/session"
)

// SSELine is the payload of a "line" event.
type SSELine struct {
	Number int    `json:"number"`
	Code   string `json:"code"`
	Error  string `json:"error,omitempty"`
}

// ReplaySSE handles Server-Sent Events for streaming replay progress.
// POST /api/replay/stream with a ReplayRequest body. Every recognized line
// produces a "line" event, followed by one "result" and one "done" event.
func (h *Handlers) ReplaySSE(w http.ResponseWriter, r *http.Request) {
	var req ReplayRequest
	if !decode(w, r, maxLogBody, &req) {
		return
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeSSEError(w, "streaming not supported")
		return
	}

	if err := h.acquireSlow(r.Context()); err != nil {
		writeSSEError(w, "server busy")
		return
	}
	defer h.releaseSlow()

	progress := func(l session.Line) {
		if !l.Parsed {
			return
		}
		ev := SSELine{Number: l.Number, Code: l.Code.String()}
		if l.Err != nil {
			ev.Error = l.Err.Error()
		}
		writeSSEEvent(w, "line", ev)
		flusher.Flush()
	}

	resp, err := h.replay(r.Context(), req, progress)
	if err != nil {
		writeSSEError(w, "replay failed: "+err.Error())
		return
	}

	writeSSEEvent(w, "result", resp)
	flusher.Flush()

	// Send done event to signal completion
	writeSSEEvent(w, "done", nil)
	flusher.Flush()
}

// writeSSEEvent writes a Server-Sent Event to the response.
func writeSSEEvent(w http.ResponseWriter, event string, data interface{}) {
	fmt.Fprintf(w, "event: %s\n", event)
	if data != nil {
		jsonData, _ := json.Marshal(data)
		fmt.Fprintf(w, "data: %s\n", jsonData)
	}
	fmt.Fprintf(w, "\n")
}

// writeSSEError writes an error event and closes the stream.
func writeSSEError(w http.ResponseWriter, message string) {
	writeSSEEvent(w, "error", map[string]string{"error": message})
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}
