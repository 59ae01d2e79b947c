package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/session"
)

// streamEvents writes a session event channel to the response as
// server-sent events. Returns when the channel closes or the client
// disconnects; the scheduler notices the disconnect through the
// request context.
func streamEvents(w http.ResponseWriter, r *http.Request, events <-chan session.Event) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case ev, open := <-events:
			if !open {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				zap.L().Error("marshal session event", zap.Error(err))
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
			flusher.Flush()
		case <-r.Context().Done():
			// Drain so the scheduler goroutine can finish emitting.
			for range events {
			}
			return
		}
	}
}
