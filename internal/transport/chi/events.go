package chi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/oapi-codegen/runtime"
	"go.uber.org/zap"

	"github.com/kailas-cloud/dinewise/internal/domain/event"
	"github.com/kailas-cloud/dinewise/internal/logger"
)

// keepAliveInterval is how often an idle stream receives a comment line.
var keepAliveInterval = 15 * time.Second

// StreamEvents handles GET /v1/events as a server-sent event stream.
// An optional ?kinds=a,b parameter restricts the stream to the given kinds.
func (s *Server) StreamEvents(w http.ResponseWriter, r *http.Request) {
	filter, err := parseKinds(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, err.Error())
		return
	}

	rc := http.NewResponseController(w)
	// The stream outlives the server write timeout.
	_ = rc.SetWriteDeadline(time.Time{})

	sub := s.svc.Events.Subscribe(filter...)
	defer s.svc.Events.Unsubscribe(sub.ID)

	_, log := logger.With(r.Context(), s.logger, zap.String("subscription", sub.ID))
	log.Debug("Event stream opened")

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		log.Warn("Streaming unsupported", zap.Error(err))
		return
	}

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			log.Debug("Event stream closed by client")
			return
		case e, ok := <-sub.Events:
			if !ok {
				return
			}
			if err := writeEvent(w, e); err != nil {
				log.Warn("Failed to write event", zap.Error(err))
				return
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

func writeEvent(w http.ResponseWriter, e event.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", e.ID, err)
	}
	if _, err := fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", e.ID, e.Kind, data); err != nil {
		return fmt.Errorf("write event %s: %w", e.ID, err)
	}
	return nil
}

func parseKinds(r *http.Request) ([]event.Kind, error) {
	var kinds []string
	if err := runtime.BindQueryParameter("form", false, false, "kinds", r.URL.Query(), &kinds); err != nil {
		return nil, err
	}
	out := make([]event.Kind, 0, len(kinds))
	for _, k := range kinds {
		switch event.Kind(k) {
		case event.KindCostThreshold, event.KindDegradedResult:
			out = append(out, event.Kind(k))
		default:
			return nil, fmt.Errorf("unknown event kind %q", k)
		}
	}
	return out, nil
}
