package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/yourusername/awsim/pkg/league"
)

// maxStreamInterval caps the delay between streamed fixtures.
const maxStreamInterval = 10 * time.Second

// sseStream writes Server-Sent Events and flushes after each one.
type sseStream struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func newSSEStream(w http.ResponseWriter) (*sseStream, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, false
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	return &sseStream{w: w, flusher: flusher}, true
}

// send writes one event. id is omitted when empty; data is omitted when nil.
func (s *sseStream) send(event, id string, data interface{}) error {
	if id != "" {
		fmt.Fprintf(s.w, "id: %s\n", id)
	}
	fmt.Fprintf(s.w, "event: %s\n", event)
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("encode %s event: %w", event, err)
		}
		fmt.Fprintf(s.w, "data: %s\n", b)
	}
	if _, err := fmt.Fprint(s.w, "\n"); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// parseInterval reads the interval_ms query value. Empty means no delay;
// values above maxStreamInterval are capped.
func parseInterval(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	ms, err := strconv.Atoi(s)
	if err != nil || ms < 0 {
		return 0, fmt.Errorf("interval_ms must be a non-negative integer, got %q", s)
	}
	return min(time.Duration(ms)*time.Millisecond, maxStreamInterval), nil
}

// LeagueSSE streams the league bracket one fixture at a time, then the
// final standings.
// GET /api/league/stream?interval_ms=...
func (h *Handlers) LeagueSSE(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	interval, err := parseInterval(r.URL.Query().Get("interval_ms"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_INTERVAL")
		return
	}
	stream, ok := newSSEStream(w)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported", "NO_STREAMING")
		return
	}

	for i, f := range league.Bracket(h.table) {
		if i > 0 && interval > 0 {
			select {
			case <-r.Context().Done():
				return
			case <-time.After(interval):
			}
		}
		if err := stream.send("fixture", strconv.Itoa(f.Number), f); err != nil {
			return
		}
	}
	if err := stream.send("standings", "", league.Standings(h.table)); err != nil {
		return
	}
	stream.send("done", "", nil)
}
