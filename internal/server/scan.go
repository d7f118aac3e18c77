package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"talentlens/internal/talent"
)

const (
	defaultScanProfiles = 5
	defaultScanImages   = 3
)

type scanRequest struct {
	Keyword     string `json:"keyword"`
	NumProfiles int    `json:"num_profiles"`
	NumImages   int    `json:"num_images"`
}

// handleScan runs a keyword scan and streams progress as server-sent
// events: log, result, error, and a terminal done.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Keyword = strings.TrimSpace(req.Keyword)
	if req.Keyword == "" {
		respondError(w, http.StatusBadRequest, "keyword is required")
		return
	}
	if req.NumProfiles <= 0 {
		req.NumProfiles = defaultScanProfiles
	}
	if req.NumImages <= 0 {
		req.NumImages = defaultScanImages
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	em := newSSEEmitter()
	go s.scanner.Scan(r.Context(), req.Keyword, req.NumProfiles, req.NumImages, em)

	for ev := range em.events {
		data, err := json.Marshal(ev.data)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.name, data)
		flusher.Flush()
	}

	s.setLastScan(em.collected())
}

type sseEvent struct {
	name string
	data any
}

// sseEmitter bridges the scanner's progress callbacks onto an event channel
// the handler drains. Done closes the channel, so the stream always
// terminates, error or not.
type sseEmitter struct {
	events chan sseEvent

	mu      sync.Mutex
	results []*talent.Candidate
}

func newSSEEmitter() *sseEmitter {
	return &sseEmitter{events: make(chan sseEvent, 16)}
}

func (e *sseEmitter) Log(msg string) {
	e.events <- sseEvent{name: "log", data: map[string]string{"message": msg}}
}

func (e *sseEmitter) Result(v any) {
	if cand, ok := v.(*talent.Candidate); ok {
		e.mu.Lock()
		e.results = append(e.results, cand)
		e.mu.Unlock()
	}
	e.events <- sseEvent{name: "result", data: v}
}

func (e *sseEmitter) Error(msg string) {
	e.events <- sseEvent{name: "error", data: map[string]string{"error": msg}}
}

func (e *sseEmitter) Done() {
	e.events <- sseEvent{name: "done", data: map[string]string{"status": "complete"}}
	close(e.events)
}

func (e *sseEmitter) collected() []*talent.Candidate {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.results
}
