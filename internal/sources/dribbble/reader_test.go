package dribbble

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"talentlens/internal/retry"
)

func readerResponse(content string) []byte {
	b, _ := json.Marshal(map[string]any{"data": map[string]any{"content": content}})
	return b
}

func newTestReader(t *testing.T, handler http.HandlerFunc) *Reader {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	r := NewReader("test-key", zap.NewNop())
	r.endpoint = srv.URL
	r.policy = retry.Policy{Attempts: 3}
	return r
}

func TestReaderFetch(t *testing.T) {
	long := strings.Repeat("content ", 100)

	var gotAuth, gotEngine, gotTarget string
	r := newTestReader(t, func(w http.ResponseWriter, req *http.Request) {
		gotAuth = req.Header.Get("Authorization")
		gotEngine = req.Header.Get("X-Engine")

		var body map[string]string
		json.NewDecoder(req.Body).Decode(&body)
		gotTarget = body["url"]

		w.Write(readerResponse(long))
	})

	content, err := r.Fetch(context.Background(), "https://dribbble.com/search/fintech")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if content != long {
		t.Fatalf("unexpected content length %d", len(content))
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("unexpected auth header: %q", gotAuth)
	}
	if gotEngine != "browser" {
		t.Fatalf("unexpected engine header: %q", gotEngine)
	}
	if gotTarget != "https://dribbble.com/search/fintech" {
		t.Fatalf("unexpected target: %q", gotTarget)
	}
}

func TestReaderRetriesShortContent(t *testing.T) {
	long := strings.Repeat("content ", 100)

	calls := 0
	r := newTestReader(t, func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			w.Write(readerResponse("too short"))
			return
		}
		w.Write(readerResponse(long))
	})

	content, err := r.Fetch(context.Background(), "https://dribbble.com/janedoe")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if content != long {
		t.Fatal("expected content from the second attempt")
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestReaderGivesUp(t *testing.T) {
	calls := 0
	r := newTestReader(t, func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	})

	if _, err := r.Fetch(context.Background(), "https://dribbble.com/janedoe"); err == nil {
		t.Fatal("expected an error after exhausted attempts")
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}
