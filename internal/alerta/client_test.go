package alerta

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"tgalert/internal/action"
	logx "tgalert/pkg/logx"
)

type recorded struct {
	method string
	path   string
	auth   string
	body   map[string]any
}

type fakeAlerta struct {
	mu    sync.Mutex
	calls []recorded
}

func (f *fakeAlerta) record(r *http.Request) recorded {
	rec := recorded{method: r.Method, path: r.URL.Path, auth: r.Header.Get("Authorization")}
	if b, _ := io.ReadAll(r.Body); len(b) > 0 {
		_ = json.Unmarshal(b, &rec.body)
	}
	f.mu.Lock()
	f.calls = append(f.calls, rec)
	f.mu.Unlock()
	return rec
}

func newFakeAlerta(t *testing.T) (*fakeAlerta, *httptest.Server) {
	t.Helper()
	f := &fakeAlerta{}
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /api/alert/{id}/status", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		_, _ = io.WriteString(w, `{"status":"ok"}`)
	})
	mux.HandleFunc("GET /api/alert/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		if r.PathValue("id") == "missing" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"status":"error","message":"not found"}`)
			return
		}
		_, _ = io.WriteString(w, `{"status":"ok","alert":{"id":"`+r.PathValue("id")+`","environment":"Production","resource":"web01","event":"HttpError","severity":"major","createTime":"2024-05-01T10:00:00.000Z"}}`)
	})
	mux.HandleFunc("POST /api/blackout", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"status":"ok","id":"b1"}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return f, srv
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := New(Config{URL: srv.URL + "/api/", APIKey: "secret"}, logx.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNewRequiresURL(t *testing.T) {
	t.Parallel()
	if _, err := New(Config{}, logx.Nop()); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("New = %v, want ErrNotConfigured", err)
	}
	if _, err := New(Config{URL: "not a url"}, logx.Nop()); err == nil {
		t.Fatal("expected invalid url error")
	}
}

func TestHandleActionStatus(t *testing.T) {
	t.Parallel()
	tests := []struct {
		kind       action.Kind
		wantStatus string
	}{
		{kind: action.Ack, wantStatus: "ack"},
		{kind: action.Close, wantStatus: "closed"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(string(tt.kind), func(t *testing.T) {
			t.Parallel()
			f, srv := newFakeAlerta(t)
			c := newTestClient(t, srv)

			msg, err := c.HandleAction(context.Background(), action.Action{
				Kind: tt.kind, AlertID: "0123456789abcdef", User: "jdoe",
			})
			if err != nil {
				t.Fatalf("HandleAction: %v", err)
			}
			if msg != string(tt.kind)+": 01234567" {
				t.Fatalf("msg = %q", msg)
			}
			if len(f.calls) != 1 {
				t.Fatalf("calls = %d, want 1", len(f.calls))
			}
			got := f.calls[0]
			if got.method != http.MethodPut || got.path != "/api/alert/0123456789abcdef/status" {
				t.Fatalf("call = %s %s", got.method, got.path)
			}
			if got.auth != "Key secret" {
				t.Fatalf("Authorization = %q", got.auth)
			}
			if got.body["status"] != tt.wantStatus {
				t.Fatalf("status = %v, want %s", got.body["status"], tt.wantStatus)
			}
			if text, _ := got.body["text"].(string); !strings.Contains(text, "jdoe") {
				t.Fatalf("text = %q, want user mentioned", text)
			}
		})
	}
}

func TestHandleActionBlackout(t *testing.T) {
	t.Parallel()
	f, srv := newFakeAlerta(t)
	c := newTestClient(t, srv)

	if _, err := c.HandleAction(context.Background(), action.Action{Kind: action.Blackout, AlertID: "42"}); err != nil {
		t.Fatalf("HandleAction: %v", err)
	}
	if len(f.calls) != 2 {
		t.Fatalf("calls = %d, want 2", len(f.calls))
	}
	if f.calls[0].method != http.MethodGet || f.calls[1].method != http.MethodPost {
		t.Fatalf("calls = %+v", f.calls)
	}
	b := f.calls[1].body
	if b["environment"] != "Production" || b["resource"] != "web01" || b["event"] != "HttpError" {
		t.Fatalf("blackout body = %v", b)
	}
}

func TestHandleActionAPIError(t *testing.T) {
	t.Parallel()
	_, srv := newFakeAlerta(t)
	c := newTestClient(t, srv)

	_, err := c.HandleAction(context.Background(), action.Action{Kind: action.Blackout, AlertID: "missing"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %T %v, want *APIError", err, err)
	}
	if apiErr.Status != http.StatusNotFound || apiErr.Message != "not found" {
		t.Fatalf("APIError = %+v", apiErr)
	}
}

func TestHandleActionUnknownKind(t *testing.T) {
	t.Parallel()
	_, srv := newFakeAlerta(t)
	c := newTestClient(t, srv)
	_, err := c.HandleAction(context.Background(), action.Action{Kind: "snooze", AlertID: "1"})
	if !errors.Is(err, action.ErrUnknownCommand) {
		t.Fatalf("err = %v, want ErrUnknownCommand", err)
	}
}
