package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestRequestIDMiddleware_GeneratesID(t *testing.T) {
	var capturedID string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedID = GetRequestID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	responseID := w.Header().Get(RequestIDHeader)
	if responseID == "" {
		t.Fatal("expected X-Request-ID header in response")
	}

	parsed, err := uuid.Parse(responseID)
	if err != nil {
		t.Fatalf("expected UUID, got %q: %v", responseID, err)
	}
	if parsed.Version() != 4 {
		t.Errorf("expected version 4 UUID, got version %d", parsed.Version())
	}

	if capturedID != responseID {
		t.Errorf("context ID = %q, response ID = %q", capturedID, responseID)
	}
}

func TestRequestIDMiddleware_ReusesClientID(t *testing.T) {
	clientID := "controlhub-delivery-42"
	var capturedID string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedID = GetRequestID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set(RequestIDHeader, clientID)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if responseID := w.Header().Get(RequestIDHeader); responseID != clientID {
		t.Errorf("response ID = %q, want %q", responseID, clientID)
	}
	if capturedID != clientID {
		t.Errorf("context ID = %q, want %q", capturedID, clientID)
	}
}

func TestRequestIDMiddleware_UniqueIDs(t *testing.T) {
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	ids := make(map[string]bool)
	for i := 0; i < 100; i++ {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		id := w.Header().Get(RequestIDHeader)
		if ids[id] {
			t.Fatalf("duplicate request ID generated: %q", id)
		}
		ids[id] = true
	}
}

func TestGetRequestID_EmptyContext(t *testing.T) {
	if id := GetRequestID(context.Background()); id != "" {
		t.Errorf("expected empty string, got %q", id)
	}
}
