package connectivity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

func TestStatic(t *testing.T) {
	if !Static(true).IsOnline(context.Background()) {
		t.Error("Static(true) should be online")
	}
	if Static(false).IsOnline(context.Background()) {
		t.Error("Static(false) should be offline")
	}
}

func TestProbe_AnyResponseIsOnline(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusNotFound, http.StatusServiceUnavailable} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodHead {
				t.Errorf("expected HEAD, got %s", r.Method)
			}
			w.WriteHeader(status)
		}))

		p := NewProbe(server.URL, time.Second, 0, zaptest.NewLogger(t))
		if !p.IsOnline(context.Background()) {
			t.Errorf("status %d should count as online", status)
		}
		server.Close()
	}
}

func TestProbe_TransportFailureIsOffline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	p := NewProbe(url, time.Second, 0, zaptest.NewLogger(t))
	if p.IsOnline(context.Background()) {
		t.Error("closed server should count as offline")
	}
}

func TestProbe_CachesWithinMaxAge(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer server.Close()

	p := NewProbe(server.URL, time.Second, time.Hour, zaptest.NewLogger(t))
	for i := 0; i < 3; i++ {
		if !p.IsOnline(context.Background()) {
			t.Fatal("expected online")
		}
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("expected a single probe within max age, got %d", got)
	}

	if !p.Refresh(context.Background()) {
		t.Error("Refresh should report the probe result")
	}
	if got := atomic.LoadInt32(&hits); got != 2 {
		t.Errorf("Refresh should always probe, got %d hits", got)
	}
}
