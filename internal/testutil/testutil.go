// Package testutil provides HTTP test servers, a stub fetcher and golden JSON
// payloads shared by package tests.
package testutil

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/finops-claw-gang/api-parity/internal/connectors/endpoint"
)

// Route is a canned HTTP answer.
type Route struct {
	Status int
	Body   string
}

// JSONServer starts a server that answers every request with status and body.
// The server is closed when the test ends.
func JSONServer(t testing.TB, status int, body string) *httptest.Server {
	t.Helper()
	return RouteServer(t, map[string]Route{"/": {Status: status, Body: body}})
}

// RouteServer starts a server answering by exact path; "/" is the fallback
// for unknown paths. Without a fallback unknown paths get 404.
func RouteServer(t testing.TB, routes map[string]Route) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route, ok := routes[r.URL.Path]
		if !ok {
			route, ok = routes["/"]
		}
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(route.Status)
		_, _ = w.Write([]byte(route.Body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

// ClosedURL returns the URL of a server that is no longer listening, so any
// request to it fails at the transport level.
func ClosedURL(t testing.TB) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	u := srv.URL
	srv.Close()
	return u
}

// StubFetcher answers Get calls from canned responses keyed by URL.
type StubFetcher struct {
	Responses map[string]*endpoint.Response
	Errors    map[string]error

	mu    sync.Mutex
	calls []StubCall
}

// StubCall records one Get invocation.
type StubCall struct {
	URL     string
	Headers map[string]string
}

// Get returns the canned response or error for url.
func (s *StubFetcher) Get(_ context.Context, url string, headers map[string]string) (*endpoint.Response, error) {
	s.mu.Lock()
	s.calls = append(s.calls, StubCall{URL: url, Headers: headers})
	s.mu.Unlock()

	if err, ok := s.Errors[url]; ok {
		return nil, err
	}
	if resp, ok := s.Responses[url]; ok {
		return resp, nil
	}
	return nil, fmt.Errorf("stub: no response for %s", url)
}

// Calls returns the recorded invocations.
func (s *StubFetcher) Calls() []StubCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]StubCall, len(s.calls))
	copy(out, s.calls)
	return out
}

// OK builds a 200 response with body.
func OK(body string) *endpoint.Response {
	return &endpoint.Response{StatusCode: http.StatusOK, Elapsed: 25 * time.Millisecond, Body: []byte(body)}
}

// Status builds a response with the given status and body.
func Status(code int, body string) *endpoint.Response {
	return &endpoint.Response{StatusCode: code, Elapsed: 10 * time.Millisecond, Body: []byte(body)}
}

// GoldenDir returns the absolute path to the golden payload directory.
func GoldenDir() string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(filename), "testdata", "golden")
}

// Golden reads a golden payload by file name.
func Golden(t testing.TB, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(GoldenDir(), name))
	if err != nil {
		t.Fatalf("read golden %s: %v", name, err)
	}
	return data
}
