package cloudfiles_test

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/Ratio1/cloudfiles_sdk_go/pkg/cloudfiles"
)

// stubTransport answers with canned responses and records what it was sent.
type stubTransport struct {
	mu       sync.Mutex
	storage  func(*cloudfiles.Request) (*cloudfiles.Response, error)
	cdn      func(*cloudfiles.Request) (*cloudfiles.Response, error)
	requests []*cloudfiles.Request
}

func (s *stubTransport) SubmitStorage(_ context.Context, req *cloudfiles.Request) (*cloudfiles.Response, error) {
	s.record(req)
	return s.storage(req)
}

func (s *stubTransport) SubmitCDN(_ context.Context, req *cloudfiles.Request) (*cloudfiles.Response, error) {
	s.record(req)
	return s.cdn(req)
}

func (s *stubTransport) record(req *cloudfiles.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
}

func textResponse(code int, body string) *cloudfiles.Response {
	return &cloudfiles.Response{
		StatusCode: code,
		Header:     make(http.Header),
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func statusError(code int) error {
	return &cloudfiles.HTTPError{Method: http.MethodGet, URL: "stub://", StatusCode: code}
}
