package mock_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/Ratio1/cloudfiles_sdk_go/internal/devseed"
	"github.com/Ratio1/cloudfiles_sdk_go/pkg/cloudfiles"
	"github.com/Ratio1/cloudfiles_sdk_go/pkg/cloudfiles/mock"
)

func submit(t *testing.T, m *mock.Mock, method, path string, configure func(*cloudfiles.Request)) (*cloudfiles.Response, error) {
	t.Helper()
	req := cloudfiles.NewRequest(method, path)
	if configure != nil {
		configure(req)
	}
	return m.SubmitStorage(context.Background(), req)
}

func TestMockPutGetObject(t *testing.T) {
	m := mock.New()
	if _, err := submit(t, m, http.MethodPut, "docs", nil); err != nil {
		t.Fatalf("create container: %v", err)
	}

	resp, err := submit(t, m, http.MethodPut, "docs/a%20b.txt", func(r *cloudfiles.Request) {
		r.ContentType = "text/plain"
		r.Header.Set("X-Object-Meta-Owner", "ops")
		r.SetContent(strings.NewReader("hello"), 5, nil)
	})
	if err != nil {
		t.Fatalf("put object: %v", err)
	}
	if resp.StatusCode != http.StatusCreated || resp.Header.Get("ETag") == "" {
		t.Fatalf("unexpected put response: %d %v", resp.StatusCode, resp.Header)
	}

	data, meta, ok := m.Object("docs", "a b.txt")
	if !ok || string(data) != "hello" || meta["owner"] != "ops" {
		t.Fatalf("stored object = %q %v %v", data, meta, ok)
	}

	resp, err = submit(t, m, http.MethodGet, "docs/a%20b.txt", nil)
	if err != nil {
		t.Fatalf("get object: %v", err)
	}
	body, _ := resp.ReadAll()
	if string(body) != "hello" || resp.Header.Get("Content-Type") != "text/plain" {
		t.Fatalf("unexpected get response: %q %v", body, resp.Header)
	}
}

func TestMockReturnsHTTPErrors(t *testing.T) {
	m := mock.New()
	_, err := submit(t, m, http.MethodGet, "missing", nil)
	var httpErr *cloudfiles.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 HTTPError, got %v", err)
	}

	m.FailNext(http.StatusServiceUnavailable)
	_, err = submit(t, m, http.MethodPut, "docs", nil)
	if code, _ := cloudfiles.StatusCode(err); code != http.StatusServiceUnavailable {
		t.Fatalf("expected injected 503, got %v", err)
	}
	if _, err := submit(t, m, http.MethodPut, "docs", nil); err != nil {
		t.Fatalf("failure should apply once: %v", err)
	}
}

func TestMockIfNoneMatch(t *testing.T) {
	m := mock.New()
	submit(t, m, http.MethodPut, "docs", nil)
	put := func(r *cloudfiles.Request) { r.Header.Set("If-None-Match", "*") }
	if _, err := submit(t, m, http.MethodPut, "docs/x", put); err != nil {
		t.Fatalf("first put: %v", err)
	}
	_, err := submit(t, m, http.MethodPut, "docs/x", put)
	if code, _ := cloudfiles.StatusCode(err); code != http.StatusPreconditionFailed {
		t.Fatalf("expected 412, got %v", err)
	}
}

func TestMockListingFormats(t *testing.T) {
	m := mock.New()
	err := m.Seed(&devseed.Seed{Containers: []devseed.ContainerSeed{{
		Name: "photos",
		Objects: []devseed.ObjectSeed{
			{Name: "a.jpg", Text: "a"},
			{Name: "b/c.jpg", Text: "bc"},
			{Name: "b/d.jpg", Text: "bd"},
			{Name: "e.jpg", Text: "e"},
		},
	}}})
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}

	cases := []struct {
		name  string
		query url.Values
		want  string
	}{
		{name: "all", query: nil, want: "a.jpg\nb/c.jpg\nb/d.jpg\ne.jpg\n"},
		{name: "limit", query: url.Values{"limit": {"2"}}, want: "a.jpg\nb/c.jpg\n"},
		{name: "marker", query: url.Values{"marker": {"b/c.jpg"}}, want: "b/d.jpg\ne.jpg\n"},
		{name: "prefix", query: url.Values{"prefix": {"b/"}}, want: "b/c.jpg\nb/d.jpg\n"},
		{name: "delimiter", query: url.Values{"delimiter": {"/"}}, want: "a.jpg\nb/\ne.jpg\n"},
		{name: "path", query: url.Values{"path": {"b"}}, want: "b/c.jpg\nb/d.jpg\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := submit(t, m, http.MethodGet, "photos", func(r *cloudfiles.Request) { r.Query = tc.query })
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			body, _ := resp.ReadAll()
			if string(body) != tc.want {
				t.Fatalf("listing = %q, want %q", body, tc.want)
			}
		})
	}

	resp, err := submit(t, m, http.MethodGet, "photos", func(r *cloudfiles.Request) {
		r.Query = url.Values{"format": {"json"}}
	})
	if err != nil {
		t.Fatalf("json list: %v", err)
	}
	body, _ := resp.ReadAll()
	var records []map[string]any
	if err := json.Unmarshal(body, &records); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if len(records) != 4 || records[1]["name"] != "b/c.jpg" || records[1]["bytes"].(float64) != 2 {
		t.Fatalf("unexpected records: %v", records)
	}
}

func TestMockEmptyListingIsNoContent(t *testing.T) {
	m := mock.New()
	submit(t, m, http.MethodPut, "empty", nil)
	resp, err := submit(t, m, http.MethodGet, "empty", nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
}

func TestMockCDNLifecycle(t *testing.T) {
	m := mock.New()
	ctx := context.Background()

	head := cloudfiles.NewRequest(http.MethodHead, "site")
	if _, err := m.SubmitCDN(ctx, head); err == nil {
		t.Fatalf("expected 404 for unknown container")
	}

	submit(t, m, http.MethodPut, "site", nil)
	publish := cloudfiles.NewRequest(http.MethodPut, "site")
	publish.Header.Set("X-TTL", "900")
	resp, err := m.SubmitCDN(ctx, publish)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if resp.Header.Get("X-CDN-URI") == "" {
		t.Fatalf("publish returned no CDN URI")
	}

	disable := cloudfiles.NewRequest(http.MethodPost, "site")
	disable.Header.Set("X-CDN-Enabled", "False")
	if _, err := m.SubmitCDN(ctx, disable); err != nil {
		t.Fatalf("unpublish: %v", err)
	}
	state, ok := m.CDN("site")
	if !ok || state.Enabled || state.TTL != 900 {
		t.Fatalf("unexpected cdn state: %#v %v", state, ok)
	}
}

func TestMockHandlerAuthAndStorage(t *testing.T) {
	m := mock.New()
	m.SetCredentials("alice", "secret")
	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL+mock.AuthPath, nil)
	req.Header.Set("X-Auth-User", "alice")
	req.Header.Set("X-Auth-Key", "wrong")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("auth: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}

	req.Header.Set("X-Auth-Key", "secret")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("auth: %v", err)
	}
	resp.Body.Close()
	token := resp.Header.Get("X-Auth-Token")
	storage := resp.Header.Get("X-Storage-Url")
	if token == "" || storage != srv.URL+mock.StoragePath {
		t.Fatalf("unexpected auth headers: %v", resp.Header)
	}

	put, _ := http.NewRequest(http.MethodPut, storage+"/docs", nil)
	put.Header.Set("X-Auth-Token", token)
	resp, err = http.DefaultClient.Do(put)
	if err != nil {
		t.Fatalf("create container: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	list, _ := http.NewRequest(http.MethodGet, storage, nil)
	list.Header.Set("X-Auth-Token", "stale")
	resp, err = http.DefaultClient.Do(list)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for stale token, got %d", resp.StatusCode)
	}
}

func TestMockRecordsRequests(t *testing.T) {
	m := mock.New()
	submit(t, m, http.MethodPut, "docs", nil)
	submit(t, m, http.MethodDelete, "docs/a%2Fb", nil)

	reqs := m.Requests()
	if len(reqs) != 2 {
		t.Fatalf("expected 2 recorded requests, got %d", len(reqs))
	}
	if reqs[1].Container != "docs" || reqs[1].Object != "a/b" || reqs[1].Endpoint != mock.EndpointStorage {
		t.Fatalf("unexpected recorded request: %#v", reqs[1])
	}
	m.Reset()
	if len(m.Requests()) != 0 {
		t.Fatalf("Reset did not clear requests")
	}
}
