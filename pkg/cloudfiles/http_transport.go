package cloudfiles

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/Ratio1/cloudfiles_sdk_go/internal/httpx"
)

// ErrNoCDNEndpoint is returned for CDN operations on accounts whose session
// carries no CDN management URL.
var ErrNoCDNEndpoint = errors.New("cloudfiles: account has no CDN management endpoint")

type endpoint int

const (
	endpointStorage endpoint = iota
	endpointCDN
)

func (e endpoint) String() string {
	if e == endpointCDN {
		return "cdn"
	}
	return "storage"
}

// httpTransport submits requests over HTTP using a lazily obtained session.
// A 401 invalidates the session and the request is replayed once with a
// fresh token, provided its body can be replayed.
type httpTransport struct {
	auth   Authenticator
	opts   *options
	logger *zap.Logger

	mu      sync.Mutex
	session *Session
	storage *httpx.Client
	cdn     *httpx.Client
}

func newHTTPTransport(auth Authenticator, o *options) *httpTransport {
	return &httpTransport{auth: auth, opts: o, logger: o.logger}
}

func (t *httpTransport) SubmitStorage(ctx context.Context, req *Request) (*Response, error) {
	return t.submit(ctx, endpointStorage, req)
}

func (t *httpTransport) SubmitCDN(ctx context.Context, req *Request) (*Response, error) {
	return t.submit(ctx, endpointCDN, req)
}

func (t *httpTransport) submit(ctx context.Context, ep endpoint, req *Request) (*Response, error) {
	if req == nil {
		return nil, errors.New("cloudfiles: request is nil")
	}
	for attempt := 0; ; attempt++ {
		client, token, err := t.client(ctx, ep)
		if err != nil {
			return nil, err
		}
		resp, err := client.Do(ctx, toHTTPX(req, token))
		if err != nil {
			code, _ := httpx.StatusCode(err)
			if code == http.StatusUnauthorized && attempt == 0 && req.Body == nil && t.refreshable() {
				t.logger.Debug("token rejected, re-authenticating", zap.Stringer("endpoint", ep))
				t.invalidate(token)
				continue
			}
			return nil, err
		}
		return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: resp.Body}, nil
	}
}

func (t *httpTransport) refreshable() bool {
	_, static := t.auth.(StaticAuthenticator)
	return !static
}

func (t *httpTransport) client(ctx context.Context, ep endpoint) (*httpx.Client, string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.session == nil {
		session, err := t.auth.Authenticate(ctx)
		if err != nil {
			return nil, "", err
		}
		storage, err := httpx.NewClient(session.StorageURL, t.opts.httpxOptions("storage")...)
		if err != nil {
			return nil, "", fmt.Errorf("cloudfiles: init storage client: %w", err)
		}
		var cdn *httpx.Client
		if session.CDNURL != "" {
			cdn, err = httpx.NewClient(session.CDNURL, t.opts.httpxOptions("cdn")...)
			if err != nil {
				return nil, "", fmt.Errorf("cloudfiles: init cdn client: %w", err)
			}
		}
		t.session, t.storage, t.cdn = session, storage, cdn
	}

	if ep == endpointCDN {
		if t.cdn == nil {
			return nil, "", ErrNoCDNEndpoint
		}
		return t.cdn, t.session.Token, nil
	}
	return t.storage, t.session.Token, nil
}

// invalidate drops the session unless another caller already replaced it.
func (t *httpTransport) invalidate(token string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session != nil && t.session.Token == token {
		t.session = nil
	}
}

// readerOnly hides Close so net/http cannot close a stream owned by a
// StorageItem.
type readerOnly struct {
	io.Reader
}

func toHTTPX(req *Request, token string) *httpx.Request {
	header := make(http.Header, len(req.Header)+2)
	for k, values := range req.Header {
		header[k] = append([]string(nil), values...)
	}
	if token != "" {
		header.Set(HeaderAuthToken, token)
	}
	if req.ContentType != "" {
		header.Set("Content-Type", req.ContentType)
	}
	out := &httpx.Request{
		Method: req.Method,
		Path:   req.Path,
		Query:  req.Query,
		Header: header,
	}
	if req.Body != nil && req.ContentLength != 0 {
		out.Body = readerOnly{req.Body}
		out.ContentLength = req.ContentLength
		out.DisableRetry = true
	}
	return out
}
