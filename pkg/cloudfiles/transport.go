package cloudfiles

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/Ratio1/cloudfiles_sdk_go/internal/listing"
)

// Transport submits requests to the storage and CDN management endpoints of
// one account. Implementations own authentication and retries. Responses with
// a status of 400 or above must be returned as an error wrapping *HTTPError.
type Transport interface {
	SubmitStorage(ctx context.Context, req *Request) (*Response, error)
	SubmitCDN(ctx context.Context, req *Request) (*Response, error)
}

// ProgressFunc receives the running total of body bytes sent.
type ProgressFunc func(transferred int64)

// Request is a single outbound call. Path is relative to the endpoint and
// already escaped.
type Request struct {
	Method      string
	Path        string
	Query       url.Values
	Header      http.Header
	ContentType string
	// ContentLength is -1 when unknown; the body is then sent chunked.
	ContentLength int64
	Body          io.Reader
}

// NewRequest returns a request with an empty header map.
func NewRequest(method, path string) *Request {
	return &Request{Method: method, Path: path, Header: make(http.Header)}
}

// SetContent attaches body as the request payload, reporting progress to fn
// when it is not nil. A non-nil body with a length of 0 is treated as being of
// unknown length.
func (r *Request) SetContent(body io.Reader, length int64, fn ProgressFunc) {
	if body != nil && length == 0 {
		length = -1
	}
	if fn != nil && body != nil {
		body = &progressReader{r: body, fn: fn}
	}
	r.Body = body
	r.ContentLength = length
}

// Response is a transport response. Body must be closed by the receiver.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
}

// Close releases the response body. It is safe on a nil response.
func (r *Response) Close() error {
	if r == nil || r.Body == nil {
		return nil
	}
	return r.Body.Close()
}

// ReadAll drains and closes the body.
func (r *Response) ReadAll() ([]byte, error) {
	if r == nil || r.Body == nil {
		return nil, nil
	}
	defer r.Body.Close()
	return io.ReadAll(r.Body)
}

// Lines drains the body and splits it into non-empty lines.
func (r *Response) Lines() ([]string, error) {
	data, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	return listing.Lines(data), nil
}

type progressReader struct {
	r     io.Reader
	fn    ProgressFunc
	total int64
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.total += int64(n)
		p.fn(p.total)
	}
	return n, err
}

// escapePath percent-encodes each "/" separated segment of name after
// stripping leading slashes.
func escapePath(name string) string {
	segments := strings.Split(strings.TrimLeft(name, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

func objectPath(container, object string) string {
	return url.PathEscape(container) + "/" + escapePath(object)
}
