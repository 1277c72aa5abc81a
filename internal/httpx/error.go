package httpx

import (
	"errors"
	"fmt"
	"net/http"
)

const maxErrorBody = 512

// HTTPError represents a response with a status code of 400 or above.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "<nil>"
	}
	body := e.Body
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	if e.Method == "" {
		return fmt.Sprintf("http error: status=%d body=%s", e.StatusCode, string(body))
	}
	return fmt.Sprintf("http error: %s %s: status=%d body=%s", e.Method, e.URL, e.StatusCode, string(body))
}

// Retryable reports whether the error should be considered transient.
func (e *HTTPError) Retryable() bool {
	if e == nil {
		return false
	}
	return retryableStatus(e.StatusCode)
}

// StatusCode extracts the HTTP status from err when it wraps an *HTTPError.
func StatusCode(err error) (int, bool) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) && httpErr != nil {
		return httpErr.StatusCode, true
	}
	return 0, false
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests ||
		code == http.StatusRequestTimeout ||
		(code >= 500 && code <= 599)
}
