package cloudfiles

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/Ratio1/cloudfiles_sdk_go/internal/httpx"
)

// DefaultAuthURL is the Rackspace v1.0 identity endpoint.
const DefaultAuthURL = "https://identity.api.rackspacecloud.com/v1.0"

// Session is the outcome of authentication: a token and the endpoints it is
// valid for. CDNURL is empty for accounts without CDN access.
type Session struct {
	Token      string
	StorageURL string
	CDNURL     string
}

// Authenticator obtains a Session. It is called again when the service
// rejects a token.
type Authenticator interface {
	Authenticate(ctx context.Context) (*Session, error)
}

// StaticAuthenticator hands out a fixed session, for pre-issued tokens.
type StaticAuthenticator struct {
	Session Session
}

func (a StaticAuthenticator) Authenticate(context.Context) (*Session, error) {
	if strings.TrimSpace(a.Session.StorageURL) == "" {
		return nil, invalidArgument(opAuthenticate, "", "storage URL is required")
	}
	s := a.Session
	return &s, nil
}

// V1Authenticator implements the Cloud Files v1.0 auth handshake: a GET with
// X-Auth-User and X-Auth-Key that answers with the token and endpoints in
// response headers.
type V1Authenticator struct {
	username string
	apiKey   string
	client   *httpx.Client
}

// NewV1Authenticator returns an authenticator for authURL.
func NewV1Authenticator(authURL, username, apiKey string, opts ...Option) (*V1Authenticator, error) {
	return newV1Authenticator(authURL, username, apiKey, buildOptions(opts))
}

func newV1Authenticator(authURL, username, apiKey string, o *options) (*V1Authenticator, error) {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(apiKey) == "" {
		return nil, invalidArgument(opAuthenticate, "", "username and API key are required")
	}
	if strings.TrimSpace(authURL) == "" {
		authURL = DefaultAuthURL
	}
	client, err := httpx.NewClient(authURL, o.httpxOptions("auth")...)
	if err != nil {
		return nil, fmt.Errorf("cloudfiles: init auth client: %w", err)
	}
	return &V1Authenticator{username: username, apiKey: apiKey, client: client}, nil
}

func (a *V1Authenticator) Authenticate(ctx context.Context) (*Session, error) {
	resp, err := a.client.Do(ctx, &httpx.Request{
		Method: http.MethodGet,
		Header: http.Header{
			HeaderAuthUser: {a.username},
			HeaderAuthKey:  {a.apiKey},
		},
	})
	if err != nil {
		return nil, classify(opAuthenticate, "", err)
	}
	defer resp.Body.Close()

	session := &Session{
		Token:      resp.Header.Get(HeaderAuthToken),
		StorageURL: resp.Header.Get(HeaderStorageURL),
		CDNURL:     resp.Header.Get(HeaderCDNManagementURL),
	}
	if session.Token == "" || session.StorageURL == "" {
		return nil, fmt.Errorf("cloudfiles: auth response missing %s or %s", HeaderAuthToken, HeaderStorageURL)
	}
	return session, nil
}
