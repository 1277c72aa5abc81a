package cloudfiles

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/Ratio1/cloudfiles_sdk_go/internal/listing"
)

// ContainerRecord is an entry of a JSON account listing.
type ContainerRecord = listing.Container

// Client is the account level entry point.
type Client struct {
	transport Transport
	logger    *zap.Logger
}

// New builds an HTTP backed client from cfg. With a token and storage URL in
// cfg the session is used as is; otherwise the client authenticates lazily
// with the v1.0 handshake on its first request.
func New(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	all := append(cfg.options(), opts...)
	o := buildOptions(all)

	var auth Authenticator
	if cfg.usesStaticToken() {
		auth = StaticAuthenticator{Session: Session{
			Token:      cfg.AuthToken,
			StorageURL: cfg.StorageURL,
			CDNURL:     cfg.CDNURL,
		}}
	} else {
		v1, err := newV1Authenticator(cfg.AuthURL, cfg.Username, cfg.APIKey, o)
		if err != nil {
			return nil, err
		}
		auth = v1
	}
	return &Client{transport: newHTTPTransport(auth, o), logger: o.logger}, nil
}

// NewWithAuthenticator builds an HTTP backed client around a custom
// Authenticator.
func NewWithAuthenticator(auth Authenticator, opts ...Option) (*Client, error) {
	if auth == nil {
		return nil, errors.New("cloudfiles: authenticator is nil")
	}
	o := buildOptions(opts)
	return &Client{transport: newHTTPTransport(auth, o), logger: o.logger}, nil
}

// NewWithTransport allows callers to provide a custom transport (e.g. mocks).
func NewWithTransport(t Transport, opts ...Option) *Client {
	o := buildOptions(opts)
	return &Client{transport: t, logger: o.logger}
}

// Container returns a facade for the named container. No request is issued.
func (c *Client) Container(name string) (*Container, error) {
	if c == nil || c.transport == nil {
		return nil, errors.New("cloudfiles: client is nil")
	}
	if err := validateContainerName(opContainer, name); err != nil {
		return nil, err
	}
	return newContainer(name, c.transport, c.logger), nil
}

// CreateContainer creates the named container; creating an existing one is
// not an error.
func (c *Client) CreateContainer(ctx context.Context, name string) (*Container, error) {
	ct, err := c.Container(name)
	if err != nil {
		return nil, err
	}
	resp, err := c.transport.SubmitStorage(ctx, NewRequest(http.MethodPut, url.PathEscape(name)))
	if err != nil {
		return nil, classify(opCreateContainer, name, err)
	}
	resp.Close()
	c.logger.Debug("container created", zap.String("container", name))
	return ct, nil
}

// ListContainers returns the names of the containers in the account.
func (c *Client) ListContainers(ctx context.Context, filter *ListFilter) ([]string, error) {
	if c == nil || c.transport == nil {
		return nil, errors.New("cloudfiles: client is nil")
	}
	query, err := filter.query(opListContainers, "")
	if err != nil {
		return nil, err
	}
	req := NewRequest(http.MethodGet, "")
	req.Query = query
	resp, err := c.transport.SubmitStorage(ctx, req)
	if err != nil {
		return nil, classify(opListContainers, "", err)
	}
	if resp.StatusCode == http.StatusNoContent {
		resp.Close()
		return []string{}, nil
	}
	names, err := resp.Lines()
	if err != nil {
		return nil, fmt.Errorf("cloudfiles: read container listing: %w", err)
	}
	return names, nil
}

// ContainerRecords returns the JSON account listing: name, object count and
// bytes used per container.
func (c *Client) ContainerRecords(ctx context.Context, filter *ListFilter) ([]ContainerRecord, error) {
	if c == nil || c.transport == nil {
		return nil, errors.New("cloudfiles: client is nil")
	}
	query, err := filter.query(opListContainers, "")
	if err != nil {
		return nil, err
	}
	query.Set("format", string(FormatJSON))
	req := NewRequest(http.MethodGet, "")
	req.Query = query
	resp, err := c.transport.SubmitStorage(ctx, req)
	if err != nil {
		return nil, classify(opListContainers, "", err)
	}
	body, err := resp.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("cloudfiles: read container listing: %w", err)
	}
	records, err := listing.DecodeContainers(body)
	if err != nil {
		return nil, fmt.Errorf("cloudfiles: decode container listing: %w", err)
	}
	return records, nil
}

func validateContainerName(op operation, name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return invalidArgument(op, name, "container name is required")
	case len(name) > MaxContainerNameLength:
		return invalidArgument(op, name, "container name exceeds %d bytes", MaxContainerNameLength)
	case strings.Contains(name, "/"):
		return invalidArgument(op, name, "container name must not contain '/'")
	case !utf8.ValidString(name):
		return invalidArgument(op, name, "container name must be valid UTF-8")
	}
	return nil
}

func validateObjectName(op operation, name string) error {
	switch {
	case strings.Trim(name, "/") == "":
		return invalidArgument(op, name, "object name is required")
	case len(name) > MaxObjectNameLength:
		return invalidArgument(op, name, "object name exceeds %d bytes", MaxObjectNameLength)
	case !utf8.ValidString(name):
		return invalidArgument(op, name, "object name must be valid UTF-8")
	}
	return nil
}
