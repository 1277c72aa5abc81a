package cloudfiles

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// CDNDetails are the settings applied by SetCdnDetails. TTL is sent only when
// it is not negative; the ACLs only when non-empty.
type CDNDetails struct {
	LoggingEnabled bool
	TTL            int
	ReferrerACL    string
	UserAgentACL   string
}

// CDNInfo is the CDN state reported for a container.
type CDNInfo struct {
	Enabled      bool
	URI          string
	TTL          int
	LogRetention bool
	ReferrerACL  string
	UserAgentACL string
}

// PublishToCdn enables CDN delivery for the container and returns its public
// URI, or nil when the service did not report one. With ttl equal to NoTTL
// the service default applies. The cached fields are left untouched.
func (c *Container) PublishToCdn(ctx context.Context, ttl int) (*url.URL, error) {
	req := NewRequest(http.MethodPut, c.path())
	if ttl >= 0 {
		req.Header.Set(HeaderCDNTTL, strconv.Itoa(ttl))
	}
	resp, err := c.transport.SubmitCDN(ctx, req)
	if err != nil {
		return nil, classify(opPublish, c.name, err)
	}
	resp.Close()

	raw := strings.TrimSpace(resp.Header.Get(HeaderCDNURI))
	if raw == "" {
		return nil, nil
	}
	uri, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("cloudfiles: %s %s: parse %s %q: %w", opPublish, c.name, HeaderCDNURI, raw, err)
	}
	c.logger.Info("container published", zap.String("cdn_uri", raw))
	return uri, nil
}

// UnpublishFromCdn disables CDN delivery for the container.
func (c *Container) UnpublishFromCdn(ctx context.Context) error {
	req := NewRequest(http.MethodPost, c.path())
	req.Header.Set(HeaderCDNEnabled, "False")
	resp, err := c.transport.SubmitCDN(ctx, req)
	if err != nil {
		return classify(opUnpublish, c.name, err)
	}
	resp.Close()
	c.logger.Info("container unpublished")
	return nil
}

// SetCdnDetails updates logging, TTL and ACLs of a CDN-enabled container.
func (c *Container) SetCdnDetails(ctx context.Context, d CDNDetails) error {
	req := NewRequest(http.MethodPost, c.path())
	req.Header.Set(HeaderLogRetention, formatBool(d.LoggingEnabled))
	if d.TTL >= 0 {
		req.Header.Set(HeaderCDNTTL, strconv.Itoa(d.TTL))
	}
	if d.ReferrerACL != "" {
		req.Header.Set(HeaderReferrerACL, d.ReferrerACL)
	}
	if d.UserAgentACL != "" {
		req.Header.Set(HeaderUserAgentACL, d.UserAgentACL)
	}
	resp, err := c.transport.SubmitCDN(ctx, req)
	if err != nil {
		return classify(opSetCDNDetails, c.name, err)
	}
	resp.Close()
	return nil
}

// RefreshCDN fetches the CDN state of the container and stores TTL, CdnURI
// and the ACLs in the cached fields.
func (c *Container) RefreshCDN(ctx context.Context) (*CDNInfo, error) {
	resp, err := c.transport.SubmitCDN(ctx, NewRequest(http.MethodHead, c.path()))
	if err != nil {
		return nil, classify(opHeadCDN, c.name, err)
	}
	resp.Close()

	info := &CDNInfo{
		Enabled:      parseBool(resp.Header.Get(HeaderCDNEnabled)),
		URI:          resp.Header.Get(HeaderCDNURI),
		TTL:          NoTTL,
		LogRetention: parseBool(resp.Header.Get(HeaderLogRetention)),
		ReferrerACL:  resp.Header.Get(HeaderReferrerACL),
		UserAgentACL: resp.Header.Get(HeaderUserAgentACL),
	}
	if v := resp.Header.Get(HeaderCDNTTL); v != "" {
		if ttl, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			info.TTL = ttl
		}
	}
	c.TTL = info.TTL
	c.CdnURI = info.URI
	c.ReferrerACL = info.ReferrerACL
	c.UserAgentACL = info.UserAgentACL
	return info, nil
}

// formatBool renders the capitalised booleans the CDN API expects.
func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

func parseBool(v string) bool {
	return strings.EqualFold(strings.TrimSpace(v), "true")
}
