package cloudfiles_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ratio1/cloudfiles_sdk_go/pkg/cloudfiles"
)

func TestPublishToCdnTTLHeader(t *testing.T) {
	c, m := newContainer(t, "site")
	ctx := context.Background()

	uri, err := c.PublishToCdn(ctx, 3600)
	require.NoError(t, err)
	require.NotNil(t, uri)
	assert.Equal(t, "https", uri.Scheme)

	reqs := m.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "cdn", reqs[0].Endpoint)
	assert.Equal(t, http.MethodPut, reqs[0].Method)
	assert.Equal(t, "3600", reqs[0].Header.Get("X-TTL"))

	m.Reset()
	_, err = c.PublishToCdn(ctx, cloudfiles.NoTTL)
	require.NoError(t, err)
	reqs = m.Requests()
	require.Len(t, reqs, 1)
	_, hasTTL := reqs[0].Header["X-Ttl"]
	assert.False(t, hasTTL)
}

func TestPublishToCdnDoesNotMutateContainer(t *testing.T) {
	c, _ := newContainer(t, "site")

	_, err := c.PublishToCdn(context.Background(), 900)
	require.NoError(t, err)
	assert.Equal(t, cloudfiles.NoTTL, c.TTL)
	assert.Empty(t, c.CdnURI)
}

func TestPublishToCdnWithoutURIHeader(t *testing.T) {
	tr := &stubTransport{cdn: func(*cloudfiles.Request) (*cloudfiles.Response, error) {
		return textResponse(http.StatusCreated, ""), nil
	}}
	c, err := cloudfiles.NewWithTransport(tr).Container("site")
	require.NoError(t, err)

	uri, err := c.PublishToCdn(context.Background(), cloudfiles.NoTTL)
	require.NoError(t, err)
	assert.Nil(t, uri)
}

func TestCDNStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		status int
		call   func(*cloudfiles.Container) error
		want   error
	}{
		{
			name:   "publish unauthorized",
			status: http.StatusUnauthorized,
			call: func(c *cloudfiles.Container) error {
				_, err := c.PublishToCdn(context.Background(), cloudfiles.NoTTL)
				return err
			},
			want: cloudfiles.ErrAuthenticationFailed,
		},
		{
			name:   "unpublish unauthorized",
			status: http.StatusUnauthorized,
			call:   func(c *cloudfiles.Container) error { return c.UnpublishFromCdn(context.Background()) },
			want:   cloudfiles.ErrAccessDenied,
		},
		{
			name:   "unpublish not found",
			status: http.StatusNotFound,
			call:   func(c *cloudfiles.Container) error { return c.UnpublishFromCdn(context.Background()) },
			want:   cloudfiles.ErrPublicContainerNotFound,
		},
		{
			name:   "details unauthorized",
			status: http.StatusUnauthorized,
			call: func(c *cloudfiles.Container) error {
				return c.SetCdnDetails(context.Background(), cloudfiles.CDNDetails{TTL: cloudfiles.NoTTL})
			},
			want: cloudfiles.ErrAccessDenied,
		},
		{
			name:   "details not found",
			status: http.StatusNotFound,
			call: func(c *cloudfiles.Container) error {
				return c.SetCdnDetails(context.Background(), cloudfiles.CDNDetails{TTL: cloudfiles.NoTTL})
			},
			want: cloudfiles.ErrPublicContainerNotFound,
		},
		{
			name:   "head not found",
			status: http.StatusNotFound,
			call: func(c *cloudfiles.Container) error {
				_, err := c.RefreshCDN(context.Background())
				return err
			},
			want: cloudfiles.ErrPublicContainerNotFound,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tr := &stubTransport{cdn: func(*cloudfiles.Request) (*cloudfiles.Response, error) {
				return nil, statusError(tc.status)
			}}
			c, err := cloudfiles.NewWithTransport(tr).Container("site")
			require.NoError(t, err)
			assert.ErrorIs(t, tc.call(c), tc.want)
		})
	}
}

func TestUnpublishFromCdn(t *testing.T) {
	c, m := newContainer(t, "site")
	ctx := context.Background()

	_, err := c.PublishToCdn(ctx, cloudfiles.NoTTL)
	require.NoError(t, err)
	require.NoError(t, c.UnpublishFromCdn(ctx))

	reqs := m.Requests()
	assert.Equal(t, http.MethodPost, reqs[1].Method)
	assert.Equal(t, "False", reqs[1].Header.Get("X-CDN-Enabled"))
	state, ok := m.CDN("site")
	require.True(t, ok)
	assert.False(t, state.Enabled)
}

func TestSetCdnDetailsHeaders(t *testing.T) {
	c, m := newContainer(t, "site")
	ctx := context.Background()
	_, err := c.PublishToCdn(ctx, cloudfiles.NoTTL)
	require.NoError(t, err)
	m.Reset()

	require.NoError(t, c.SetCdnDetails(ctx, cloudfiles.CDNDetails{TTL: cloudfiles.NoTTL}))
	require.NoError(t, c.SetCdnDetails(ctx, cloudfiles.CDNDetails{
		LoggingEnabled: true,
		TTL:            600,
		ReferrerACL:    ".example.com",
		UserAgentACL:   "Mozilla",
	}))

	reqs := m.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "False", reqs[0].Header.Get("X-Log-Retention"))
	assert.Empty(t, reqs[0].Header.Get("X-TTL"))
	assert.Empty(t, reqs[0].Header.Get("X-Referrer-ACL"))
	assert.Empty(t, reqs[0].Header.Get("X-User-Agent-ACL"))

	assert.Equal(t, "True", reqs[1].Header.Get("X-Log-Retention"))
	assert.Equal(t, "600", reqs[1].Header.Get("X-TTL"))
	assert.Equal(t, ".example.com", reqs[1].Header.Get("X-Referrer-ACL"))
	assert.Equal(t, "Mozilla", reqs[1].Header.Get("X-User-Agent-ACL"))

	info, err := c.RefreshCDN(ctx)
	require.NoError(t, err)
	assert.True(t, info.Enabled)
	assert.True(t, info.LogRetention)
	assert.Equal(t, 600, info.TTL)
	assert.Equal(t, 600, c.TTL)
	assert.Equal(t, ".example.com", c.ReferrerACL)
	assert.Equal(t, "Mozilla", c.UserAgentACL)
	assert.Equal(t, info.URI, c.CdnURI)
}
