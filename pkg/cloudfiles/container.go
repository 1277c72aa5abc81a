package cloudfiles

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Ratio1/cloudfiles_sdk_go/internal/listing"
)

// ObjectRecord is an entry of a JSON or XML container listing.
type ObjectRecord = listing.Object

// XMLListing is a parsed format=xml container listing.
type XMLListing = listing.Document

// Container is a local proxy for one remote container. The exported fields
// cache server-reported values; they are only updated by Refresh and
// RefreshCDN and may be stale. Container takes no locks of its own.
type Container struct {
	name      string
	transport Transport
	logger    *zap.Logger

	ByteCount    int64
	ObjectCount  int64
	TTL          int
	CdnURI       string
	ReferrerACL  string
	UserAgentACL string
}

func newContainer(name string, t Transport, logger *zap.Logger) *Container {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Container{
		name:      name,
		transport: t,
		logger:    logger.With(zap.String("container", name)),
		TTL:       NoTTL,
	}
}

// Name returns the container name.
func (c *Container) Name() string { return c.name }

func (c *Container) path() string { return url.PathEscape(c.name) }

// ListFilter narrows a listing. Zero values are omitted from the query.
type ListFilter struct {
	Limit     int
	Marker    string
	EndMarker string
	Prefix    string
	Delimiter string
	Path      string
}

func (f *ListFilter) query(op operation, path string) (url.Values, error) {
	q := url.Values{}
	if f == nil {
		return q, nil
	}
	if f.Limit < 0 {
		return nil, invalidArgument(op, path, "limit must be a positive integer, got %d", f.Limit)
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	set := func(k, v string) {
		if v != "" {
			q.Set(k, v)
		}
	}
	set("marker", f.Marker)
	set("end_marker", f.EndMarker)
	set("prefix", f.Prefix)
	set("delimiter", f.Delimiter)
	set("path", f.Path)
	return q, nil
}

// ListObjects returns the names of the objects in the container.
func (c *Container) ListObjects(ctx context.Context, filter *ListFilter) ([]string, error) {
	query, err := filter.query(opListObjects, c.name)
	if err != nil {
		return nil, err
	}
	req := NewRequest(http.MethodGet, c.path())
	req.Query = query
	resp, err := c.transport.SubmitStorage(ctx, req)
	if err != nil {
		return nil, classify(opListObjects, c.name, err)
	}
	if resp.StatusCode == http.StatusNoContent {
		resp.Close()
		return []string{}, nil
	}
	names, err := resp.Lines()
	if err != nil {
		return nil, fmt.Errorf("cloudfiles: read object listing: %w", err)
	}
	return names, nil
}

// DeleteObject removes the named object.
func (c *Container) DeleteObject(ctx context.Context, name string) error {
	if err := validateObjectName(opDeleteObject, name); err != nil {
		return err
	}
	resp, err := c.transport.SubmitStorage(ctx, NewRequest(http.MethodDelete, objectPath(c.name, name)))
	if err != nil {
		return classify(opDeleteObject, c.name+"/"+name, err)
	}
	resp.Close()
	c.logger.Debug("object deleted", zap.String("object", name))
	return nil
}

// SetObjectMetadata replaces the user metadata of the named object. Keys and
// values are validated before anything is sent.
func (c *Container) SetObjectMetadata(ctx context.Context, name string, metadata map[string]string) error {
	if err := validateObjectName(opSetMetadata, name); err != nil {
		return err
	}
	if err := validateMetadata(opSetMetadata, c.name+"/"+name, metadata); err != nil {
		return err
	}
	req := NewRequest(http.MethodPost, objectPath(c.name, name))
	for _, key := range sortedKeys(metadata) {
		req.Header.Set(HeaderObjectMetaPrefix+key, metadata[key])
	}
	resp, err := c.transport.SubmitStorage(ctx, req)
	if err != nil {
		return classify(opSetMetadata, c.name+"/"+name, err)
	}
	resp.Close()
	return nil
}

// EnsureDirectoryPath creates a zero-byte application/directory object for
// every prefix of p, from the first segment down to the full path. Requests
// are sequential; on failure the prefixes already created remain.
func (c *Container) EnsureDirectoryPath(ctx context.Context, p string) error {
	var segments []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			segments = append(segments, url.PathEscape(s))
		}
	}
	for i := range segments {
		dir := strings.Join(segments[:i+1], "/")
		req := NewRequest(http.MethodPut, c.path()+"/"+dir)
		req.ContentType = DirectoryContentType
		req.SetContent(nil, 0, nil)
		resp, err := c.transport.SubmitStorage(ctx, req)
		if err != nil {
			return classify(opMakePath, c.name+"/"+dir, err)
		}
		resp.Close()
		c.logger.Debug("directory object ensured", zap.String("path", dir))
	}
	return nil
}

// ObjectListSerialized returns the raw listing body in the requested format.
func (c *Container) ObjectListSerialized(ctx context.Context, format Format) (string, error) {
	if format != FormatJSON && format != FormatXML {
		return "", invalidArgument(opListSerialized, c.name, "unsupported format %q", format)
	}
	req := NewRequest(http.MethodGet, c.path())
	req.Query = url.Values{"format": {string(format)}}
	resp, err := c.transport.SubmitStorage(ctx, req)
	if err != nil {
		return "", classify(opListSerialized, c.name, err)
	}
	body, err := resp.ReadAll()
	if err != nil {
		return "", fmt.Errorf("cloudfiles: read %s listing: %w", format, err)
	}
	return string(body), nil
}

// ObjectListJSON returns the JSON listing as a single string.
func (c *Container) ObjectListJSON(ctx context.Context) (string, error) {
	return c.ObjectListSerialized(ctx, FormatJSON)
}

// ObjectListXML returns the parsed XML listing. Malformed XML yields an empty
// listing, not an error.
func (c *Container) ObjectListXML(ctx context.Context) (*XMLListing, error) {
	body, err := c.ObjectListSerialized(ctx, FormatXML)
	if err != nil {
		return nil, err
	}
	return listing.ParseDocument(body), nil
}

// ObjectRecords decodes the JSON listing, narrowed by filter.
func (c *Container) ObjectRecords(ctx context.Context, filter *ListFilter) ([]ObjectRecord, error) {
	query, err := filter.query(opListSerialized, c.name)
	if err != nil {
		return nil, err
	}
	query.Set("format", string(FormatJSON))
	req := NewRequest(http.MethodGet, c.path())
	req.Query = query
	resp, err := c.transport.SubmitStorage(ctx, req)
	if err != nil {
		return nil, classify(opListSerialized, c.name, err)
	}
	body, err := resp.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("cloudfiles: read json listing: %w", err)
	}
	records, err := listing.DecodeObjects(body)
	if err != nil {
		return nil, fmt.Errorf("cloudfiles: decode json listing: %w", err)
	}
	return records, nil
}

// ContainerInfo is the result of a HEAD on the container.
type ContainerInfo struct {
	Name        string
	ObjectCount int64
	ByteCount   int64
	Metadata    map[string]string
}

// Refresh fetches the container's counters and stores them in ObjectCount and
// ByteCount.
func (c *Container) Refresh(ctx context.Context) (*ContainerInfo, error) {
	resp, err := c.transport.SubmitStorage(ctx, NewRequest(http.MethodHead, c.path()))
	if err != nil {
		return nil, classify(opHeadContainer, c.name, err)
	}
	resp.Close()

	info := &ContainerInfo{
		Name:        c.name,
		ObjectCount: headerInt(resp.Header, HeaderContainerObjects),
		ByteCount:   headerInt(resp.Header, HeaderContainerBytesUsed),
		Metadata:    prefixedHeaders(resp.Header, HeaderContainerMeta),
	}
	c.ObjectCount = info.ObjectCount
	c.ByteCount = info.ByteCount
	return info, nil
}

func headerInt(h http.Header, key string) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(h.Get(key)), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// prefixedHeaders collects headers starting with prefix, keyed by the
// lower-cased remainder.
func prefixedHeaders(h http.Header, prefix string) map[string]string {
	out := make(map[string]string)
	canonical := http.CanonicalHeaderKey(prefix)
	for k, values := range h {
		if len(values) == 0 || !strings.HasPrefix(http.CanonicalHeaderKey(k), canonical) {
			continue
		}
		out[strings.ToLower(k[len(canonical):])] = values[0]
	}
	return out
}
