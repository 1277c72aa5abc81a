// Package mock provides an in-memory Cloud Files account. It implements
// cloudfiles.Transport for unit tests and serves the same state over HTTP
// for the sandbox and for end-to-end tests.
package mock

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Ratio1/cloudfiles_sdk_go/internal/devseed"
	"github.com/Ratio1/cloudfiles_sdk_go/pkg/cloudfiles"
)

// DefaultCDNTTL is applied on first publish when no X-TTL is given.
const DefaultCDNTTL = 259200

const lastModifiedLayout = "2006-01-02T15:04:05.000000"

// Endpoint names recorded in Request.Endpoint.
const (
	EndpointStorage = "storage"
	EndpointCDN     = "cdn"
)

type object struct {
	data        []byte
	contentType string
	metadata    map[string]string
	etag        string
	modified    time.Time
}

type container struct {
	objects  map[string]*object
	metadata map[string]string
	cdn      *CDNState
}

// CDNState is the CDN configuration of a container.
type CDNState struct {
	Enabled      bool
	URI          string
	TTL          int
	LogRetention bool
	ReferrerACL  string
	UserAgentACL string
}

// Request is a recorded call.
type Request struct {
	Endpoint  string
	Method    string
	Path      string
	Container string
	Object    string
	Query     url.Values
	Header    http.Header
	Body      []byte
}

// Mock is an in-memory account. It is safe for concurrent use.
type Mock struct {
	mu         sync.RWMutex
	containers map[string]*container
	failures   []int
	requests   []Request

	username string
	apiKey   string
	token    string
}

// New constructs an empty account.
func New() *Mock {
	return &Mock{
		containers: make(map[string]*container),
		token:      uuid.NewString(),
	}
}

// Seed loads containers and objects from a seed document.
func (m *Mock) Seed(seed *devseed.Seed) error {
	if seed == nil {
		return nil
	}
	if err := seed.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, cs := range seed.Containers {
		c := m.ensureContainer(strings.TrimSpace(cs.Name))
		for k, v := range cs.Metadata {
			c.metadata[strings.ToLower(k)] = v
		}
		if cs.CDN != nil {
			ttl := cs.CDN.TTL
			if ttl <= 0 {
				ttl = DefaultCDNTTL
			}
			c.cdn = &CDNState{
				Enabled:      cs.CDN.Enabled,
				URI:          newCDNURI(),
				TTL:          ttl,
				LogRetention: cs.CDN.LogRetention,
				ReferrerACL:  cs.CDN.ReferrerACL,
				UserAgentACL: cs.CDN.UserAgentACL,
			}
		}
		for _, obj := range cs.Objects {
			data, err := obj.Data()
			if err != nil {
				return fmt.Errorf("mock cloudfiles: %w", err)
			}
			ct := obj.ContentType
			if ct == "" {
				ct = http.DetectContentType(data)
			}
			c.objects[strings.TrimLeft(obj.Name, "/")] = newObject(data, ct, lowerKeys(obj.Metadata))
		}
	}
	return nil
}

// SetCredentials restricts authentication to one user and key. By default
// any non-empty pair is accepted.
func (m *Mock) SetCredentials(username, apiKey string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.username, m.apiKey = username, apiKey
}

// Token returns the currently valid auth token.
func (m *Mock) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// ExpireToken issues a new token; requests carrying the old one get 401.
func (m *Mock) ExpireToken() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = uuid.NewString()
}

// FailNext makes the next len(statuses) requests fail with the given
// statuses, in order, before touching any state.
func (m *Mock) FailNext(statuses ...int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, statuses...)
}

// Requests returns a copy of every request received so far.
func (m *Mock) Requests() []Request {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// Reset forgets recorded requests and pending failures.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
	m.failures = nil
}

// Object returns a stored object's content and metadata.
func (m *Mock) Object(containerName, name string) ([]byte, map[string]string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.containers[containerName]
	if !ok {
		return nil, nil, false
	}
	o, ok := c.objects[name]
	if !ok {
		return nil, nil, false
	}
	return append([]byte(nil), o.data...), copyMap(o.metadata), true
}

// ContentType returns the stored content type of an object.
func (m *Mock) ContentType(containerName, name string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.containers[containerName]; ok {
		if o, ok := c.objects[name]; ok {
			return o.contentType
		}
	}
	return ""
}

// CDN returns the CDN state of a container, if it was ever published.
func (m *Mock) CDN(containerName string) (CDNState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.containers[containerName]
	if !ok || c.cdn == nil {
		return CDNState{}, false
	}
	return *c.cdn, true
}

// SubmitStorage implements cloudfiles.Transport.
func (m *Mock) SubmitStorage(ctx context.Context, req *cloudfiles.Request) (*cloudfiles.Response, error) {
	return m.submit(ctx, EndpointStorage, req)
}

// SubmitCDN implements cloudfiles.Transport.
func (m *Mock) SubmitCDN(ctx context.Context, req *cloudfiles.Request) (*cloudfiles.Response, error) {
	return m.submit(ctx, EndpointCDN, req)
}

func (m *Mock) submit(ctx context.Context, ep string, req *cloudfiles.Request) (*cloudfiles.Response, error) {
	if req == nil {
		return nil, fmt.Errorf("mock cloudfiles: request is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var body []byte
	if req.Body != nil {
		data, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("mock cloudfiles: read body: %w", err)
		}
		body = data
	}
	header := req.Header.Clone()
	if header == nil {
		header = make(http.Header)
	}
	if req.ContentType != "" {
		header.Set("Content-Type", req.ContentType)
	}

	rep := m.serve(ep, req.Method, req.Path, req.Query, header, body)
	if rep.status >= 400 {
		return nil, &cloudfiles.HTTPError{
			Method:     req.Method,
			URL:        "mock://" + ep + "/" + req.Path,
			StatusCode: rep.status,
			Header:     rep.header,
			Body:       rep.body,
		}
	}
	return &cloudfiles.Response{
		StatusCode: rep.status,
		Header:     rep.header,
		Body:       io.NopCloser(bytes.NewReader(rep.body)),
	}, nil
}

type reply struct {
	status int
	header http.Header
	body   []byte
}

func status(code int) reply {
	return reply{status: code, header: make(http.Header)}
}

func errorReply(code int, msg string) reply {
	r := status(code)
	r.header.Set("Content-Type", "text/plain; charset=utf-8")
	r.body = []byte(msg)
	return r
}

// serve applies one request to the account state. path is the escaped path
// relative to the endpoint.
func (m *Mock) serve(ep, method, path string, query url.Values, header http.Header, body []byte) reply {
	containerName, objectName, err := splitPath(path)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, Request{
		Endpoint:  ep,
		Method:    method,
		Path:      path,
		Container: containerName,
		Object:    objectName,
		Query:     cloneValues(query),
		Header:    header.Clone(),
		Body:      append([]byte(nil), body...),
	})
	if len(m.failures) > 0 {
		code := m.failures[0]
		m.failures = m.failures[1:]
		return errorReply(code, "failure injected")
	}
	if err != nil {
		return errorReply(http.StatusBadRequest, err.Error())
	}

	if ep == EndpointCDN {
		return m.serveCDN(method, containerName, objectName, header)
	}
	switch {
	case containerName == "":
		return m.serveAccount(method, query)
	case objectName == "":
		return m.serveContainer(method, containerName, query, header)
	default:
		return m.serveObject(method, containerName, objectName, header, body)
	}
}

func (m *Mock) serveAccount(method string, query url.Values) reply {
	switch method {
	case http.MethodGet:
		return m.listContainers(query)
	case http.MethodHead:
		r := status(http.StatusNoContent)
		var bytesUsed int64
		for _, c := range m.containers {
			bytesUsed += c.bytes()
		}
		r.header.Set("X-Account-Container-Count", fmt.Sprint(len(m.containers)))
		r.header.Set("X-Account-Bytes-Used", fmt.Sprint(bytesUsed))
		return r
	default:
		return errorReply(http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (m *Mock) serveContainer(method, name string, query url.Values, header http.Header) reply {
	c, exists := m.containers[name]
	switch method {
	case http.MethodPut:
		m.ensureContainer(name)
		if exists {
			return status(http.StatusAccepted)
		}
		return status(http.StatusCreated)
	case http.MethodDelete:
		if !exists {
			return errorReply(http.StatusNotFound, "container not found")
		}
		if len(c.objects) > 0 {
			return errorReply(http.StatusConflict, "container not empty")
		}
		delete(m.containers, name)
		return status(http.StatusNoContent)
	}
	if !exists {
		return errorReply(http.StatusNotFound, "container not found")
	}
	switch method {
	case http.MethodGet:
		return m.listObjects(name, c, query)
	case http.MethodHead:
		r := status(http.StatusNoContent)
		r.header.Set(cloudfiles.HeaderContainerObjects, fmt.Sprint(len(c.objects)))
		r.header.Set(cloudfiles.HeaderContainerBytesUsed, fmt.Sprint(c.bytes()))
		for k, v := range c.metadata {
			r.header.Set(cloudfiles.HeaderContainerMeta+k, v)
		}
		return r
	case http.MethodPost:
		for k, v := range prefixed(header, cloudfiles.HeaderContainerMeta) {
			c.metadata[k] = v
		}
		return status(http.StatusNoContent)
	default:
		return errorReply(http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (m *Mock) serveObject(method, containerName, name string, header http.Header, body []byte) reply {
	c, ok := m.containers[containerName]
	if !ok {
		return errorReply(http.StatusNotFound, "container not found")
	}
	o, exists := c.objects[name]

	switch method {
	case http.MethodPut:
		if exists && strings.TrimSpace(header.Get(cloudfiles.HeaderIfNoneMatch)) == "*" {
			return errorReply(http.StatusPreconditionFailed, "object exists")
		}
		meta := prefixed(header, cloudfiles.HeaderObjectMetaPrefix)
		if msg := checkMetadata(meta); msg != "" {
			return errorReply(http.StatusBadRequest, msg)
		}
		ct := header.Get("Content-Type")
		if ct == "" {
			ct = http.DetectContentType(body)
		}
		obj := newObject(body, ct, meta)
		c.objects[name] = obj
		r := status(http.StatusCreated)
		r.header.Set(cloudfiles.HeaderETag, obj.etag)
		return r
	}

	if !exists {
		return errorReply(http.StatusNotFound, "object not found")
	}
	switch method {
	case http.MethodGet, http.MethodHead:
		r := status(http.StatusOK)
		r.header.Set("Content-Type", o.contentType)
		r.header.Set("Content-Length", fmt.Sprint(len(o.data)))
		r.header.Set(cloudfiles.HeaderETag, o.etag)
		r.header.Set("Last-Modified", o.modified.Format(http.TimeFormat))
		for k, v := range o.metadata {
			r.header.Set(cloudfiles.HeaderObjectMetaPrefix+k, v)
		}
		if method == http.MethodGet {
			r.body = append([]byte(nil), o.data...)
		}
		return r
	case http.MethodPost:
		meta := prefixed(header, cloudfiles.HeaderObjectMetaPrefix)
		if msg := checkMetadata(meta); msg != "" {
			return errorReply(http.StatusBadRequest, msg)
		}
		o.metadata = meta
		return status(http.StatusAccepted)
	case http.MethodDelete:
		delete(c.objects, name)
		return status(http.StatusNoContent)
	default:
		return errorReply(http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (m *Mock) serveCDN(method, name, objectName string, header http.Header) reply {
	if objectName != "" {
		return errorReply(http.StatusBadRequest, "CDN requests address containers only")
	}
	if name == "" {
		if method != http.MethodGet {
			return errorReply(http.StatusMethodNotAllowed, "method not allowed")
		}
		var names []string
		for _, n := range sortedContainerNames(m.containers) {
			if cdn := m.containers[n].cdn; cdn != nil && cdn.Enabled {
				names = append(names, n)
			}
		}
		return plainListing(names)
	}

	c, exists := m.containers[name]
	switch method {
	case http.MethodPut:
		if !exists {
			return errorReply(http.StatusNotFound, "container not found")
		}
		code := http.StatusAccepted
		if c.cdn == nil {
			c.cdn = &CDNState{URI: newCDNURI(), TTL: DefaultCDNTTL}
			code = http.StatusCreated
		}
		c.cdn.Enabled = true
		if ttl, ok := parseTTL(header); ok {
			c.cdn.TTL = ttl
		}
		r := status(code)
		setCDNHeaders(r.header, c.cdn)
		return r
	}
	if !exists || c.cdn == nil {
		return errorReply(http.StatusNotFound, "container is not CDN enabled")
	}
	switch method {
	case http.MethodPost:
		if v := header.Get(cloudfiles.HeaderCDNEnabled); v != "" {
			c.cdn.Enabled = strings.EqualFold(v, "true")
		}
		if ttl, ok := parseTTL(header); ok {
			c.cdn.TTL = ttl
		}
		if v := header.Get(cloudfiles.HeaderLogRetention); v != "" {
			c.cdn.LogRetention = strings.EqualFold(v, "true")
		}
		if v := header.Get(cloudfiles.HeaderReferrerACL); v != "" {
			c.cdn.ReferrerACL = v
		}
		if v := header.Get(cloudfiles.HeaderUserAgentACL); v != "" {
			c.cdn.UserAgentACL = v
		}
		r := status(http.StatusAccepted)
		r.header.Set(cloudfiles.HeaderCDNURI, c.cdn.URI)
		return r
	case http.MethodHead:
		r := status(http.StatusNoContent)
		setCDNHeaders(r.header, c.cdn)
		return r
	default:
		return errorReply(http.StatusMethodNotAllowed, "method not allowed")
	}
}

func setCDNHeaders(h http.Header, cdn *CDNState) {
	h.Set(cloudfiles.HeaderCDNEnabled, boolString(cdn.Enabled))
	h.Set(cloudfiles.HeaderCDNURI, cdn.URI)
	h.Set(cloudfiles.HeaderCDNTTL, fmt.Sprint(cdn.TTL))
	h.Set(cloudfiles.HeaderLogRetention, boolString(cdn.LogRetention))
	if cdn.ReferrerACL != "" {
		h.Set(cloudfiles.HeaderReferrerACL, cdn.ReferrerACL)
	}
	if cdn.UserAgentACL != "" {
		h.Set(cloudfiles.HeaderUserAgentACL, cdn.UserAgentACL)
	}
}

func (m *Mock) ensureContainer(name string) *container {
	c, ok := m.containers[name]
	if !ok {
		c = &container{objects: make(map[string]*object), metadata: make(map[string]string)}
		m.containers[name] = c
	}
	return c
}

func (c *container) bytes() int64 {
	var n int64
	for _, o := range c.objects {
		n += int64(len(o.data))
	}
	return n
}

func newObject(data []byte, contentType string, metadata map[string]string) *object {
	sum := md5.Sum(data)
	if metadata == nil {
		metadata = make(map[string]string)
	}
	return &object{
		data:        append([]byte(nil), data...),
		contentType: contentType,
		metadata:    metadata,
		etag:        hex.EncodeToString(sum[:]),
		modified:    time.Now().UTC(),
	}
}

func newCDNURI() string {
	return "https://" + strings.ReplaceAll(uuid.NewString(), "-", "") + ".cdn.cloudfiles.mock"
}

// splitPath unescapes "container/object/with/slashes".
func splitPath(path string) (string, string, error) {
	path = strings.TrimLeft(path, "/")
	if path == "" {
		return "", "", nil
	}
	rawContainer, rawObject, _ := strings.Cut(path, "/")
	containerName, err := url.PathUnescape(rawContainer)
	if err != nil {
		return "", "", fmt.Errorf("invalid container name %q", rawContainer)
	}
	objectName, err := url.PathUnescape(rawObject)
	if err != nil {
		return "", "", fmt.Errorf("invalid object name %q", rawObject)
	}
	return containerName, objectName, nil
}

func prefixed(h http.Header, prefix string) map[string]string {
	out := make(map[string]string)
	canonical := http.CanonicalHeaderKey(prefix)
	for k, values := range h {
		ck := http.CanonicalHeaderKey(k)
		if len(values) == 0 || !strings.HasPrefix(ck, canonical) || len(ck) == len(canonical) {
			continue
		}
		out[strings.ToLower(ck[len(canonical):])] = values[0]
	}
	return out
}

func checkMetadata(meta map[string]string) string {
	for k, v := range meta {
		if len(k) > cloudfiles.MaxMetaKeyLength {
			return "metadata name too long"
		}
		if len(v) > cloudfiles.MaxMetaValueLength {
			return "metadata value too long"
		}
	}
	return ""
}

func parseTTL(h http.Header) (int, bool) {
	v := strings.TrimSpace(h.Get(cloudfiles.HeaderCDNTTL))
	if v == "" {
		return 0, false
	}
	var ttl int
	if _, err := fmt.Sscanf(v, "%d", &ttl); err != nil || ttl < 0 {
		return 0, false
	}
	return ttl, true
}

func boolString(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

func lowerKeys(src map[string]string) map[string]string {
	dst := make(map[string]string, len(src))
	for k, v := range src {
		dst[strings.ToLower(k)] = v
	}
	return dst
}

func copyMap(src map[string]string) map[string]string {
	dst := make(map[string]string, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func cloneValues(v url.Values) url.Values {
	if v == nil {
		return nil
	}
	out := make(url.Values, len(v))
	for k, values := range v {
		out[k] = append([]string(nil), values...)
	}
	return out
}
