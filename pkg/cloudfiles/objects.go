package cloudfiles

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// PutObject uploads item into the container and returns the ETag reported by
// the service. The item's stream is read but not closed; the caller keeps
// ownership. progress, when not nil, receives the running byte count.
func (c *Container) PutObject(ctx context.Context, item *StorageItem, progress ProgressFunc) (string, error) {
	if item == nil {
		return "", invalidArgument(opPutObject, c.name, "item is nil")
	}
	if err := validateObjectName(opPutObject, item.Name()); err != nil {
		return "", err
	}
	path := c.name + "/" + item.Name()

	req := NewRequest(http.MethodPut, objectPath(c.name, item.Name()))
	req.ContentType = item.ContentType()
	for _, key := range sortedKeys(item.metadata) {
		req.Header.Set(HeaderObjectMetaPrefix+key, item.metadata[key])
	}
	if item.HasStream() {
		req.SetContent(item.stream, item.ContentLength(), progress)
	} else {
		req.SetContent(nil, 0, nil)
	}

	resp, err := c.transport.SubmitStorage(ctx, req)
	if err != nil {
		return "", classify(opPutObject, path, err)
	}
	resp.Close()

	etag := strings.Trim(resp.Header.Get(HeaderETag), `"`)
	c.logger.Debug("object stored", zap.String("object", item.Name()), zap.String("etag", etag))
	return etag, nil
}

// GetObject downloads the named object. The returned item owns the response
// body and must be closed.
func (c *Container) GetObject(ctx context.Context, name string) (*StorageItem, error) {
	if err := validateObjectName(opGetObject, name); err != nil {
		return nil, err
	}
	resp, err := c.transport.SubmitStorage(ctx, NewRequest(http.MethodGet, objectPath(c.name, name)))
	if err != nil {
		return nil, classify(opGetObject, c.name+"/"+name, err)
	}
	item := itemFromHeader(name, resp.Header)
	if resp.Body != nil {
		item.stream = resp.Body
	}
	return item, nil
}

// HeadObject returns the named object's metadata without its content.
func (c *Container) HeadObject(ctx context.Context, name string) (*StorageItem, error) {
	if err := validateObjectName(opHeadObject, name); err != nil {
		return nil, err
	}
	resp, err := c.transport.SubmitStorage(ctx, NewRequest(http.MethodHead, objectPath(c.name, name)))
	if err != nil {
		return nil, classify(opHeadObject, c.name+"/"+name, err)
	}
	resp.Close()
	item := itemFromHeader(name, resp.Header)
	if item.contentLength < 0 {
		item.contentLength = 0
	}
	return item, nil
}

// itemFromHeader builds an item from response headers. Server supplied
// metadata is taken as is, without length checks. A missing Content-Length
// yields -1.
func itemFromHeader(name string, h http.Header) *StorageItem {
	length := int64(-1)
	if v := h.Get("Content-Length"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			length = n
		}
	}
	return &StorageItem{
		name:          name,
		metadata:      prefixedHeaders(h, HeaderObjectMetaPrefix),
		contentType:   h.Get("Content-Type"),
		contentLength: length,
	}
}
