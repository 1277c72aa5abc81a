package cloudfiles

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

// StorageItem describes a remote object: its name, metadata, content type and
// length, and optionally an open content stream. The item owns the stream;
// Close releases it exactly once.
type StorageItem struct {
	name          string
	metadata      map[string]string
	contentType   string
	contentLength int64
	stream        io.ReadCloser

	closeOnce sync.Once
	closeErr  error
}

// NewStorageItem returns a metadata-only item.
func NewStorageItem(name string, metadata map[string]string, contentType string, contentLength int64) (*StorageItem, error) {
	return newStorageItem(name, metadata, contentType, nil, contentLength)
}

// NewStorageItemWithStream returns an item that takes ownership of stream.
// If stream is an io.Closer it is closed by Close.
func NewStorageItemWithStream(name string, metadata map[string]string, contentType string, stream io.Reader, contentLength int64) (*StorageItem, error) {
	if stream == nil {
		return nil, invalidArgument(opPutObject, name, "content stream is nil")
	}
	rc, ok := stream.(io.ReadCloser)
	if !ok {
		rc = io.NopCloser(stream)
	}
	return newStorageItem(name, metadata, contentType, rc, contentLength)
}

func newStorageItem(name string, metadata map[string]string, contentType string, stream io.ReadCloser, contentLength int64) (*StorageItem, error) {
	if strings.TrimSpace(name) == "" {
		return nil, invalidArgument(opPutObject, name, "item name is required")
	}
	if contentLength < 0 && stream == nil {
		return nil, invalidArgument(opPutObject, name, "content length must not be negative")
	}
	if err := validateMetadata(opPutObject, name, metadata); err != nil {
		return nil, err
	}
	return &StorageItem{
		name:          name,
		metadata:      copyMetadata(metadata),
		contentType:   contentType,
		contentLength: contentLength,
		stream:        stream,
	}, nil
}

// Name returns the object name.
func (s *StorageItem) Name() string { return s.name }

// Metadata returns a copy of the user metadata.
func (s *StorageItem) Metadata() map[string]string { return copyMetadata(s.metadata) }

// ContentType returns the MIME type.
func (s *StorageItem) ContentType() string { return s.contentType }

// ContentLength returns the size in bytes, or -1 when a stream of unknown
// length was supplied.
func (s *StorageItem) ContentLength() int64 { return s.contentLength }

// HasStream reports whether the item carries content.
func (s *StorageItem) HasStream() bool { return s.stream != nil }

// Stream returns the content stream, or nil for metadata-only items. It is
// not safe for concurrent use.
func (s *StorageItem) Stream() io.Reader {
	if s.stream == nil {
		return nil
	}
	return s.stream
}

// Read reads from the content stream.
func (s *StorageItem) Read(p []byte) (int, error) {
	if s.stream == nil {
		return 0, io.EOF
	}
	return s.stream.Read(p)
}

// Close releases the stream. Later calls return the first result.
func (s *StorageItem) Close() error {
	s.closeOnce.Do(func() {
		if s.stream != nil {
			s.closeErr = s.stream.Close()
		}
	})
	return s.closeErr
}

// validateMetadata checks keys and values in ascending key order so the
// reported violation does not depend on map iteration order.
func validateMetadata(op operation, path string, metadata map[string]string) error {
	for _, key := range sortedKeys(metadata) {
		if len(key) > MaxMetaKeyLength {
			return &Error{Kind: KindMetaKeyTooLong, Op: string(op), Path: path,
				Msg: fmt.Sprintf("key %q exceeds the maximum length of %d", truncate(key), MaxMetaKeyLength)}
		}
		if len(metadata[key]) > MaxMetaValueLength {
			return &Error{Kind: KindMetaValueTooLong, Op: string(op), Path: path,
				Msg: fmt.Sprintf("value of %q exceeds the maximum length of %d", truncate(key), MaxMetaValueLength)}
		}
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func copyMetadata(src map[string]string) map[string]string {
	dst := make(map[string]string, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func truncate(s string) string {
	if len(s) > 32 {
		return s[:32] + "..."
	}
	return s
}
