package cloudfiles_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/Ratio1/cloudfiles_sdk_go/pkg/cloudfiles"
)

type countingCloser struct {
	*strings.Reader
	closes int
}

func (c *countingCloser) Close() error {
	c.closes++
	if c.closes > 1 {
		return errors.New("closed twice")
	}
	return nil
}

func TestStorageItemAccessors(t *testing.T) {
	cases := []struct {
		name   string
		ct     string
		length int64
		meta   map[string]string
	}{
		{name: "a.txt", ct: "text/plain", length: 0},
		{name: "dir/b.bin", ct: "application/octet-stream", length: 1 << 20, meta: map[string]string{"k": "v"}},
		{name: "c", ct: "", length: 42},
	}
	for _, tc := range cases {
		item, err := cloudfiles.NewStorageItem(tc.name, tc.meta, tc.ct, tc.length)
		if err != nil {
			t.Fatalf("NewStorageItem(%q): %v", tc.name, err)
		}
		if item.Name() != tc.name || item.ContentType() != tc.ct || item.ContentLength() != tc.length {
			t.Fatalf("accessors = %q %q %d, want %q %q %d", item.Name(), item.ContentType(), item.ContentLength(), tc.name, tc.ct, tc.length)
		}
		if len(item.Metadata()) != len(tc.meta) {
			t.Fatalf("metadata = %v, want %v", item.Metadata(), tc.meta)
		}
		if item.HasStream() {
			t.Fatalf("metadata-only item reports a stream")
		}
		if err := item.Close(); err != nil {
			t.Fatalf("Close on metadata-only item: %v", err)
		}
	}
}

func TestStorageItemMetadataIsCopied(t *testing.T) {
	meta := map[string]string{"owner": "ops"}
	item, err := cloudfiles.NewStorageItem("a", meta, "", 0)
	if err != nil {
		t.Fatalf("NewStorageItem: %v", err)
	}
	meta["owner"] = "changed"
	got := item.Metadata()
	got["owner"] = "mutated"
	if item.Metadata()["owner"] != "ops" {
		t.Fatalf("metadata leaked: %v", item.Metadata())
	}
}

func TestStorageItemCloseIsIdempotent(t *testing.T) {
	stream := &countingCloser{Reader: strings.NewReader("data")}
	item, err := cloudfiles.NewStorageItemWithStream("a", nil, "text/plain", stream, 4)
	if err != nil {
		t.Fatalf("NewStorageItemWithStream: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := item.Close(); err != nil {
			t.Fatalf("Close #%d: %v", i, err)
		}
	}
	if stream.closes != 1 {
		t.Fatalf("stream closed %d times", stream.closes)
	}
}

func TestStorageItemValidation(t *testing.T) {
	if _, err := cloudfiles.NewStorageItem("", nil, "", 0); !errors.Is(err, cloudfiles.ErrInvalidArgument) {
		t.Fatalf("empty name: %v", err)
	}
	if _, err := cloudfiles.NewStorageItem("a", nil, "", -1); !errors.Is(err, cloudfiles.ErrInvalidArgument) {
		t.Fatalf("negative length: %v", err)
	}
	long := map[string]string{strings.Repeat("k", cloudfiles.MaxMetaKeyLength+1): "v"}
	if _, err := cloudfiles.NewStorageItem("a", long, "", 0); !errors.Is(err, cloudfiles.ErrMetaKeyTooLong) {
		t.Fatalf("long key: %v", err)
	}
	if _, err := cloudfiles.NewStorageItemWithStream("a", nil, "", nil, 0); !errors.Is(err, cloudfiles.ErrInvalidArgument) {
		t.Fatalf("nil stream: %v", err)
	}
}
