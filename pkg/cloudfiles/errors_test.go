package cloudfiles_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Ratio1/cloudfiles_sdk_go/pkg/cloudfiles"
)

func TestErrorMatchesSentinelByKind(t *testing.T) {
	cause := &cloudfiles.HTTPError{StatusCode: 404}
	err := fmt.Errorf("wrapped: %w", &cloudfiles.Error{Kind: cloudfiles.KindContainerNotFound, Op: "list objects", Path: "docs", Err: cause})

	if !errors.Is(err, cloudfiles.ErrContainerNotFound) {
		t.Fatalf("expected ErrContainerNotFound, got %v", err)
	}
	if errors.Is(err, cloudfiles.ErrStorageItemNotFound) {
		t.Fatalf("matched the wrong sentinel")
	}
	if cloudfiles.KindOf(err) != cloudfiles.KindContainerNotFound {
		t.Fatalf("KindOf = %v", cloudfiles.KindOf(err))
	}
	if code, ok := cloudfiles.StatusCode(err); !ok || code != 404 {
		t.Fatalf("StatusCode = %d %v", code, ok)
	}
	if want := "cloudfiles: list objects docs: container not found: http error: status=404 body="; err.Error() != "wrapped: "+want {
		t.Fatalf("Error() = %q", err.Error())
	}
}

func TestKindString(t *testing.T) {
	if cloudfiles.KindPublicContainerNotFound.String() != "public container not found" {
		t.Fatalf("unexpected name %q", cloudfiles.KindPublicContainerNotFound)
	}
	if cloudfiles.Kind(99).String() != "kind(99)" {
		t.Fatalf("unexpected fallback %q", cloudfiles.Kind(99))
	}
	if cloudfiles.KindOf(errors.New("plain")) != cloudfiles.KindUnknown {
		t.Fatalf("plain errors must be KindUnknown")
	}
}
