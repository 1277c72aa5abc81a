package devseed_test

import (
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/Ratio1/cloudfiles_sdk_go/internal/devseed"
)

func TestLoadDecodesContainers(t *testing.T) {
	fs := afero.NewMemMapFs()
	doc := `{"containers":[{"name":"photos","cdn":{"enabled":true,"ttl":900},
		"objects":[{"name":"a.txt","text":"hello"},{"name":"b.bin","base64":"AQID"}]}]}`
	if err := afero.WriteFile(fs, "/seed.json", []byte(doc), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	seed, err := devseed.Load(fs, "/seed.json")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(seed.Containers) != 1 || seed.Containers[0].Name != "photos" {
		t.Fatalf("unexpected containers: %#v", seed.Containers)
	}
	c := seed.Containers[0]
	if c.CDN == nil || !c.CDN.Enabled || c.CDN.TTL != 900 {
		t.Fatalf("unexpected cdn seed: %#v", c.CDN)
	}
	text, _ := c.Objects[0].Data()
	if string(text) != "hello" {
		t.Fatalf("text object = %q", text)
	}
	bin, _ := c.Objects[1].Data()
	if len(bin) != 3 || bin[2] != 3 {
		t.Fatalf("base64 object = %v", bin)
	}
}

func TestParseReportsEveryProblem(t *testing.T) {
	doc := `{"containers":[{"name":""},{"name":"a/b"},{"name":"ok","objects":[{"name":"/"},{"name":"x","base64":"!!"}]},{"name":"ok"}]}`
	_, err := devseed.Parse([]byte(doc))
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, want := range []string{"#0: name is required", "must not contain", "object #0", "decode base64", "duplicate"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := devseed.Load(afero.NewMemMapFs(), "/missing.json"); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
