package listing

import (
	"reflect"
	"testing"
)

func TestLines(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected []string
	}{
		{name: "empty body", body: ``, expected: []string{}},
		{name: "single name", body: "a.txt\n", expected: []string{"a.txt"}},
		{name: "crlf and blanks", body: "a\r\n\r\nb/c d\r\n", expected: []string{"a", "b/c d"}},
		{name: "blank lines only", body: "\r\n\n", expected: []string{}},
		{name: "names keep surrounding spaces", body: " lead.txt\nmid.txt\nz trail \n", expected: []string{" lead.txt", "mid.txt", "z trail "}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := Lines([]byte(tc.body))
			if !reflect.DeepEqual(got, tc.expected) {
				t.Fatalf("Lines mismatch: expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestDecodeObjects(t *testing.T) {
	body := []byte(`[{"name":"a.txt","hash":"abc","bytes":12,"content_type":"text/plain","last_modified":"2009-02-03T05:26:32.612278"},{"subdir":"photos/"}]`)
	objs, err := DecodeObjects(body)
	if err != nil {
		t.Fatalf("DecodeObjects: %v", err)
	}
	if len(objs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(objs))
	}
	if objs[0].Name != "a.txt" || objs[0].Bytes != 12 || objs[0].ContentType != "text/plain" {
		t.Fatalf("unexpected first record: %#v", objs[0])
	}
	if objs[1].Subdir != "photos/" {
		t.Fatalf("unexpected subdir record: %#v", objs[1])
	}

	empty, err := DecodeObjects(nil)
	if err != nil || len(empty) != 0 {
		t.Fatalf("DecodeObjects(nil) = %v, %v", empty, err)
	}

	if _, err := DecodeObjects([]byte(`{"not":"a list"`)); err == nil {
		t.Fatalf("expected error for malformed json")
	}
}

func TestDecodeContainers(t *testing.T) {
	got, err := DecodeContainers([]byte(`[{"name":"images","count":3,"bytes":1024}]`))
	if err != nil {
		t.Fatalf("DecodeContainers: %v", err)
	}
	want := []Container{{Name: "images", Count: 3, Bytes: 1024}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("DecodeContainers mismatch: %#v", got)
	}
}

func TestParseDocument(t *testing.T) {
	body := `<?xml version="1.0" encoding="UTF-8"?>
<container name="docs">
  <object><name>a.txt</name><hash>abc</hash><bytes>3</bytes><content_type>text/plain</content_type><last_modified>2009-02-03T05:26:32.612278</last_modified></object>
  <subdir name="img/"><name>img/</name></subdir>
</container>`

	doc := ParseDocument(body)
	if doc.Name != "docs" {
		t.Fatalf("unexpected container name %q", doc.Name)
	}
	if len(doc.Objects) != 1 || doc.Objects[0].Name != "a.txt" || doc.Objects[0].Bytes != 3 {
		t.Fatalf("unexpected objects: %#v", doc.Objects)
	}
	if len(doc.Subdirs) != 1 || doc.Subdirs[0].Name != "img/" {
		t.Fatalf("unexpected subdirs: %#v", doc.Subdirs)
	}

	for _, bad := range []string{"", "<container name=", "not xml at all"} {
		doc := ParseDocument(bad)
		if doc == nil || doc.Name != "" || len(doc.Objects) != 0 {
			t.Fatalf("ParseDocument(%q) = %#v, want empty document", bad, doc)
		}
	}
}
