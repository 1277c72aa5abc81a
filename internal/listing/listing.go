// Package listing decodes the three container and account listing formats
// served by Cloud Files: newline separated names, JSON records and XML.
package listing

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"strings"
)

// Object is an entry in a container listing. Subdir is set instead of the
// other fields when the listing was requested with a delimiter.
type Object struct {
	XMLName      xml.Name `json:"-" xml:"object"`
	Name         string   `json:"name" xml:"name"`
	Hash         string   `json:"hash,omitempty" xml:"hash"`
	Bytes        int64    `json:"bytes" xml:"bytes"`
	ContentType  string   `json:"content_type,omitempty" xml:"content_type"`
	LastModified string   `json:"last_modified,omitempty" xml:"last_modified"`
	Subdir       string   `json:"subdir,omitempty" xml:"-"`
}

// Container is an entry in an account listing.
type Container struct {
	Name  string `json:"name" xml:"name"`
	Count int64  `json:"count" xml:"count"`
	Bytes int64  `json:"bytes" xml:"bytes"`
}

// Subdir is a pseudo-directory entry of an XML listing.
type Subdir struct {
	Name string `xml:"name,attr"`
}

// Document is the XML form of a container listing.
type Document struct {
	XMLName xml.Name `xml:"container"`
	Name    string   `xml:"name,attr"`
	Objects []Object `xml:"object"`
	Subdirs []Subdir `xml:"subdir"`
}

// Lines splits a plain text listing into names, dropping blank lines. Names
// are kept verbatim; Swift allows leading and trailing spaces.
func Lines(body []byte) []string {
	raw := strings.Split(string(body), "\n")
	names := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}
		names = append(names, line)
	}
	return names
}

// DecodeObjects parses a format=json container listing. An empty body is an
// empty listing.
func DecodeObjects(body []byte) ([]Object, error) {
	out := []Object{}
	if len(bytes.TrimSpace(body)) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DecodeContainers parses a format=json account listing.
func DecodeContainers(body []byte) ([]Container, error) {
	out := []Container{}
	if len(bytes.TrimSpace(body)) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ParseDocument parses a format=xml container listing. Malformed input yields
// an empty document rather than an error.
func ParseDocument(body string) *Document {
	doc := &Document{}
	if strings.TrimSpace(body) == "" {
		return doc
	}
	if err := xml.Unmarshal([]byte(body), doc); err != nil {
		return &Document{}
	}
	return doc
}
