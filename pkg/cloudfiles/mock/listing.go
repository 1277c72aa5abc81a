package mock

import (
	"encoding/json"
	"encoding/xml"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/Ratio1/cloudfiles_sdk_go/internal/listing"
	"github.com/Ratio1/cloudfiles_sdk_go/pkg/cloudfiles"
)

type listParams struct {
	limit     int
	marker    string
	endMarker string
	prefix    string
	delimiter string
	path      string
	format    string
	hasPath   bool
}

func parseListParams(q url.Values) (listParams, string) {
	p := listParams{
		marker:    q.Get("marker"),
		endMarker: q.Get("end_marker"),
		prefix:    q.Get("prefix"),
		delimiter: q.Get("delimiter"),
		path:      q.Get("path"),
		format:    strings.ToLower(q.Get("format")),
		hasPath:   q.Has("path"),
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return p, "invalid limit"
		}
		p.limit = n
	}
	switch p.format {
	case "", "plain", "text", string(cloudfiles.FormatJSON), string(cloudfiles.FormatXML):
	default:
		return p, "unsupported format"
	}
	return p, ""
}

// entry is either an object or a rolled-up subdir.
type entry struct {
	name   string
	obj    *object
	subdir bool
}

func (m *Mock) listObjects(name string, c *container, q url.Values) reply {
	p, msg := parseListParams(q)
	if msg != "" {
		return errorReply(http.StatusBadRequest, msg)
	}

	names := make([]string, 0, len(c.objects))
	for n := range c.objects {
		names = append(names, n)
	}
	sort.Strings(names)

	var entries []entry
	seenDirs := make(map[string]bool)
	for _, n := range names {
		if !p.matches(n) {
			continue
		}
		if p.delimiter != "" && !p.hasPath {
			rest := strings.TrimPrefix(n, p.prefix)
			if i := strings.Index(rest, p.delimiter); i >= 0 {
				dir := p.prefix + rest[:i+len(p.delimiter)]
				if !seenDirs[dir] {
					seenDirs[dir] = true
					entries = append(entries, entry{name: dir, subdir: true})
				}
				continue
			}
		}
		entries = append(entries, entry{name: n, obj: c.objects[n]})
		if p.limit > 0 && len(entries) >= p.limit {
			break
		}
	}
	if p.limit > 0 && len(entries) > p.limit {
		entries = entries[:p.limit]
	}

	switch p.format {
	case string(cloudfiles.FormatJSON):
		records := make([]listing.Object, 0, len(entries))
		for _, e := range entries {
			records = append(records, e.record())
		}
		return jsonReply(records)
	case string(cloudfiles.FormatXML):
		doc := listing.Document{Name: name}
		for _, e := range entries {
			if e.subdir {
				doc.Subdirs = append(doc.Subdirs, listing.Subdir{Name: e.name})
				continue
			}
			doc.Objects = append(doc.Objects, e.record())
		}
		return xmlReply(doc)
	default:
		out := make([]string, 0, len(entries))
		for _, e := range entries {
			out = append(out, e.name)
		}
		return plainListing(out)
	}
}

func (p listParams) matches(name string) bool {
	if p.marker != "" && name <= p.marker {
		return false
	}
	if p.endMarker != "" && name >= p.endMarker {
		return false
	}
	if p.prefix != "" && !strings.HasPrefix(name, p.prefix) {
		return false
	}
	if p.hasPath {
		dir := strings.Trim(p.path, "/")
		parent := ""
		if i := strings.LastIndex(name, "/"); i >= 0 {
			parent = name[:i]
		}
		return parent == dir && name != dir
	}
	return true
}

func (e entry) record() listing.Object {
	if e.subdir {
		return listing.Object{Subdir: e.name}
	}
	return listing.Object{
		Name:         e.name,
		Hash:         e.obj.etag,
		Bytes:        int64(len(e.obj.data)),
		ContentType:  e.obj.contentType,
		LastModified: e.obj.modified.Format(lastModifiedLayout),
	}
}

type accountDocument struct {
	XMLName    xml.Name            `xml:"account"`
	Containers []listing.Container `xml:"container"`
}

func (m *Mock) listContainers(q url.Values) reply {
	p, msg := parseListParams(q)
	if msg != "" {
		return errorReply(http.StatusBadRequest, msg)
	}
	var records []listing.Container
	for _, n := range sortedContainerNames(m.containers) {
		if !p.matches(n) {
			continue
		}
		c := m.containers[n]
		records = append(records, listing.Container{Name: n, Count: int64(len(c.objects)), Bytes: c.bytes()})
		if p.limit > 0 && len(records) >= p.limit {
			break
		}
	}
	switch p.format {
	case string(cloudfiles.FormatJSON):
		if records == nil {
			records = []listing.Container{}
		}
		return jsonReply(records)
	case string(cloudfiles.FormatXML):
		return xmlReply(accountDocument{Containers: records})
	default:
		names := make([]string, 0, len(records))
		for _, r := range records {
			names = append(names, r.Name)
		}
		return plainListing(names)
	}
}

// plainListing answers 204 for an empty listing, as the service does.
func plainListing(names []string) reply {
	if len(names) == 0 {
		return status(http.StatusNoContent)
	}
	r := status(http.StatusOK)
	r.header.Set("Content-Type", "text/plain; charset=utf-8")
	r.body = []byte(strings.Join(names, "\n") + "\n")
	return r
}

func jsonReply(v any) reply {
	data, err := json.Marshal(v)
	if err != nil {
		return errorReply(http.StatusInternalServerError, err.Error())
	}
	r := status(http.StatusOK)
	r.header.Set("Content-Type", "application/json; charset=utf-8")
	r.body = data
	return r
}

func xmlReply(v any) reply {
	data, err := xml.Marshal(v)
	if err != nil {
		return errorReply(http.StatusInternalServerError, err.Error())
	}
	r := status(http.StatusOK)
	r.header.Set("Content-Type", "application/xml; charset=utf-8")
	r.body = append([]byte(xml.Header), data...)
	return r
}

func sortedContainerNames(containers map[string]*container) []string {
	names := make([]string, 0, len(containers))
	for n := range containers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
