// Package devseed loads JSON seed files that pre-populate the in-memory
// Cloud Files account used by the mock runtime and the sandbox.
package devseed

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"
)

// Seed is the root of a seed file.
type Seed struct {
	Containers []ContainerSeed `json:"containers"`
}

// ContainerSeed describes one container and its objects.
type ContainerSeed struct {
	Name     string            `json:"name"`
	Metadata map[string]string `json:"metadata,omitempty"`
	CDN      *CDNSeed          `json:"cdn,omitempty"`
	Objects  []ObjectSeed      `json:"objects,omitempty"`
}

// CDNSeed marks a container as published.
type CDNSeed struct {
	Enabled      bool   `json:"enabled"`
	TTL          int    `json:"ttl,omitempty"`
	LogRetention bool   `json:"log_retention,omitempty"`
	ReferrerACL  string `json:"referrer_acl,omitempty"`
	UserAgentACL string `json:"user_agent_acl,omitempty"`
}

// ObjectSeed is one object. Content comes from Base64 when set, otherwise
// from Text.
type ObjectSeed struct {
	Name        string            `json:"name"`
	ContentType string            `json:"content_type,omitempty"`
	Text        string            `json:"text,omitempty"`
	Base64      string            `json:"base64,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Data returns the decoded object content.
func (o ObjectSeed) Data() ([]byte, error) {
	if o.Base64 != "" {
		data, err := base64.StdEncoding.DecodeString(o.Base64)
		if err != nil {
			return nil, fmt.Errorf("decode base64 of %q: %w", o.Name, err)
		}
		return data, nil
	}
	return []byte(o.Text), nil
}

// Load reads and validates the seed file at path from fs.
func Load(fs afero.Fs, path string) (*Seed, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	raw, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("devseed: read %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes and validates a seed document.
func Parse(raw []byte) (*Seed, error) {
	var seed Seed
	if err := json.Unmarshal(raw, &seed); err != nil {
		return nil, fmt.Errorf("devseed: decode: %w", err)
	}
	if err := seed.Validate(); err != nil {
		return nil, err
	}
	return &seed, nil
}

// Validate reports every malformed entry at once.
func (s *Seed) Validate() error {
	var result *multierror.Error
	seen := make(map[string]bool, len(s.Containers))
	for i, c := range s.Containers {
		name := strings.TrimSpace(c.Name)
		switch {
		case name == "":
			result = multierror.Append(result, fmt.Errorf("container #%d: name is required", i))
			continue
		case strings.Contains(name, "/"):
			result = multierror.Append(result, fmt.Errorf("container %q: name must not contain '/'", name))
		case seen[name]:
			result = multierror.Append(result, fmt.Errorf("container %q: duplicate entry", name))
		}
		seen[name] = true
		for j, o := range c.Objects {
			if strings.Trim(o.Name, "/") == "" {
				result = multierror.Append(result, fmt.Errorf("container %q object #%d: name is required", name, j))
				continue
			}
			if _, err := o.Data(); err != nil {
				result = multierror.Append(result, fmt.Errorf("container %q: %w", name, err))
			}
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return fmt.Errorf("devseed: invalid seed: %w", err)
	}
	return nil
}
