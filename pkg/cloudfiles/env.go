package cloudfiles

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/ilyakaznacheev/cleanenv"
)

// Config describes how to reach an account. Either Username and APIKey, or
// AuthToken and StorageURL, must be set.
type Config struct {
	AuthURL    string        `env:"CLOUDFILES_AUTH_URL" env-default:"https://identity.api.rackspacecloud.com/v1.0" env-description:"v1.0 identity endpoint"`
	Username   string        `env:"CLOUDFILES_USERNAME" env-description:"account user name"`
	APIKey     string        `env:"CLOUDFILES_API_KEY" env-description:"account API key"`
	AuthToken  string        `env:"CLOUDFILES_AUTH_TOKEN" env-description:"pre-issued token, skips authentication"`
	StorageURL string        `env:"CLOUDFILES_STORAGE_URL" env-description:"storage endpoint used with CLOUDFILES_AUTH_TOKEN"`
	CDNURL     string        `env:"CLOUDFILES_CDN_URL" env-description:"CDN management endpoint used with CLOUDFILES_AUTH_TOKEN"`
	Timeout    time.Duration `env:"CLOUDFILES_TIMEOUT" env-default:"30s" env-description:"per-attempt HTTP timeout"`
	MaxRetries int           `env:"CLOUDFILES_MAX_RETRIES" env-default:"3" env-description:"retries for transient failures"`
	RateLimit  float64       `env:"CLOUDFILES_RATE_LIMIT" env-default:"0" env-description:"requests per second per endpoint, 0 disables"`
	RateBurst  int           `env:"CLOUDFILES_RATE_BURST" env-default:"10"`
	UserAgent  string        `env:"CLOUDFILES_USER_AGENT" env-default:"cloudfiles-sdk-go"`
}

// ConfigFromEnv reads Config from the process environment.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("cloudfiles: read environment: %w", err)
	}
	return cfg, nil
}

// NewFromEnv builds a Client from ConfigFromEnv.
func NewFromEnv(opts ...Option) (*Client, error) {
	cfg, err := ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	return New(cfg, opts...)
}

// Validate reports every problem with the configuration at once.
func (c Config) Validate() error {
	var result *multierror.Error
	if c.usesStaticToken() {
		if err := checkURL("storage URL", c.StorageURL); err != nil {
			result = multierror.Append(result, err)
		}
		if c.CDNURL != "" {
			if err := checkURL("CDN URL", c.CDNURL); err != nil {
				result = multierror.Append(result, err)
			}
		}
	} else {
		if strings.TrimSpace(c.Username) == "" {
			result = multierror.Append(result, fmt.Errorf("username is required unless an auth token is given"))
		}
		if strings.TrimSpace(c.APIKey) == "" {
			result = multierror.Append(result, fmt.Errorf("API key is required unless an auth token is given"))
		}
		if c.AuthURL != "" {
			if err := checkURL("auth URL", c.AuthURL); err != nil {
				result = multierror.Append(result, err)
			}
		}
	}
	if c.MaxRetries < 0 {
		result = multierror.Append(result, fmt.Errorf("max retries must not be negative"))
	}
	if c.RateLimit < 0 {
		result = multierror.Append(result, fmt.Errorf("rate limit must not be negative"))
	}
	if err := result.ErrorOrNil(); err != nil {
		return fmt.Errorf("cloudfiles: invalid config: %w", err)
	}
	return nil
}

func (c Config) usesStaticToken() bool {
	return strings.TrimSpace(c.AuthToken) != ""
}

func (c Config) options() []Option {
	opts := []Option{WithTimeout(c.Timeout), WithRateLimit(c.RateLimit, c.RateBurst)}
	if c.UserAgent != "" {
		opts = append(opts, WithUserAgent(c.UserAgent))
	}
	policy := DefaultRetryPolicy
	policy.MaxRetries = c.MaxRetries
	opts = append(opts, WithRetryPolicy(policy))
	return opts
}

func checkURL(name, raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s %q must be an absolute URL", name, raw)
	}
	return nil
}
