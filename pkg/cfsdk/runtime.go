package cfsdk

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/afero"

	"github.com/Ratio1/cloudfiles_sdk_go/internal/devseed"
	"github.com/Ratio1/cloudfiles_sdk_go/pkg/cloudfiles"
	"github.com/Ratio1/cloudfiles_sdk_go/pkg/cloudfiles/mock"
)

const (
	envMode     = "CLOUDFILES_RUNTIME_MODE"
	envMockSeed = "CLOUDFILES_MOCK_SEED"

	ModeAuto = "auto"
	ModeHTTP = "http"
	ModeMock = "mock"
)

// NewFromEnv initialises a client according to CLOUDFILES_RUNTIME_MODE and
// returns the resolved mode ("http" or "mock").
func NewFromEnv(opts ...cloudfiles.Option) (*cloudfiles.Client, string, error) {
	mode := strings.ToLower(strings.TrimSpace(os.Getenv(envMode)))

	switch mode {
	case "", ModeAuto:
		cfg, err := cloudfiles.ConfigFromEnv()
		if err != nil {
			return nil, "", fmt.Errorf("cfsdk: %w", err)
		}
		if hasCredentials(cfg) {
			return newHTTPClient(cfg, opts)
		}
		return newMockClient(opts)
	case ModeHTTP:
		cfg, err := cloudfiles.ConfigFromEnv()
		if err != nil {
			return nil, "", fmt.Errorf("cfsdk: %w", err)
		}
		if !hasCredentials(cfg) {
			return nil, "", fmt.Errorf("cfsdk: HTTP mode requires CLOUDFILES_USERNAME and CLOUDFILES_API_KEY, or CLOUDFILES_AUTH_TOKEN and CLOUDFILES_STORAGE_URL")
		}
		return newHTTPClient(cfg, opts)
	case ModeMock:
		return newMockClient(opts)
	default:
		return nil, "", fmt.Errorf("cfsdk: unsupported %s value %q", envMode, mode)
	}
}

// NewMock returns a client over a fresh in-memory account, seeded from the
// JSON file at seedPath when it is not empty.
func NewMock(fs afero.Fs, seedPath string, opts ...cloudfiles.Option) (*cloudfiles.Client, *mock.Mock, error) {
	m := mock.New()
	if strings.TrimSpace(seedPath) != "" {
		seed, err := devseed.Load(fs, seedPath)
		if err != nil {
			return nil, nil, fmt.Errorf("cfsdk: load mock seed: %w", err)
		}
		if err := m.Seed(seed); err != nil {
			return nil, nil, fmt.Errorf("cfsdk: apply mock seed: %w", err)
		}
	}
	return cloudfiles.NewWithTransport(m, opts...), m, nil
}

func hasCredentials(cfg cloudfiles.Config) bool {
	if strings.TrimSpace(cfg.AuthToken) != "" {
		return strings.TrimSpace(cfg.StorageURL) != ""
	}
	return strings.TrimSpace(cfg.Username) != "" && strings.TrimSpace(cfg.APIKey) != ""
}

func newHTTPClient(cfg cloudfiles.Config, opts []cloudfiles.Option) (*cloudfiles.Client, string, error) {
	client, err := cloudfiles.New(cfg, opts...)
	if err != nil {
		return nil, "", fmt.Errorf("cfsdk: init HTTP client: %w", err)
	}
	return client, ModeHTTP, nil
}

func newMockClient(opts []cloudfiles.Option) (*cloudfiles.Client, string, error) {
	client, _, err := NewMock(afero.NewOsFs(), os.Getenv(envMockSeed), opts...)
	if err != nil {
		return nil, "", err
	}
	return client, ModeMock, nil
}
