package cloudfiles_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ratio1/cloudfiles_sdk_go/pkg/cloudfiles"
)

func TestConfigFromEnvDefaults(t *testing.T) {
	t.Setenv("CLOUDFILES_USERNAME", "alice")
	t.Setenv("CLOUDFILES_API_KEY", "secret")

	cfg, err := cloudfiles.ConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, cloudfiles.DefaultAuthURL, cfg.AuthURL)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, "cloudfiles-sdk-go", cfg.UserAgent)
	require.NoError(t, cfg.Validate())
}

func TestConfigFromEnvStaticToken(t *testing.T) {
	t.Setenv("CLOUDFILES_AUTH_TOKEN", "tok")
	t.Setenv("CLOUDFILES_STORAGE_URL", "https://storage.example.com/v1/acct")
	t.Setenv("CLOUDFILES_TIMEOUT", "2s")
	t.Setenv("CLOUDFILES_RATE_LIMIT", "5.5")

	cfg, err := cloudfiles.ConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.Timeout)
	assert.Equal(t, 5.5, cfg.RateLimit)
	require.NoError(t, cfg.Validate())

	client, err := cloudfiles.New(cfg)
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestConfigValidateReportsEveryProblem(t *testing.T) {
	err := cloudfiles.Config{AuthURL: "not a url", MaxRetries: -1, RateLimit: -2}.Validate()
	require.Error(t, err)
	for _, want := range []string{"username is required", "API key is required", "auth URL", "max retries", "rate limit"} {
		assert.True(t, strings.Contains(err.Error(), want), "missing %q in %v", want, err)
	}

	err = cloudfiles.Config{AuthToken: "tok", StorageURL: "/relative"}.Validate()
	assert.ErrorContains(t, err, "storage URL")
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := cloudfiles.New(cloudfiles.Config{})
	assert.Error(t, err)
}
