// Package cfsdk bootstraps a Cloud Files client from the environment.
// CLOUDFILES_RUNTIME_MODE selects "http" (a live account configured through
// the CLOUDFILES_* variables read by cloudfiles.ConfigFromEnv), "mock" (an
// in-memory account, optionally seeded from CLOUDFILES_MOCK_SEED) or "auto",
// which picks http when credentials are present and falls back to the mock.
package cfsdk
