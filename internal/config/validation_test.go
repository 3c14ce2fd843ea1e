package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/panorama/internal/foundation/errors"
)

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad target", func(c *Config) { c.Target = "spa" }, "target"},
		{"two placeholders", func(c *Config) { c.Head.TitleTemplate = "%s %s" }, "head.title_template"},
		{"empty content dir", func(c *Config) { c.Content.Dir = "" }, "content.dir"},
		{"git without url", func(c *Config) { c.Content.Git = &GitSourceConfig{} }, "content.git.url"},
		{"token without token", func(c *Config) {
			c.Content.Git = &GitSourceConfig{URL: "https://example.com/r.git", Auth: &AuthConfig{Type: AuthTypeToken}}
		}, "content.git.auth.token"},
		{"unknown backoff", func(c *Config) {
			c.Content.Git = &GitSourceConfig{URL: "https://example.com/r.git", Retry: RetryConfig{Backoff: "random"}}
		}, "content.git.retry.backoff"},
		{"unknown colour", func(c *Config) { c.Theme.Themes["dark"]["primary"] = "mauve.darken2" }, "theme.themes.dark"},
		{"bad safelist regex", func(c *Config) { c.PurgeCSS.Safelist.Deep = []string{"("} }, "purge_css.safelist.deep"},
		{"min above max", func(c *Config) { c.Build.SplitChunks.MinSize = 70000 }, "build.split_chunks"},
		{"zero concurrency", func(c *Config) { c.Generate.Concurrency = 0 }, "generate.concurrency"},
		{"empty output", func(c *Config) { c.Generate.Dir = "" }, "generate.dir"},
		{"nested fallback", func(c *Config) { c.Generate.Fallback = "x/404.html" }, "generate.fallback"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := Validate(cfg)
			require.Error(t, err)

			ce, ok := errors.AsClassified(err)
			require.True(t, ok)
			assert.Equal(t, errors.CategoryValidation, ce.Category())
			field, _ := ce.Context().GetString("field")
			assert.Equal(t, tt.field, field)
		})
	}
}

func TestValidateAcceptsGitSource(t *testing.T) {
	cfg := Default()
	cfg.Content.Git = &GitSourceConfig{
		URL:   "https://example.com/site.git",
		Auth:  &AuthConfig{Type: AuthTypeBasic, Username: "u", Password: "p"},
		Retry: RetryConfig{Backoff: RetryBackoffExponential, MaxRetries: 3},
	}
	require.NoError(t, Validate(cfg))
}
