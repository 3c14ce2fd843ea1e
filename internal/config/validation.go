package config

import (
	"fmt"
	"regexp"
	"strings"

	"git.home.luguber.info/inful/panorama/internal/foundation/errors"
	"git.home.luguber.info/inful/panorama/internal/theme"
)

// Validate checks the configuration and returns the first problem found as a
// classified validation error.
func Validate(cfg *Config) error {
	return newConfigurationValidator(cfg).validate()
}

type configurationValidator struct {
	config *Config
}

func newConfigurationValidator(cfg *Config) *configurationValidator {
	return &configurationValidator{config: cfg}
}

func (cv *configurationValidator) validate() error {
	for _, step := range []func() error{
		cv.validateTarget,
		cv.validateHead,
		cv.validateContent,
		cv.validateTheme,
		cv.validatePurgeCSS,
		cv.validateBuild,
		cv.validateGenerate,
	} {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func invalid(field, format string, args ...any) error {
	return errors.ValidationError(fmt.Sprintf(format, args...)).
		WithContext("field", field).Build()
}

func (cv *configurationValidator) validateTarget() error {
	switch cv.config.Target {
	case TargetStatic, TargetServer:
		return nil
	default:
		return invalid("target", "unsupported target %q (want static or server)", cv.config.Target)
	}
}

func (cv *configurationValidator) validateHead() error {
	if n := strings.Count(cv.config.Head.TitleTemplate, "%s"); n > 1 {
		return invalid("head.title_template", "title template may contain at most one %%s, found %d", n)
	}
	return nil
}

func (cv *configurationValidator) validateContent() error {
	c := cv.config.Content
	if c.Dir == "" && c.Git == nil {
		return invalid("content.dir", "content directory cannot be empty")
	}
	if c.Git == nil {
		return nil
	}
	if c.Git.URL == "" {
		return invalid("content.git.url", "git source requires a url")
	}
	if c.Git.Depth < 0 {
		return invalid("content.git.depth", "depth must be >= 0")
	}
	if a := c.Git.Auth; a != nil {
		switch a.Type {
		case AuthTypeNone:
		case AuthTypeToken:
			if a.Token == "" {
				return invalid("content.git.auth.token", "token auth requires a token")
			}
		case AuthTypeBasic:
			if a.Username == "" || a.Password == "" {
				return invalid("content.git.auth", "basic auth requires username and password")
			}
		default:
			return invalid("content.git.auth.type", "unsupported auth type %q", a.Type)
		}
	}
	r := c.Git.Retry
	switch r.Backoff {
	case "", RetryBackoffFixed, RetryBackoffLinear, RetryBackoffExponential:
	default:
		return invalid("content.git.retry.backoff", "unsupported backoff mode %q", r.Backoff)
	}
	if r.MaxRetries < 0 {
		return invalid("content.git.retry.max_retries", "max_retries must be >= 0")
	}
	return nil
}

func (cv *configurationValidator) validateTheme() error {
	for name, tokens := range cv.config.Theme.Themes {
		if _, err := theme.Build(tokens); err != nil {
			return errors.WrapError(err, errors.CategoryValidation, "invalid theme colour").
				Fatal().UserAction().WithContext("field", "theme.themes."+name).Build()
		}
	}
	return nil
}

func (cv *configurationValidator) validatePurgeCSS() error {
	for _, expr := range cv.config.PurgeCSS.Safelist.Deep {
		if _, err := regexp.Compile(expr); err != nil {
			return invalid("purge_css.safelist.deep", "invalid safelist pattern %q: %v", expr, err)
		}
	}
	return nil
}

func (cv *configurationValidator) validateBuild() error {
	sc := cv.config.Build.SplitChunks
	if sc.MinSize < 0 || sc.MaxSize < 0 || sc.EnforceSizeThreshold < 0 {
		return invalid("build.split_chunks", "chunk sizes must be >= 0")
	}
	if sc.MaxSize > 0 && sc.MinSize > sc.MaxSize {
		return invalid("build.split_chunks", "min_size (%d) exceeds max_size (%d)", sc.MinSize, sc.MaxSize)
	}
	return nil
}

func (cv *configurationValidator) validateGenerate() error {
	g := cv.config.Generate
	if g.Dir == "" {
		return invalid("generate.dir", "output directory cannot be empty")
	}
	if g.Concurrency < 1 {
		return invalid("generate.concurrency", "concurrency must be >= 1")
	}
	if g.Interval < 0 {
		return invalid("generate.interval", "interval must be >= 0")
	}
	if strings.ContainsAny(g.Fallback, `/\`) {
		return invalid("generate.fallback", "fallback must be a file name, got %q", g.Fallback)
	}
	if g.Notify.Timeout < 0 {
		return invalid("generate.notify.timeout", "timeout must be >= 0")
	}
	return nil
}
