// Package theme resolves palette tokens from the site configuration into CSS
// custom properties.
package theme

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// ErrUnknownColor is returned for tokens that are neither palette entries nor hex colours.
var ErrUnknownColor = errors.New("unknown theme colour")

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

// Resolve turns "blue.darken2", "amber" (base), "shades.white" or "#1976d2"
// into a CSS colour.
func Resolve(token string) (string, error) {
	token = strings.TrimSpace(token)
	if hexColor.MatchString(token) {
		return strings.ToLower(token), nil
	}

	name, variant, hasVariant := strings.Cut(token, ".")
	if name == "shades" && hasVariant {
		if c, ok := shades[variant]; ok {
			return c, nil
		}
		return "", fmt.Errorf("%w: %q", ErrUnknownColor, token)
	}
	if !hasVariant {
		variant = "base"
	}

	sw, ok := palette[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownColor, token)
	}
	for i, n := range toneNames {
		if n == variant {
			return sw.tones[i], nil
		}
	}
	for i, n := range accentNames {
		if n == variant && sw.accents[i] != "" {
			return sw.accents[i], nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownColor, token)
}

// Palette maps a role ("primary", "error", ...) to a resolved colour.
type Palette map[string]string

// Build resolves every token of a theme.
func Build(tokens map[string]string) (Palette, error) {
	p := make(Palette, len(tokens))
	for role, tok := range tokens {
		c, err := Resolve(tok)
		if err != nil {
			return nil, fmt.Errorf("theme role %s: %w", role, err)
		}
		p[role] = c
	}
	return p, nil
}

// ActiveName returns "dark" or "light".
func ActiveName(dark bool) string {
	if dark {
		return "dark"
	}
	return "light"
}

// CSSVariables renders the palette as sorted "--v-theme-<role>: <colour>;" declarations.
func (p Palette) CSSVariables() string {
	roles := make([]string, 0, len(p))
	for r := range p {
		roles = append(roles, r)
	}
	sort.Strings(roles)

	var b strings.Builder
	for _, r := range roles {
		fmt.Fprintf(&b, "--v-theme-%s: %s;", r, p[r])
	}
	return b.String()
}
