package render

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html"
)

var linkAttrs = map[string]bool{"href": true, "src": true}

// rewriteLinks prefixes root-relative href and src attributes with base.
// Everything else is copied through byte for byte.
func rewriteLinks(body []byte, base string) ([]byte, error) {
	if base == "/" || len(body) == 0 {
		return body, nil
	}

	var out bytes.Buffer
	z := html.NewTokenizer(bytes.NewReader(body))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if errors.Is(z.Err(), io.EOF) {
				return out.Bytes(), nil
			}
			return nil, z.Err()
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			out.Write(z.Raw())
			continue
		}

		raw := append([]byte(nil), z.Raw()...)
		tok := z.Token()
		changed := false
		for i, a := range tok.Attr {
			if a.Namespace == "" && linkAttrs[a.Key] {
				if nv := withBase(a.Val, base); nv != a.Val {
					tok.Attr[i].Val = nv
					changed = true
				}
			}
		}
		if changed {
			out.WriteString(tok.String())
		} else {
			out.Write(raw)
		}
	}
}

// withBase prefixes root-relative URLs. Root-relative URLs always address
// content paths, so a URL that already starts with base is prefixed again.
// Protocol-relative and absolute URLs and fragments are returned unchanged.
func withBase(u, base string) string {
	if base == "/" || !strings.HasPrefix(u, "/") || strings.HasPrefix(u, "//") {
		return u
	}
	return base + strings.TrimPrefix(u, "/")
}
