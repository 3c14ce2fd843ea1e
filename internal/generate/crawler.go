package generate

import (
	"bytes"
	"net/url"
	"path"
	"strings"

	"golang.org/x/net/html"
)

// crawlLinks returns the routes of internal <a href> links in page. Links must
// be root-relative and inside base; links to files (with an extension) are
// skipped. Returned routes have base removed, no query or fragment, and no
// trailing slash.
func crawlLinks(page []byte, base string) []string {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil
	}

	seen := map[string]bool{}
	var out []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, a := range n.Attr {
				if a.Key != "href" {
					continue
				}
				if r, ok := internalRoute(a.Val, base); ok && !seen[r] {
					seen[r] = true
					out = append(out, r)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return out
}

func internalRoute(href, base string) (string, bool) {
	if !strings.HasPrefix(href, "/") || strings.HasPrefix(href, "//") {
		return "", false
	}
	u, err := url.Parse(href)
	if err != nil || u.Path == "" {
		return "", false
	}
	p := u.Path
	if base != "/" {
		if p+"/" == base {
			return "/", true
		}
		if !strings.HasPrefix(p, base) {
			return "", false
		}
		p = "/" + strings.TrimPrefix(p, base)
	}
	if path.Ext(p) != "" {
		return "", false
	}
	if p != "/" {
		p = strings.TrimSuffix(p, "/")
	}
	if ValidateRoute(p) != nil {
		return "", false
	}
	return p, true
}
