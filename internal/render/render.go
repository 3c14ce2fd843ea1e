package render

import (
	"bytes"
	"embed"
	"fmt"
	"html"
	"html/template"
	"sort"
	"strings"

	bm "github.com/microcosm-cc/bluemonday"

	"git.home.luguber.info/inful/panorama/internal/config"
	"git.home.luguber.info/inful/panorama/internal/content"
	"git.home.luguber.info/inful/panorama/internal/foundation/errors"
	"git.home.luguber.info/inful/panorama/internal/markdown"
	"git.home.luguber.info/inful/panorama/internal/theme"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// UnsafeField lets a single document opt out of sanitizing.
const UnsafeField = "unsafe"

// Renderer is safe for concurrent use once constructed.
type Renderer struct {
	head        config.HeadConfig
	crossorigin string
	base        string
	sanitize    bool
	dark        bool

	md       *markdown.Renderer
	policy   *bm.Policy
	tmpl     *template.Template
	headTags template.HTML
	themeCSS template.CSS
}

// layoutData feeds templates/layout.html.tmpl.
type layoutData struct {
	Route    string
	Title    string
	HeadTags template.HTML
	ThemeCSS template.CSS
	Dark     bool
	TOC      []markdown.Heading
	Body     template.HTML
}

// New prepares the layout for cfg. Theme tokens are resolved once here.
func New(cfg *config.Config) (*Renderer, error) {
	tmpl, err := template.New("layout.html.tmpl").Funcs(funcs).ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "failed to parse page templates").Build()
	}

	r := &Renderer{
		head:        cfg.Head,
		crossorigin: cfg.Render.Crossorigin,
		base:        config.NormalizeBase(cfg.Router.Base),
		sanitize:    cfg.Content.Sanitize,
		dark:        cfg.Theme.Dark,
		md:          markdown.NewRenderer(),
		policy:      bm.UGCPolicy(),
		tmpl:        tmpl,
	}

	active := theme.ActiveName(cfg.Theme.Dark)
	if tokens, ok := cfg.Theme.Themes[active]; ok {
		palette, err := theme.Build(tokens)
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryConfig, "invalid theme").
				WithContext("theme", active).Build()
		}
		if vars := palette.CSSVariables(); vars != "" {
			r.themeCSS = template.CSS(":root{" + vars + "}")
		}
	}
	r.headTags = template.HTML(r.buildHeadTags())
	return r, nil
}

// Page renders the document for route. A nil entry renders an empty page
// carrying only the site head.
func (r *Renderer) Page(route string, e *content.Entry) ([]byte, error) {
	data := layoutData{
		Route:    route,
		Title:    r.Title(""),
		HeadTags: r.headTags,
		ThemeCSS: r.themeCSS,
		Dark:     r.dark,
	}
	if e == nil {
		return r.execute(data)
	}
	data.Title = r.Title(e.Title)

	var body []byte
	if e.Extension == ".md" || (e.Extension == "" && e.Body != nil) {
		doc, err := r.md.Render(e.Body)
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryRender, "failed to render markdown").
				WithContext("route", route).Build()
		}
		body, data.TOC = doc.HTML, doc.TOC
	} else {
		var buf bytes.Buffer
		if err := r.tmpl.ExecuteTemplate(&buf, "value", e.Fields); err != nil {
			return nil, errors.WrapError(err, errors.CategoryRender, "failed to render data document").
				WithContext("route", route).Build()
		}
		body = buf.Bytes()
	}

	if r.sanitize && !e.Bool(UnsafeField) {
		body = r.policy.SanitizeBytes(body)
	}
	body, err := rewriteLinks(body, r.base)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryRender, "failed to rewrite links").
			WithContext("route", route).Build()
	}
	data.Body = template.HTML(body) //nolint:gosec // sanitized above unless the document opts out
	return r.execute(data)
}

// Fallback renders the page served for unknown routes.
func (r *Renderer) Fallback() ([]byte, error) {
	return r.execute(layoutData{
		Route:    "",
		Title:    r.Title("Page not found"),
		HeadTags: r.headTags,
		ThemeCSS: r.themeCSS,
		Dark:     r.dark,
		Body:     template.HTML(`<h1>Page not found</h1>`),
	})
}

// Title applies the title template. An empty page title yields the site title.
func (r *Renderer) Title(page string) string {
	if page == "" {
		return r.head.Title
	}
	if strings.Contains(r.head.TitleTemplate, "%s") {
		return strings.Replace(r.head.TitleTemplate, "%s", page, 1)
	}
	return page
}

func (r *Renderer) execute(data layoutData) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "layout.html.tmpl", data); err != nil {
		return nil, errors.WrapError(err, errors.CategoryRender, "failed to execute layout").
			WithContext("route", data.Route).Build()
	}
	return buf.Bytes(), nil
}

func (r *Renderer) buildHeadTags() string {
	var b strings.Builder
	for _, attrs := range r.head.Meta {
		b.WriteString(tag("meta", attrs))
		b.WriteByte('\n')
	}
	for _, attrs := range r.head.Link {
		a := make(map[string]string, len(attrs)+1)
		for k, v := range attrs {
			a[k] = v
		}
		if href, ok := a["href"]; ok {
			a["href"] = withBase(href, r.base)
		}
		if r.crossorigin != "" {
			a["crossorigin"] = r.crossorigin
		}
		b.WriteString(tag("link", a))
		b.WriteByte('\n')
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// tag renders a void element. The "hid" key only identifies head entries and
// is not emitted.
func tag(name string, attrs map[string]string) string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		if k != "hid" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var b strings.Builder
	fmt.Fprintf(&b, "<%s", name)
	for _, k := range keys {
		fmt.Fprintf(&b, ` %s="%s"`, html.EscapeString(k), html.EscapeString(attrs[k]))
	}
	b.WriteString(">")
	return b.String()
}
