package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/diewo77/go-intake/auth"
	"github.com/diewo77/go-intake/i18n"
	"github.com/dustin/go-humanize"
)

//go:embed templates
var embedded embed.FS

var (
	mu       sync.RWMutex
	files    fs.FS = mustSub(embedded, "templates")
	tplCache       = map[string]*template.Template{}

	// permission resolvers can be set by the host app to allow templates to check auth
	canProfileResolver func(*http.Request, string, string) bool
	isAdminResolver    func(*http.Request) bool
)

func mustSub(f fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(f, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

// SetCanProfileResolver sets a callback used by templates to check profile-level permissions.
func SetCanProfileResolver(f func(*http.Request, string, string) bool) {
	if f != nil {
		canProfileResolver = f
	}
}

// SetIsAdminResolver sets a callback used by templates to determine superadmin users.
func SetIsAdminResolver(f func(*http.Request) bool) {
	if f != nil {
		isAdminResolver = f
	}
}

// SetBaseDir serves templates from a directory on disk instead of the
// embedded copy, so they can be edited without a rebuild.
func SetBaseDir(dir string) {
	if dir == "" {
		return
	}
	mu.Lock()
	files = os.DirFS(dir)
	tplCache = map[string]*template.Template{}
	mu.Unlock()
}

// ResetForTests restores the embedded templates and clears the cache.
func ResetForTests() {
	mu.Lock()
	files = mustSub(embedded, "templates")
	tplCache = map[string]*template.Template{}
	mu.Unlock()
}

// Funcs returns the template helpers bound to r.
func Funcs(r *http.Request) template.FuncMap {
	lang := i18n.Normalize(i18n.LangFromContext(r.Context()))
	return template.FuncMap{
		"t":    func(code string) string { return i18n.T(lang, code) },
		"lang": func() string { return lang },
		// can checks profile-level permission (resource, action) -> bool
		"can": func(resource string, action string) bool {
			if canProfileResolver == nil {
				return false
			}
			return canProfileResolver(r, resource, action)
		},
		"isAdmin": func() bool {
			if isAdminResolver == nil {
				return false
			}
			return isAdminResolver(r)
		},
		"year":  func() int { return time.Now().Year() },
		"bytes": func(n int64) string { return humanize.Bytes(uint64(max(n, 0))) },
		"ago": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return humanize.Time(t)
		},
		// withLang returns the current URL with lang replaced, for the language switcher.
		"withLang": func(l string) string {
			u := *r.URL
			q := u.Query()
			q.Set("lang", l)
			u.RawQuery = q.Encode()
			return u.RequestURI()
		},
		"langs": func() []string { return i18n.Supported },
		// dict creates a map from key-value pairs for passing to sub-templates.
		// Usage: {{ template "partial" (dict "Key1" val1 "Key2" val2) }}
		"dict": func(values ...any) map[string]any {
			if len(values)%2 != 0 {
				return nil
			}
			m := make(map[string]any, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					continue
				}
				m[key] = values[i+1]
			}
			return m
		},
		"query": url.QueryEscape,
	}
}

// parse builds the template set of name: the layout, the partials and the
// page itself. Pages that are full documents skip the layout.
func parse(name string) (*template.Template, error) {
	mu.RLock()
	t, ok := tplCache[name]
	src := files
	mu.RUnlock()
	if ok {
		return t, nil
	}

	page, err := fs.ReadFile(src, name)
	if err != nil {
		return nil, err
	}
	// Placeholder funcs; the real ones are bound per request on a clone.
	stub := Funcs(httptestRequest)
	var root *template.Template
	if bytes.Contains(bytes.ToLower(page), []byte("<!doctype")) {
		root, err = template.New(path.Base(name)).Funcs(stub).Parse(string(page))
	} else {
		root, err = template.New("layout.html").Funcs(stub).ParseFS(src, "layout.html")
		if err == nil {
			if partials, _ := fs.Glob(src, "partials/*.html"); len(partials) > 0 {
				root, err = root.ParseFS(src, partials...)
			}
		}
		if err == nil {
			_, err = root.New(path.Base(name)).Parse(string(page))
		}
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	mu.Lock()
	tplCache[name] = root
	mu.Unlock()
	return root, nil
}

var httptestRequest = &http.Request{URL: &url.URL{Path: "/"}, Header: http.Header{}}

// Render executes the page name inside the layout with helpers bound to r.
// Common keys (IsLoggedIn, Lang, Path) are filled in when absent.
func Render(w http.ResponseWriter, r *http.Request, name string, data map[string]any) error {
	base, err := parse(name)
	if err != nil {
		return err
	}
	t, err := base.Clone()
	if err != nil {
		return err
	}
	t.Funcs(Funcs(r))

	if data == nil {
		data = map[string]any{}
	}
	if _, exists := data["IsLoggedIn"]; !exists {
		_, loggedIn := auth.UserIDFromContext(r.Context())
		data["IsLoggedIn"] = loggedIn
	}
	if _, exists := data["Lang"]; !exists {
		data["Lang"] = i18n.Normalize(i18n.LangFromContext(r.Context()))
	}
	if _, exists := data["Path"]; !exists {
		data["Path"] = r.URL.RequestURI()
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return err
	}
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	}
	_, err = buf.WriteTo(w)
	return err
}

// RenderStatus is Render with an explicit status code.
func RenderStatus(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) error {
	var buf bytes.Buffer
	rec := &bufferWriter{header: w.Header(), buf: &buf}
	if err := Render(rec, r, name, data); err != nil {
		return err
	}
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

type bufferWriter struct {
	header http.Header
	buf    *bytes.Buffer
}

func (b *bufferWriter) Header() http.Header         { return b.header }
func (b *bufferWriter) Write(p []byte) (int, error) { return b.buf.Write(p) }
func (b *bufferWriter) WriteHeader(int)             {}

// Title joins non-empty parts for the page title.
func Title(parts ...string) string {
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " · ")
}
