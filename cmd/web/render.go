package main

import (
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path/filepath"
	"strings"
	"sync"

	"github.com/a-h/templ"
	"go.uber.org/zap"

	"github.com/shinee-collection/tracker-web/internal/format"
	"github.com/shinee-collection/tracker-web/internal/i18n"
	"github.com/shinee-collection/tracker-web/internal/observability"
)

// views parses the html/template set. In dev mode templates are reparsed on
// each request.
type views struct {
	dir     string
	devMode bool
	bundle  *i18n.Bundle

	mu    sync.RWMutex
	cache *template.Template
}

func newViews(dir string, devMode bool, bundle *i18n.Bundle) (*views, error) {
	v := &views{dir: dir, devMode: devMode, bundle: bundle}
	t, err := v.parseTemplates()
	if err != nil {
		return nil, err
	}
	v.cache = t
	return v, nil
}

func (v *views) funcMap() template.FuncMap {
	return template.FuncMap{
		"t":        v.bundle.T,
		"tf":       v.bundle.Tf,
		"markdown": format.Markdown,
		"join":     strings.Join,
	}
}

func (v *views) parseTemplates() (*template.Template, error) {
	var files []string
	if err := filepath.WalkDir(v.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".tmpl") {
			files = append(files, path)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no templates found under %s", v.dir)
	}
	return template.New("_root").Funcs(v.funcMap()).ParseFiles(files...)
}

func (v *views) lookup(name string) (*template.Template, error) {
	if v.devMode {
		t, err := v.parseTemplates()
		if err != nil {
			return nil, err
		}
		v.mu.Lock()
		v.cache = t
		v.mu.Unlock()
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.cache == nil {
		return nil, fmt.Errorf("templates not initialized")
	}
	t := v.cache.Lookup(name)
	if t == nil {
		return nil, fmt.Errorf("template %q not found", name)
	}
	return t, nil
}

// render writes the named template with the given status.
func (v *views) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	t, err := v.lookup(name)
	if err != nil {
		observability.FromContext(r.Context()).Error("template lookup failed", zap.String("template", name), zap.Error(err))
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	opts := []func(*templ.ComponentHandler){
		templ.WithErrorHandler(func(r *http.Request, err error) http.Handler {
			observability.FromContext(r.Context()).Error("template exec failed", zap.String("template", name), zap.Error(err))
			return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "template error", http.StatusInternalServerError)
			})
		}),
	}
	if status != 0 && status != http.StatusOK {
		opts = append(opts, templ.WithStatus(status))
	}
	templ.Handler(templ.FromGoHTML(t, data), opts...).ServeHTTP(w, r)
}

// renderPage renders a full document.
func (a *app) renderPage(w http.ResponseWriter, r *http.Request, name string, data any) {
	a.views.render(w, r, http.StatusOK, "page_"+name, data)
}

// renderTemplate renders a fragment for htmx swaps.
func (a *app) renderTemplate(w http.ResponseWriter, r *http.Request, name string, data any) {
	a.views.render(w, r, http.StatusOK, name, data)
}
