// Package web holds the page templates and browser assets.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/heronhoga/bars-fe/model"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// layout files shared by every page
var layouts = []string{"templates/base.html", "templates/partials.html"}

// Renderer executes page templates. Each page is parsed together with the layouts.
type Renderer struct {
	mu    sync.RWMutex
	pages map[string]*template.Template
	src   fs.FS
	dir   string
	now   func() time.Time
}

// NewRenderer parses the embedded templates, or the ones under dir/templates when dir is set.
func NewRenderer(dir string) (*Renderer, error) {
	r := &Renderer{src: templateFS, dir: dir, now: time.Now}
	if dir != "" {
		r.src = os.DirFS(dir)
	}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload re-parses every page. On error the previous set stays active.
func (r *Renderer) Reload() error {
	names, err := fs.Glob(r.src, "templates/*.html")
	if err != nil {
		return fmt.Errorf("failed to list templates: %w", err)
	}

	pages := make(map[string]*template.Template, len(names))
	for _, name := range names {
		if isLayout(name) {
			continue
		}
		page := strings.TrimSuffix(path.Base(name), ".html")
		files := append(append([]string(nil), layouts...), name)
		tpl, err := template.New(page).Funcs(r.funcs()).ParseFS(r.src, files...)
		if err != nil {
			return fmt.Errorf("failed to parse template %s: %w", page, err)
		}
		pages[page] = tpl
	}

	r.mu.Lock()
	r.pages = pages
	r.mu.Unlock()
	return nil
}

func isLayout(name string) bool {
	for _, l := range layouts {
		if l == name {
			return true
		}
	}
	return false
}

// Render writes page; nothing is written when execution fails.
func (r *Renderer) Render(w io.Writer, page string, data any) error {
	r.mu.RLock()
	tpl, ok := r.pages[page]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("template %s not found", page)
	}

	var buf bytes.Buffer
	if err := tpl.ExecuteTemplate(&buf, "base", data); err != nil {
		return fmt.Errorf("failed to render %s: %w", page, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// Pages lists the parsed page names.
func (r *Renderer) Pages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.pages))
	for name := range r.pages {
		names = append(names, name)
	}
	return names
}

// Static serves the embedded browser assets under /static/.
func Static() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

func (r *Renderer) funcs() template.FuncMap {
	return template.FuncMap{
		"humanSize": model.FormatFileSize,
		"date":      formatDate,
		"ago":       func(s string) string { return timeAgo(s, r.now()) },
		"add":       func(a, b int) int { return a + b },
		"sub":       func(a, b int) int { return a - b },
		"genres":    func() []string { return model.Genres },
		"regions":   func() []string { return model.Regions },
		"initial": func(s string) string {
			if s == "" {
				return "?"
			}
			return strings.ToUpper(s[:1])
		},
	}
}

var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func formatDate(s string) string {
	t, ok := parseDate(s)
	if !ok {
		return s
	}
	return t.Format("Jan 2, 2006")
}

// timeAgo renders recent timestamps relative to now and older ones as dates.
func timeAgo(s string, now time.Time) string {
	t, ok := parseDate(s)
	if !ok {
		return s
	}
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d/time.Minute))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d/time.Hour))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d/(24*time.Hour)))
	default:
		return t.Format("Jan 2, 2006")
	}
}
