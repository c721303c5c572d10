package http

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/billboard/internal/blog/domain"
	"github.com/aussiebroadwan/billboard/internal/blog/forms"
	"github.com/aussiebroadwan/billboard/pkg/httpx"
	"github.com/aussiebroadwan/billboard/pkg/jwtx"
	"github.com/aussiebroadwan/billboard/pkg/slogx"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page is the data every template receives. Handlers fill what they need.
type Page struct {
	Title   string
	User    *domain.User
	Flashes []jwtx.Flash
	CSRF    string

	Form   any
	Errors forms.Errors
	Next   string

	Posts   []domain.Post
	Post    *domain.Post
	Users   []domain.User
	Profile *domain.User
	CanEdit bool
	Status  int
}

// Templates holds one parsed tree per page, each sharing the layout.
type Templates struct {
	pages map[string]*template.Template
}

var templateFuncs = template.FuncMap{
	"avatar": func(file string) string {
		if file == "" {
			file = domain.DefaultImageFile
		}
		return "/static/profile_pics/" + file
	},
	"date": func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.Format(forms.BirthdayLayout)
	},
	"posted": func(v any) string {
		switch t := v.(type) {
		case time.Time:
			return t.Format("January 2, 2006 15:04")
		case *time.Time:
			if t != nil {
				return t.Format("January 2, 2006 15:04")
			}
		}
		return ""
	},
	"field": func(errs forms.Errors, name string) string { return errs.Get(name) },
}

func LoadTemplates() (*Templates, error) {
	names, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	t := &Templates{pages: make(map[string]*template.Template)}
	for _, name := range names {
		page := strings.TrimSuffix(strings.TrimPrefix(name, "templates/"), ".html")
		// layout and _partials are shared, not pages of their own
		if page == "layout" || strings.HasPrefix(page, "_") {
			continue
		}
		tmpl, err := template.New(page).Funcs(templateFuncs).
			ParseFS(templateFS, "templates/layout.html", "templates/_*.html", name)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", page, err)
		}
		t.pages[page] = tmpl
	}
	return t, nil
}

// render executes page into a buffer first so a template error never leaves
// a half written response.
func (rt *Router) render(w http.ResponseWriter, r *http.Request, status int, page string, data Page) {
	log := slogx.FromContext(r.Context())

	tmpl, ok := rt.templates.pages[page]
	if !ok {
		log.Error("unknown template", slog.String("page", page))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if u, ok := CurrentUser(r.Context()); ok {
		data.User = &u
	}
	data.Flashes = append(rt.sessions.PopFlashes(w, r), data.Flashes...)
	data.CSRF = forms.CSRFToken(r.Context())
	data.Status = status

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		log.Error("failed to render template", slog.String("page", page), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	httpx.NoCache(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (rt *Router) notFound(w http.ResponseWriter, r *http.Request) {
	rt.render(w, r, http.StatusNotFound, "error", Page{Title: "Not Found"})
}

// serverError logs err with the request id and shows a generic page.
func (rt *Router) serverError(w http.ResponseWriter, r *http.Request, err error) {
	slogx.FromContext(r.Context()).Error("request failed", slog.Any("error", err))
	rt.render(w, r, http.StatusInternalServerError, "error", Page{Title: "Something went wrong"})
}
