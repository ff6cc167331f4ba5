package handler

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"strings"
	"time"

	"talkroom/internal/app/user"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// placeholderURL is where the default avatar is served from.
const placeholderURL = "/static/" + user.DefaultAvatar

// TemplateRenderer renders the pages in templates/. Every page is parsed
// together with base.html and rendered through its "base" template.
type TemplateRenderer struct {
	pages map[string]*template.Template
}

// NewTemplateRenderer parses every page. mediaURL resolves an uploaded
// avatar key to its URL.
func NewTemplateRenderer(mediaURL func(key string) string) (*TemplateRenderer, error) {
	funcs := template.FuncMap{
		"avatar": func(key string) string {
			if key == "" || key == user.DefaultAvatar {
				return placeholderURL
			}
			return mediaURL(key)
		},
		"datetime": func(t time.Time) string {
			return t.Local().Format("2006-01-02 15:04")
		},
	}

	names, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	pages := make(map[string]*template.Template, len(names))
	for _, file := range names {
		name := strings.TrimSuffix(strings.TrimPrefix(file, "templates/"), ".html")
		if name == "base" {
			continue
		}

		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/base.html", file)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		pages[name] = t
	}

	return &TemplateRenderer{pages: pages}, nil
}

func (tr *TemplateRenderer) Render(w io.Writer, name string, data any) error {
	t, ok := tr.pages[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	return t.ExecuteTemplate(w, "base", data)
}

// StaticFS returns the embedded static assets rooted at static/.
func StaticFS() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
