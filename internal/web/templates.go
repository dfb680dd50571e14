package web

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"strings"
	"time"

	ginrender "github.com/gin-gonic/gin/render"
)

//go:embed templates
var files embed.FS

const layout = "base"

// Pages lists every renderable page by the name handlers use.
var Pages = []string{
	"posts/index.html",
	"posts/group_list.html",
	"posts/profile.html",
	"posts/post_detail.html",
	"posts/create_post.html",
	"users/signup.html",
	"users/login.html",
	"users/logged_out.html",
	"core/403.html",
	"core/404.html",
	"core/500.html",
}

// Renderer holds one template set per page: the base layout, the shared
// includes and the page itself.
type Renderer struct {
	pages map[string]*template.Template
}

var _ ginrender.HTMLRender = (*Renderer)(nil)

func Functions(mediaURL string) template.FuncMap {
	return template.FuncMap{
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02 Jan 2006")
		},
		"media": func(rel string) string {
			if rel == "" {
				return ""
			}
			return path.Join(mediaURL, rel)
		},
		"paragraphs": func(s string) []string {
			var out []string
			for _, p := range strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n\n") {
				if p = strings.TrimSpace(p); p != "" {
					out = append(out, p)
				}
			}
			return out
		},
		"uitoa": func(v uint64) string { return fmt.Sprintf("%d", v) },
	}
}

func NewRenderer(mediaURL string) (*Renderer, error) {
	root, err := fs.Sub(files, "templates")
	if err != nil {
		return nil, err
	}
	funcs := Functions(mediaURL)
	r := &Renderer{pages: make(map[string]*template.Template, len(Pages))}
	for _, name := range Pages {
		t, err := template.New(layout).Funcs(funcs).ParseFS(root, "base.layout.html", "includes/*.html", name)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

func (r *Renderer) Instance(name string, data any) ginrender.Render {
	t, ok := r.pages[name]
	if !ok {
		panic("web: unknown template " + name)
	}
	return ginrender.HTML{Template: t, Name: layout, Data: data}
}
