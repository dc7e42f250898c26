package handler

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"time"

	"github.com/Dan9191/community-forum/internal/middleware"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{"about", "forum", "addPost", "profile", "login", "signup", "error"}

type templates struct {
	pages map[string]*template.Template
}

var templateFuncs = template.FuncMap{
	// post content and intros are escaped when stored
	"safeHTML": func(s string) template.HTML { return template.HTML(s) },
	"avatarURL": func(username string) string {
		return "/avatar/" + url.PathEscape(username)
	},
	"formatTime": func(t time.Time) string {
		return t.UTC().Format("Jan 2, 2006 15:04 UTC")
	},
}

func mustLoadTemplates() *templates {
	t := &templates{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		t.pages[name] = template.Must(template.New("layout.html").Funcs(templateFuncs).
			ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html"))
	}
	return t
}

// view is what every page template receives
type view struct {
	Session *middleware.Session
	Data    interface{}
}

// render executes into a buffer so a template failure never leaves a half-written page
func (h *Handler) render(w http.ResponseWriter, status int, name string, sess *middleware.Session, data interface{}) error {
	tmpl, ok := h.templates.pages[name]
	if !ok {
		return fmt.Errorf("unknown template %q", name)
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout.html", view{Session: sess, Data: data}); err != nil {
		return fmt.Errorf("failed to execute template %q: %w", name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
	return nil
}
