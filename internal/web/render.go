// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Division 176 Contributors

package web

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/samber/oops"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Renderer renders named pages wrapped in the shared layout.
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses the embedded templates. Each page template is
// paired with the layout so pages can define their own "content" block.
func NewRenderer() (*Renderer, error) {
	entries, err := fs.Glob(templatesFS, "templates/*.html")
	if err != nil {
		return nil, oops.Code("TEMPLATE_PARSE_FAILED").With("operation", "glob templates").Wrap(err)
	}

	pages := make(map[string]*template.Template)
	for _, entry := range entries {
		name := strings.TrimSuffix(path.Base(entry), ".html")
		if name == "layout" {
			continue
		}
		tmpl, parseErr := template.ParseFS(templatesFS, "templates/layout.html", entry)
		if parseErr != nil {
			return nil, oops.Code("TEMPLATE_PARSE_FAILED").
				With("page", name).
				Wrap(parseErr)
		}
		pages[name] = tmpl
	}

	return &Renderer{pages: pages}, nil
}

// Render writes the named page as HTML. The page is executed into a
// buffer first so a template failure yields a clean 500 instead of a
// half-written body.
func (r *Renderer) Render(w http.ResponseWriter, page string, data any) error {
	tmpl, ok := r.pages[page]
	if !ok {
		return oops.Code("TEMPLATE_UNKNOWN_PAGE").With("page", page).Errorf("unknown page template")
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return oops.Code("TEMPLATE_RENDER_FAILED").With("page", page).Wrap(err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err := buf.WriteTo(w)
	if err != nil {
		return oops.Code("TEMPLATE_WRITE_FAILED").With("page", page).Wrap(err)
	}
	return nil
}
