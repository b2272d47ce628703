package report

import (
	"context"
	"embed"
	"io"
	"sync"
	"text/template"

	"github.com/dmorgan81/pdup/internal/log"
)

//go:embed assets/*.tmpl
var assets embed.FS

type Success struct {
	URL string
}

type Failure struct {
	StatusCode int
	Body       string
}

type Missing struct {
	Path string
}

type Error struct {
	Err error
}

type Reporter struct {
	tmpl *template.Template
	once sync.Once
}

func (r *Reporter) Success(ctx context.Context, w io.Writer, s Success) error {
	return r.render(ctx, w, "success.tmpl", s)
}

func (r *Reporter) Failure(ctx context.Context, w io.Writer, f Failure) error {
	return r.render(ctx, w, "failure.tmpl", f)
}

func (r *Reporter) Missing(ctx context.Context, w io.Writer, m Missing) error {
	return r.render(ctx, w, "missing.tmpl", m)
}

func (r *Reporter) Error(ctx context.Context, w io.Writer, e Error) error {
	return r.render(ctx, w, "error.tmpl", e)
}

func (r *Reporter) render(ctx context.Context, w io.Writer, name string, data any) error {
	r.once.Do(func() {
		r.tmpl = template.Must(template.ParseFS(assets, "assets/*.tmpl"))
	})

	log := log.FromContextOrDiscard(ctx).WithGroup("reporter")
	log.Debug("rendering report", "template", name)

	return r.tmpl.ExecuteTemplate(w, name, data)
}
