package store

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"

	"github.com/dmorgan81/pdup/internal/log"
	"github.com/samber/do"
)

type UploadParams struct {
	Name        string
	Body        io.Reader
	Size        int64
	ContentType string
	Metadata    map[string]string
}

type Result struct {
	ID  string
	URL string
}

type Uploader interface {
	Upload(context.Context, UploadParams) (Result, error)
}

// FileUploader copies uploads into a local directory.
type FileUploader struct {
	Dir string
}

func NewFileUploader(i *do.Injector) (Uploader, error) {
	dir := do.MustInvokeNamed[string](i, "dir")
	if dir == "" {
		return nil, fmt.Errorf("dir backend: no destination directory")
	}
	return &FileUploader{Dir: dir}, nil
}

func (u *FileUploader) Upload(ctx context.Context, params UploadParams) (Result, error) {
	path, err := filepath.Abs(filepath.Join(u.Dir, filepath.Base(params.Name)))
	if err != nil {
		return Result{}, err
	}
	log := log.FromContextOrDiscard(ctx).WithGroup("file").With("path", path)
	log.Info("writing")

	// path may be the file being uploaded; never truncate it in place
	f, err := os.CreateTemp(u.Dir, ".pdup-*")
	if err != nil {
		return Result{}, err
	}
	defer os.Remove(f.Name())

	if _, err := io.Copy(f, params.Body); err != nil {
		f.Close()
		return Result{}, err
	}
	if err := f.Close(); err != nil {
		return Result{}, err
	}
	if err := os.Rename(f.Name(), path); err != nil {
		return Result{}, err
	}

	return Result{
		ID:  filepath.Base(path),
		URL: (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String(),
	}, nil
}
