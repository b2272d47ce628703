package handler

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"

	"github.com/dmorgan81/pdup/internal/log"
	"github.com/dmorgan81/pdup/internal/progress"
	"github.com/dmorgan81/pdup/internal/store"
	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/samber/do"
	"github.com/samber/lo"
)

var ErrFileNotFound = errors.New("file does not exist")

type Input struct {
	File string `json:"file"`
	Name string `json:"name,omitempty"`
}

func (i Input) toMetadata(size int64) map[string]string {
	return map[string]string{
		"name": url.QueryEscape(i.Name),
		"size": fmt.Sprint(size),
	}
}

type Output struct {
	File        string `json:"file"`
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
	ID          string `json:"id"`
	URL         string `json:"url"`
}

// NewTracker builds the progress tracker for an upload of total bytes.
type NewTracker func(total int64) progress.Tracker

type Handler struct {
	// resolved after the file check; building an uploader may reach the network
	uploader   func() (store.Uploader, error)
	newTracker NewTracker
	chunkSize  int
}

func NewHandler(i *do.Injector) (*Handler, error) {
	return &Handler{
		uploader: func() (store.Uploader, error) {
			return do.Invoke[store.Uploader](i)
		},
		newTracker: do.MustInvoke[NewTracker](i),
		chunkSize:  progress.DefaultChunkSize,
	}, nil
}

func New(uploader store.Uploader, newTracker NewTracker, chunkSize int) *Handler {
	return &Handler{
		uploader:   func() (store.Uploader, error) { return uploader, nil },
		newTracker: newTracker,
		chunkSize:  chunkSize,
	}
}

func (h *Handler) Handle(ctx context.Context, input Input) (Output, error) {
	log := log.FromContextOrDiscard(ctx).WithGroup("Handler").With("input", input)
	log.Info("handling upload")

	info, err := os.Stat(input.File)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && !info.Mode().IsRegular()) {
		return Output{}, fmt.Errorf("%s: %w", input.File, ErrFileNotFound)
	}
	if err != nil {
		return Output{}, err
	}

	input.Name = lo.Ternary(input.Name != "", input.Name, filepath.Base(input.File))
	size := info.Size()

	contentType := "application/octet-stream"
	if mime, err := mimetype.DetectFile(input.File); err == nil {
		contentType = mime.String()
	}
	log.Info("uploading file", "size", humanize.IBytes(uint64(size)), "content-type", contentType)

	uploader, err := h.uploader()
	if err != nil {
		return Output{}, err
	}

	f, err := os.Open(input.File)
	if err != nil {
		return Output{}, err
	}
	defer f.Close()

	tracker := progress.Discard
	if h.newTracker != nil && size > 0 {
		tracker = h.newTracker(size)
	}

	result, err := uploader.Upload(ctx, store.UploadParams{
		Name:        input.Name,
		Body:        progress.NewReader(f, h.chunkSize, tracker),
		Size:        size,
		ContentType: contentType,
		Metadata:    input.toMetadata(size),
	})
	if err != nil {
		return Output{}, err
	}
	log.Info("upload complete", "id", result.ID, "url", result.URL)

	return Output{
		File:        input.File,
		Name:        input.Name,
		Size:        size,
		ContentType: contentType,
		ID:          result.ID,
		URL:         result.URL,
	}, nil
}
