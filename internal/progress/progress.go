// Package progress reports how many bytes of an upload have been read.
package progress

import (
	"errors"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
)

const DefaultChunkSize = 1024 * 1024

type Tracker interface {
	Add(n int)
	Finish()
}

// Reader reads its source in fixed-size chunks and reports each chunk's
// length to the tracker before any of its bytes are returned.
type Reader struct {
	src     io.Reader
	tracker Tracker
	buf     []byte
	pending []byte
	err     error
}

func NewReader(src io.Reader, chunkSize int, tracker Tracker) *Reader {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if tracker == nil {
		tracker = Discard
	}
	return &Reader{src: src, tracker: tracker, buf: make([]byte, chunkSize)}
}

func (r *Reader) Read(p []byte) (int, error) {
	if len(r.pending) == 0 {
		if r.err != nil {
			return 0, r.err
		}
		if err := r.fill(); err != nil && len(r.pending) == 0 {
			return 0, err
		}
	}
	n := copy(p, r.pending)
	r.pending = r.pending[n:]
	return n, nil
}

func (r *Reader) fill() error {
	n, err := io.ReadFull(r.src, r.buf)
	if errors.Is(err, io.ErrUnexpectedEOF) {
		err = io.EOF
	}
	r.err = err
	if n > 0 {
		r.tracker.Add(n)
		r.pending = r.buf[:n]
	}
	if err == io.EOF {
		r.tracker.Finish()
	}
	return err
}

type discard struct{}

func (discard) Add(int) {}
func (discard) Finish() {}

var Discard Tracker = discard{}

type bar struct {
	pb *progressbar.ProgressBar
}

// NewBar renders an "Uploading" byte counter for total bytes on w.
func NewBar(w io.Writer, total int64) Tracker {
	return &bar{pb: progressbar.NewOptions64(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("Uploading"),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() {
			_, _ = io.WriteString(w, "\n")
		}),
	)}
}

func (b *bar) Add(n int) {
	_ = b.pb.Add(n)
}

func (b *bar) Finish() {
	_ = b.pb.Finish()
}
