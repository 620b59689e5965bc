// Package upload owns the client-side bookkeeping of an upload batch:
// which files are acceptable, which file is submitted next, how far the
// batch has progressed and which files failed. The network work belongs
// to the caller; this package only sequences and aggregates outcomes.
package upload

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrNoValidFiles means the selection contained nothing uploadable. The
// caller must surface it without making any network call.
var ErrNoValidFiles = errors.New("no valid files selected")

// acceptedExt is the document format the backend ingests.
const acceptedExt = ".pdf"

// Progress mirrors "completed of total" for the active batch. Completed
// counts successful submissions only; failed files advance the batch but
// not the counter.
type Progress struct {
	Total     int
	Completed int
}

// Failure records one file the backend refused.
type Failure struct {
	Name string
	Err  error
}

// Message renders the failure the way the error surface shows it.
func (f Failure) Message() string {
	return fmt.Sprintf("Failed to upload %s: %v", f.Name, f.Err)
}

// Batch is one user-initiated group of files, submitted strictly in input
// order. A failure on one file never aborts the rest of the batch.
type Batch struct {
	ID       string
	files    []string
	cursor   int
	complete int
	failures []Failure
}

// Option tunes batch construction.
type Option func(*options)

type options struct {
	maxBytes int64
}

// WithMaxFileSize records files larger than n bytes as failures up front
// instead of submitting them. Zero disables the check.
func WithMaxFileSize(n int64) Option {
	return func(o *options) { o.maxBytes = n }
}

// Acceptable reports whether a path looks like the accepted document
// format, by name suffix or by its registered media type.
func Acceptable(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == acceptedExt {
		return true
	}
	return mime.TypeByExtension(ext) == "application/pdf"
}

// Filter splits paths into uploadable and rejected, preserving order.
func Filter(paths []string) (accepted, rejected []string) {
	for _, p := range paths {
		if Acceptable(p) {
			accepted = append(accepted, p)
		} else {
			rejected = append(rejected, p)
		}
	}
	return accepted, rejected
}

// NewBatch filters the selection and builds the batch. A selection with no
// acceptable files yields ErrNoValidFiles. Oversized files are recorded as
// failures immediately and never submitted; such a batch can be Done before
// the first network call.
func NewBatch(paths []string, opts ...Option) (*Batch, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	accepted, _ := Filter(paths)
	if len(accepted) == 0 {
		return nil, ErrNoValidFiles
	}

	b := &Batch{ID: uuid.NewString()}
	for _, p := range accepted {
		if o.maxBytes > 0 {
			if info, err := os.Stat(p); err == nil && info.Size() > o.maxBytes {
				b.failures = append(b.failures, Failure{
					Name: filepath.Base(p),
					Err:  fmt.Errorf("larger than the %d MiB limit", o.maxBytes/(1<<20)),
				})
				continue
			}
		}
		b.files = append(b.files, p)
	}
	return b, nil
}

// Current returns the file awaiting submission.
func (b *Batch) Current() (string, bool) {
	if b.cursor >= len(b.files) {
		return "", false
	}
	return b.files[b.cursor], true
}

// Succeed records the current file as accepted by the backend and advances.
func (b *Batch) Succeed() {
	if b.cursor >= len(b.files) {
		return
	}
	b.complete++
	b.cursor++
}

// Fail records the backend's refusal of the current file and advances.
func (b *Batch) Fail(err error) {
	if b.cursor >= len(b.files) {
		return
	}
	b.failures = append(b.failures, Failure{
		Name: filepath.Base(b.files[b.cursor]),
		Err:  err,
	})
	b.cursor++
}

// Done reports whether every file has an outcome.
func (b *Batch) Done() bool { return b.cursor >= len(b.files) }

// Progress reports submittable files against completed successes.
func (b *Batch) Progress() Progress {
	return Progress{Total: len(b.files), Completed: b.complete}
}

// Failures returns every recorded failure in occurrence order.
func (b *Batch) Failures() []Failure { return b.failures }

// LastError returns the display message of the most recent failure, or ""
// when everything succeeded. Later failures overwrite earlier ones on the
// error surface.
func (b *Batch) LastError() string {
	if len(b.failures) == 0 {
		return ""
	}
	return b.failures[len(b.failures)-1].Message()
}

// Summary describes the finished batch for logs.
func (b *Batch) Summary() string {
	return fmt.Sprintf("%d/%d uploaded, %d failed", b.complete, len(b.files), len(b.failures))
}
