package capture

import (
	billy "github.com/go-git/go-billy/v5"
	log "github.com/sirupsen/logrus"
)

// Writer streams one incoming upload into the persistent store. The handle
// is opened with exclusive-create semantics and is append-only from the
// caller's point of view: chunks go in, nothing comes back out through it.
//
// Close must run on every exit path — normal completion, early session
// termination, or error. It is idempotent and error-returning so a deferred
// Close can still surface a failed flush instead of swallowing it.
type Writer struct {
	name    string
	f       billy.File
	written int64
	closed  bool
}

// Name returns the sanitized store name this writer captures into.
func (w *Writer) Name() string {
	return w.name
}

// Written returns the number of bytes accepted so far.
func (w *Writer) Written() int64 {
	return w.written
}

// WriteChunk appends data to the capture and returns the number of bytes
// accepted. Per-chunk logging is the caller's concern.
func (w *Writer) WriteChunk(data []byte) (int, error) {
	n, err := w.f.Write(data)
	w.written += int64(n)
	return n, err
}

// Write makes Writer an io.Writer so uploads can be streamed with io.Copy.
func (w *Writer) Write(data []byte) (int, error) {
	return w.WriteChunk(data)
}

// Close flushes and releases the store handle. Safe to call more than once;
// only the first call touches the file.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	log.Debugf("[Capture] closing %q after %d bytes", w.name, w.written)
	return w.f.Close()
}
