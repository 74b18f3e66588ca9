// Package logging provides line-oriented logging with interchangeable sinks.
//
// An Entry accumulates a single log line and emits it to its Writer exactly
// once, on Close, prefixed with the timestamp and call site captured when the
// entry was created. Sinks serialize whole lines, so concurrent entries never
// interleave within a line.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

// Writer is a sink for complete log lines.
type Writer interface {
	// Write emits s. Implementations serialize calls so each string lands
	// contiguously in the output.
	Write(s string)
}

// StreamWriter serializes writes onto an io.Writer.
type StreamWriter struct {
	mu  sync.Mutex
	out io.Writer
}

// NewStreamWriter creates a StreamWriter targeting out.
func NewStreamWriter(out io.Writer) *StreamWriter {
	return &StreamWriter{out: out}
}

// Write emits s to the underlying stream under the writer's lock.
func (w *StreamWriter) Write(s string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, _ = io.WriteString(w.out, s)
}

// DefaultBufferThreshold is the number of lines a BufferedWriter holds
// before flushing.
const DefaultBufferThreshold = 16

// BufferedWriter batches lines and forwards them to the next writer in a
// single Write once the count exceeds the threshold. Close flushes whatever
// is pending, so no line is lost as long as the writer is closed.
type BufferedWriter struct {
	next      Writer
	threshold int

	mu      sync.Mutex
	pending []string
}

// NewBufferedWriter creates a BufferedWriter with the default threshold.
func NewBufferedWriter(next Writer) *BufferedWriter {
	return NewBufferedWriterSize(next, DefaultBufferThreshold)
}

// NewBufferedWriterSize creates a BufferedWriter holding up to threshold
// lines. A threshold below one flushes on every write.
func NewBufferedWriterSize(next Writer, threshold int) *BufferedWriter {
	if threshold < 0 {
		threshold = 0
	}
	return &BufferedWriter{next: next, threshold: threshold}
}

// Write buffers s, flushing to the next writer once the count exceeds the
// threshold.
func (w *BufferedWriter) Write(s string) {
	w.mu.Lock()
	w.pending = append(w.pending, s)
	var batch []string
	if len(w.pending) > w.threshold {
		batch = w.pending
		w.pending = nil
	}
	w.mu.Unlock()

	if batch != nil {
		w.next.Write(strings.Join(batch, ""))
	}
}

// Flush forwards any pending lines immediately.
func (w *BufferedWriter) Flush() {
	w.mu.Lock()
	batch := w.pending
	w.pending = nil
	w.mu.Unlock()

	if len(batch) > 0 {
		w.next.Write(strings.Join(batch, ""))
	}
}

// Close flushes pending lines. The writer remains usable afterwards.
func (w *BufferedWriter) Close() error {
	w.Flush()
	return nil
}

// Buffered returns the number of lines currently held.
func (w *BufferedWriter) Buffered() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

var (
	stdoutOnce   sync.Once
	stdoutWriter *StreamWriter
)

// Stdout returns the process-wide writer for standard output.
func Stdout() Writer {
	stdoutOnce.Do(func() {
		stdoutWriter = NewStreamWriter(os.Stdout)
	})
	return stdoutWriter
}

// timestampLayout is the wall-clock format of the entry prefix.
const timestampLayout = "2006-01-02 15:04:05.000"

// Entry builds one log line. Print and Printf append to the payload and
// return the entry for chaining; Close stamps the prefix and emits the line.
type Entry struct {
	w       Writer
	prefix  string
	payload strings.Builder
	emitted bool
}

// Log starts an entry targeting standard output.
func Log() *Entry {
	return newEntry(Stdout())
}

// To starts an entry targeting w.
func To(w Writer) *Entry {
	return newEntry(w)
}

func newEntry(w Writer) *Entry {
	now := time.Now().Format(timestampLayout)

	file := "???"
	line := 0
	// Caller 2 is whoever invoked Log or To.
	if _, f, l, ok := runtime.Caller(2); ok {
		file = filepath.Base(f)
		line = l
	}
	return &Entry{
		w:      w,
		prefix: fmt.Sprintf("[%s %s:%d] ", now, file, line),
	}
}

// Print appends args to the line, formatted as fmt.Sprint does.
func (e *Entry) Print(args ...any) *Entry {
	e.payload.WriteString(fmt.Sprint(args...))
	return e
}

// Printf appends a formatted fragment to the line.
func (e *Entry) Printf(format string, args ...any) *Entry {
	fmt.Fprintf(&e.payload, format, args...)
	return e
}

// Close emits the line, terminated with a newline. Only the first Close
// emits; later calls are no-ops.
func (e *Entry) Close() {
	if e.emitted {
		return
	}
	e.emitted = true
	e.w.Write(e.prefix + e.payload.String() + "\n")
}
