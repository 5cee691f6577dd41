package sloghelper

import (
	"bufio"
	"context"
	"log/slog"
	"os"
	"sync"
	"time"
)

// An io.Writer for log output that can re-open its file on demand which
// makes it work with external rotation tools like logrotate. Writes are
// buffered; the buffer is flushed on Rotate, Flush, Close and
// periodically by StartFlusher.
//
// Note that this does not perform moves on the underlying file. It is
// assumed that something like logrotate will be handling that.
type Rotator struct {
	// Logs issues with rotation.
	log *slog.Logger

	// The file name that should be re-opened/written to when
	// rotation happens.
	fileName string

	// The current file descriptor that is being used to write.
	fd *os.File

	// The output buffered writer that is pointing at the fd
	// above.
	buffer *bufio.Writer

	// A lock that protects writes to the file, this will be locked
	// during write operations to ensure that multiple writers do not
	// overwrite each other.
	lock sync.Mutex
}

// Opens file for appending. Problems encountered during later rotations
// are logged to l, which may be nil.
func NewRotator(ctx context.Context, file string, l *slog.Logger) (*Rotator, error) {
	r := &Rotator{
		fileName: file,
		log:      OrDiscard(l),
	}
	if err := r.Rotate(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

// Returns the name of the file being written.
func (r *Rotator) FileName() string {
	return r.fileName
}

// Sets the logger used to report rotation problems. Loggers are often
// created on top of the Rotator so this can not always be given to
// NewRotator.
func (r *Rotator) SetLogger(l *slog.Logger) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.log = OrDiscard(l)
}

// Opens the file on disk, replacing the currently open one.
func (r *Rotator) Rotate(ctx context.Context) error {
	newfd, err := os.OpenFile(
		r.fileName,
		os.O_WRONLY|os.O_CREATE|os.O_APPEND,
		0644)
	if err != nil {
		return err
	}
	newbuffer := bufio.NewWriter(newfd)
	oldfd, oldbuffer, log := func() (*os.File, *bufio.Writer, *slog.Logger) {
		r.lock.Lock()
		defer r.lock.Unlock()
		oldfd, oldbuffer := r.fd, r.buffer
		r.fd, r.buffer = newfd, newbuffer
		return oldfd, oldbuffer, r.log
	}()
	r.release(ctx, log, oldfd, oldbuffer)
	return nil
}

// Flushes and closes a no longer used file.
func (r *Rotator) release(
	ctx context.Context,
	log *slog.Logger,
	fd *os.File,
	buffer *bufio.Writer,
) {
	if buffer != nil {
		if err := buffer.Flush(); err != nil {
			log.LogAttrs(
				ctx,
				slog.LevelError,
				"Error flushing logs to disk.",
				String("file", r.fileName),
				Error("error", err))
		}
	}
	if fd != nil {
		if err := fd.Close(); err != nil {
			log.LogAttrs(
				ctx,
				slog.LevelError,
				"Error closing the old file.",
				String("file", r.fileName),
				Error("error", err))
		}
	}
}

// Acts like a io.Writer, allowing raw data to be written to the current
// log buffer.
func (r *Rotator) Write(data []byte) (int, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.buffer.Write(data)
}

// Writes any buffered data to the file.
func (r *Rotator) Flush() error {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.buffer.Flush()
}

// Flushes and closes the file. The Rotator can not be written to
// afterwards unless Rotate is called again.
func (r *Rotator) Close() error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if err := r.buffer.Flush(); err != nil {
		r.fd.Close()
		return err
	}
	return r.fd.Close()
}

// Flushes the buffer every interval until the context is canceled.
func (r *Rotator) StartFlusher(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			if err := r.Flush(); err != nil {
				r.lock.Lock()
				log := r.log
				r.lock.Unlock()
				log.LogAttrs(
					ctx,
					slog.LevelError,
					"Error flushing logs to disk.",
					String("file", r.fileName),
					Error("error", err))
			}
		}
	}()
}
