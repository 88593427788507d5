package polls

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/classpulse/livepoll/internal/models"
)

// Archiver keeps an extra copy of a finished poll outside the store.
type Archiver interface {
	Archive(ctx context.Context, rec models.PollRecord) error
}

// Recorder persists finished polls on a detached goroutine. Failures are
// logged and never retried; callers are never blocked.
type Recorder struct {
	store    Store
	timeout  time.Duration
	logger   *zap.Logger
	archive  Archiver
	history  *History
	inflight sync.WaitGroup
}

// NewRecorder creates a recorder writing to store with a per-save timeout.
func NewRecorder(store Store, timeout time.Duration, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Recorder{store: store, timeout: timeout, logger: logger}
}

// SetArchiver adds an archive step after a successful save.
func (r *Recorder) SetArchiver(a Archiver) {
	r.archive = a
}

// SetHistory lets the recorder invalidate cached history after a save.
func (r *Recorder) SetHistory(h *History) {
	r.history = h
}

// Persist implements Persister.
func (r *Recorder) Persist(rec models.PollRecord) {
	r.inflight.Add(1)
	go func() {
		defer r.inflight.Done()
		r.save(rec)
	}()
}

// Wait blocks until every dispatched save has finished.
func (r *Recorder) Wait() {
	r.inflight.Wait()
}

func (r *Recorder) save(rec models.PollRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	fields := []zap.Field{zap.String("poll_id", rec.ID.String()), zap.String("question", rec.Question)}
	if err := r.store.Save(ctx, rec); err != nil {
		r.logger.Error("failed to save poll to history", append(fields, zap.Error(err))...)
		return
	}
	r.logger.Info("poll saved to history", fields...)

	if r.history != nil {
		r.history.Invalidate(ctx)
	}
	if r.archive != nil {
		if err := r.archive.Archive(ctx, rec); err != nil {
			r.logger.Warn("failed to archive poll", append(fields, zap.Error(err))...)
		}
	}
}
