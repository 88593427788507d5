package polls

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Tick is one step of a poll countdown. Remaining reaches 0 exactly once per run.
type Tick struct {
	PollID    uuid.UUID
	Remaining int
}

// Timer is the single process-wide poll countdown. Start replaces whatever
// countdown is running; ticks from a replaced run are never delivered after
// the replacement, and stale ones already in flight carry the old PollID.
type Timer struct {
	interval time.Duration
	onTick   func(Tick)
	logger   *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewTimer creates a stopped timer that calls onTick every interval while running.
func NewTimer(interval time.Duration, onTick func(Tick), logger *zap.Logger) *Timer {
	if interval <= 0 {
		interval = time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Timer{interval: interval, onTick: onTick, logger: logger}
}

// Start begins a countdown of seconds for pollID, cancelling any previous one.
// It does not wait for the previous goroutine so it is safe to call from onTick's consumer.
func (t *Timer) Start(pollID uuid.UUID, seconds int) {
	ctx, cancel := context.WithCancel(context.Background())
	t.mu.Lock()
	if t.cancel != nil {
		t.cancel()
	}
	t.cancel = cancel
	t.mu.Unlock()

	go t.run(ctx, pollID, seconds)
	t.logger.Debug("poll timer started", zap.String("poll_id", pollID.String()), zap.Int("seconds", seconds))
}

// Stop cancels the running countdown, if any.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel == nil {
		return
	}
	t.cancel()
	t.cancel = nil
}

func (t *Timer) run(ctx context.Context, pollID uuid.UUID, seconds int) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	remaining := seconds
	for remaining > 0 {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			remaining--
			t.onTick(Tick{PollID: pollID, Remaining: remaining})
		}
	}
}
