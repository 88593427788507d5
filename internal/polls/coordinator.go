package polls

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/classpulse/livepoll/internal/events"
	"github.com/classpulse/livepoll/internal/models"
)

// State is the coordinator's lifecycle state.
type State int

const (
	StateIdle State = iota
	StateActive
	StateExpired
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateExpired:
		return "expired"
	default:
		return "idle"
	}
}

// Broadcaster delivers poll events to every connection.
type Broadcaster interface {
	Broadcast(event string, payload interface{})
}

// Countdown is the timer the coordinator owns.
type Countdown interface {
	Start(pollID uuid.UUID, seconds int)
	Stop()
}

// Persister hands a finished poll to history. Persist must not block.
type Persister interface {
	Persist(rec models.PollRecord)
}

// CreateInput is a validated-upstream request to start a poll.
type CreateInput struct {
	Question        string
	Options         []models.PollOption
	DurationSeconds int
}

func (in CreateInput) normalize() (string, []models.PollOption, error) {
	question := strings.TrimSpace(in.Question)
	if question == "" {
		return "", nil, fmt.Errorf("%w: question is required", ErrInvalidPoll)
	}
	if len(in.Options) == 0 {
		return "", nil, fmt.Errorf("%w: at least one option is required", ErrInvalidPoll)
	}
	if in.DurationSeconds <= 0 {
		return "", nil, fmt.Errorf("%w: duration must be positive, got %d", ErrInvalidPoll, in.DurationSeconds)
	}
	options := make([]models.PollOption, len(in.Options))
	for i, o := range in.Options {
		text := strings.TrimSpace(o.Text)
		if text == "" {
			return "", nil, fmt.Errorf("%w: option %d has no text", ErrInvalidPoll, i)
		}
		options[i] = models.PollOption{Text: text, IsCorrect: o.IsCorrect}
	}
	return question, options, nil
}

// JoinState is what a late-joining connection needs to catch up.
type JoinState struct {
	State State
	Poll  *models.Poll
	Timer models.TimerState
}

// Coordinator owns the current poll and its countdown.
// It is not safe for concurrent use: the session event loop is its only caller.
type Coordinator struct {
	out       Broadcaster
	timer     Countdown
	persister Persister
	retention time.Duration
	logger    *zap.Logger
	now       func() time.Time

	state     State
	poll      *models.Poll
	remaining int
	expiredAt time.Time
}

// NewCoordinator creates an idle coordinator. An expired poll is dropped back
// to idle once retention has passed; zero retention keeps it until replaced.
func NewCoordinator(out Broadcaster, timer Countdown, persister Persister, retention time.Duration, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		out:       out,
		timer:     timer,
		persister: persister,
		retention: retention,
		logger:    logger,
		now:       time.Now,
	}
}

// CreatePoll replaces whatever poll is current, from any state, and starts its countdown.
func (c *Coordinator) CreatePoll(in CreateInput) (*models.Poll, error) {
	question, options, err := in.normalize()
	if err != nil {
		return nil, err
	}
	if c.state == StateActive {
		c.logger.Info("replacing active poll", zap.String("poll_id", c.poll.ID.String()))
	}

	c.poll = &models.Poll{
		ID:        uuid.New(),
		Question:  question,
		Options:   options,
		Duration:  in.DurationSeconds,
		CreatedAt: c.now(),
	}
	c.state = StateActive
	c.remaining = in.DurationSeconds
	c.expiredAt = time.Time{}
	c.timer.Start(c.poll.ID, in.DurationSeconds)

	snap := c.poll.Clone()
	c.logger.Info("poll started",
		zap.String("poll_id", snap.ID.String()),
		zap.String("question", snap.Question),
		zap.Int("options", len(snap.Options)),
		zap.Int("duration", snap.Duration),
	)
	c.out.Broadcast(events.NewQuestion, snap)
	c.out.Broadcast(events.TimerUpdate, c.timerState())
	return snap, nil
}

// SubmitVote adds one vote to optionIndex of the poll identified by pollID.
// ErrPollNotActive means nothing changed and only the voter should be told.
func (c *Coordinator) SubmitVote(pollID string, optionIndex int) (*models.Poll, error) {
	if c.state != StateActive || c.remaining <= 0 {
		return nil, ErrPollNotActive
	}
	id, err := uuid.Parse(pollID)
	if err != nil || id != c.poll.ID {
		return nil, fmt.Errorf("%w: %q", ErrPollNotFound, pollID)
	}
	if optionIndex < 0 || optionIndex >= len(c.poll.Options) {
		return nil, fmt.Errorf("%w: index %d", ErrOptionNotFound, optionIndex)
	}

	c.poll.Options[optionIndex].Votes++
	snap := c.poll.Clone()
	c.out.Broadcast(events.VoteUpdate, snap)
	return snap, nil
}

// OnTimerTick applies a countdown step. Ticks for a poll that is no longer
// current are ignored. Reaching zero expires and persists the poll.
func (c *Coordinator) OnTimerTick(t Tick) {
	if c.state != StateActive || c.poll == nil || t.PollID != c.poll.ID {
		c.logger.Debug("ignoring stale tick", zap.String("poll_id", t.PollID.String()), zap.Int("remaining", t.Remaining))
		return
	}
	c.remaining = max(t.Remaining, 0)
	if c.remaining > 0 {
		c.out.Broadcast(events.TimerUpdate, c.timerState())
		return
	}

	c.timer.Stop()
	c.state = StateExpired
	c.expiredAt = c.now()
	rec := models.NewPollRecord(c.poll, c.expiredAt)
	c.logger.Info("poll expired", zap.String("poll_id", rec.ID.String()), zap.Int("total_votes", c.poll.TotalVotes()))
	c.persister.Persist(rec)

	c.out.Broadcast(events.PollEnded, events.PollEndedNotice{})
	c.out.Broadcast(events.TimerUpdate, c.timerState())
}

// StopPoll ends the active poll early. Stopped polls are not persisted.
func (c *Coordinator) StopPoll() error {
	if c.state != StateActive {
		return ErrPollNotActive
	}
	c.timer.Stop()
	c.state = StateExpired
	c.remaining = 0
	c.expiredAt = c.now()
	c.logger.Info("poll stopped", zap.String("poll_id", c.poll.ID.String()))

	c.out.Broadcast(events.PollEnded, events.PollEndedNotice{})
	c.out.Broadcast(events.TimerUpdate, c.timerState())
	return nil
}

// CurrentForJoin returns the poll and timer a new connection should replay. It has no side effects
// other than dropping an expired poll whose retention has passed.
func (c *Coordinator) CurrentForJoin() JoinState {
	c.dropStale()
	return JoinState{State: c.state, Poll: c.poll.Clone(), Timer: c.timerState()}
}

// State returns the lifecycle state.
func (c *Coordinator) State() State {
	c.dropStale()
	return c.state
}

// Close stops the countdown.
func (c *Coordinator) Close() {
	c.timer.Stop()
}

func (c *Coordinator) timerState() models.TimerState {
	return models.TimerState{RemainingTime: c.remaining, IsPollActive: c.state == StateActive}
}

func (c *Coordinator) dropStale() {
	if c.state != StateExpired || c.retention <= 0 {
		return
	}
	if c.now().Sub(c.expiredAt) >= c.retention {
		c.logger.Debug("expired poll retired", zap.String("poll_id", c.poll.ID.String()))
		c.state = StateIdle
		c.poll = nil
		c.remaining = 0
	}
}
