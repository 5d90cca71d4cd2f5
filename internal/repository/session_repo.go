package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-interview-api/internal/models"
	"github.com/noah-isme/gema-interview-api/internal/observability"
)

// ErrSessionNotFound is returned for unknown or expired session ids.
var ErrSessionNotFound = errors.New("interview session not found")

// SessionRepository keeps live interview sessions in memory.
type SessionRepository interface {
	Create(ctx context.Context) (models.InterviewSession, error)
	Get(ctx context.Context, id string) (models.InterviewSession, error)
	Update(ctx context.Context, id string, fn func(state *models.SessionState) error) (models.InterviewSession, error)
	Reset(ctx context.Context, id string) (models.InterviewSession, error)
	Delete(ctx context.Context, id string) error
	Sweep(now time.Time) int
	Count() int
	Start(ctx context.Context)
}

// sessionSlot guards one session. lock is a one-token semaphore so waiting
// callers can give up when their context ends.
type sessionSlot struct {
	lock    chan struct{}
	session models.InterviewSession
	removed bool
}

type sessionRepository struct {
	mu       sync.RWMutex
	slots    map[string]*sessionSlot
	ttl      time.Duration
	interval time.Duration
	now      func() time.Time
	logger   zerolog.Logger
}

// SessionRepositoryOption customises the in-memory store.
type SessionRepositoryOption func(*sessionRepository)

// WithSessionClock overrides the time source.
func WithSessionClock(now func() time.Time) SessionRepositoryOption {
	return func(r *sessionRepository) {
		r.now = now
	}
}

// WithSweepInterval overrides how often the janitor runs.
func WithSweepInterval(interval time.Duration) SessionRepositoryOption {
	return func(r *sessionRepository) {
		r.interval = interval
	}
}

// NewSessionRepository constructs an in-memory session store. A ttl of zero keeps
// sessions until they are deleted.
func NewSessionRepository(ttl time.Duration, logger zerolog.Logger, opts ...SessionRepositoryOption) SessionRepository {
	repo := &sessionRepository{
		slots:    make(map[string]*sessionSlot),
		ttl:      ttl,
		interval: ttl / 2,
		now:      time.Now,
		logger:   logger.With().Str("component", "session_repository").Logger(),
	}
	for _, opt := range opts {
		opt(repo)
	}
	if repo.interval <= 0 {
		repo.interval = time.Minute
	}
	return repo
}

func (r *sessionRepository) Create(ctx context.Context) (models.InterviewSession, error) {
	if err := ctx.Err(); err != nil {
		return models.InterviewSession{}, err
	}

	now := r.now().UTC()
	slot := &sessionSlot{
		lock: make(chan struct{}, 1),
		session: models.InterviewSession{
			ID:        uuid.NewString(),
			CreatedAt: now,
			UpdatedAt: now,
		},
	}

	r.mu.Lock()
	r.slots[slot.session.ID] = slot
	active := len(r.slots)
	r.mu.Unlock()

	observability.SessionsActive().Set(float64(active))
	return snapshot(slot.session), nil
}

func (r *sessionRepository) Get(ctx context.Context, id string) (models.InterviewSession, error) {
	slot, err := r.acquire(ctx, id)
	if err != nil {
		return models.InterviewSession{}, err
	}
	defer slot.release()

	return snapshot(slot.session), nil
}

// Update runs fn with exclusive access to the session state. Changes made by fn are
// kept even when it returns an error, so completed sub-steps are not lost.
func (r *sessionRepository) Update(ctx context.Context, id string, fn func(state *models.SessionState) error) (models.InterviewSession, error) {
	slot, err := r.acquire(ctx, id)
	if err != nil {
		return models.InterviewSession{}, err
	}
	defer slot.release()

	fnErr := fn(&slot.session.State)
	slot.session.UpdatedAt = r.now().UTC()
	return snapshot(slot.session), fnErr
}

func (r *sessionRepository) Reset(ctx context.Context, id string) (models.InterviewSession, error) {
	slot, err := r.acquire(ctx, id)
	if err != nil {
		return models.InterviewSession{}, err
	}
	defer slot.release()

	now := r.now().UTC()
	slot.session.State = models.SessionState{}
	slot.session.CreatedAt = now
	slot.session.UpdatedAt = now
	return snapshot(slot.session), nil
}

func (r *sessionRepository) Delete(ctx context.Context, id string) error {
	slot, err := r.acquire(ctx, id)
	if err != nil {
		return err
	}
	defer slot.release()

	r.remove(id, slot)
	return nil
}

// Sweep drops sessions idle for longer than the ttl. Sessions busy in Update are skipped.
func (r *sessionRepository) Sweep(now time.Time) int {
	if r.ttl <= 0 {
		return 0
	}

	r.mu.RLock()
	candidates := make(map[string]*sessionSlot, len(r.slots))
	for id, slot := range r.slots {
		candidates[id] = slot
	}
	r.mu.RUnlock()

	removed := 0
	for id, slot := range candidates {
		select {
		case slot.lock <- struct{}{}:
		default:
			continue
		}
		if !slot.removed && now.Sub(slot.session.UpdatedAt) > r.ttl {
			r.remove(id, slot)
			removed++
		}
		slot.release()
	}

	if removed > 0 {
		r.logger.Info().Int("expired", removed).Msg("expired idle interview sessions")
	}
	return removed
}

func (r *sessionRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.slots)
}

// Start runs the expiry janitor until ctx is cancelled.
func (r *sessionRepository) Start(ctx context.Context) {
	if r.ttl <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				r.Sweep(r.now())
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (r *sessionRepository) acquire(ctx context.Context, id string) (*sessionSlot, error) {
	r.mu.RLock()
	slot, ok := r.slots[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}

	select {
	case slot.lock <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if slot.removed {
		slot.release()
		return nil, ErrSessionNotFound
	}
	return slot, nil
}

// remove must be called while holding the slot lock.
func (r *sessionRepository) remove(id string, slot *sessionSlot) {
	slot.removed = true

	r.mu.Lock()
	delete(r.slots, id)
	active := len(r.slots)
	r.mu.Unlock()

	observability.SessionsActive().Set(float64(active))
}

func (s *sessionSlot) release() {
	<-s.lock
}

func snapshot(session models.InterviewSession) models.InterviewSession {
	session.State = session.State.Clone()
	return session
}
