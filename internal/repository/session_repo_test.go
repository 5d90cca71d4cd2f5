package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-interview-api/internal/models"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestSessionRepositoryCreateGetAndSnapshotIsolation(t *testing.T) {
	repo := NewSessionRepository(time.Hour, zerolog.Nop())
	ctx := context.Background()

	created, err := repo.Create(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Equal(t, models.PhaseIntro, created.State.Phase())

	intro := "Welcome"
	_, err = repo.Update(ctx, created.ID, func(state *models.SessionState) error {
		state.IntroMessage = &intro
		state.Questions = []string{"Q1"}
		return nil
	})
	require.NoError(t, err)

	fetched, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Welcome", *fetched.State.IntroMessage)

	fetched.State.Questions[0] = "mutated"
	again, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Q1", again.State.Questions[0])

	_, err = repo.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionRepositoryUpdateKeepsChangesOnError(t *testing.T) {
	repo := NewSessionRepository(0, zerolog.Nop())
	ctx := context.Background()
	created, err := repo.Create(ctx)
	require.NoError(t, err)

	failure := errors.New("boom")
	updated, err := repo.Update(ctx, created.ID, func(state *models.SessionState) error {
		state.Questions = []string{"kept"}
		return failure
	})
	require.ErrorIs(t, err, failure)
	require.Equal(t, []string{"kept"}, updated.State.Questions)
}

func TestSessionRepositorySerializesUpdates(t *testing.T) {
	repo := NewSessionRepository(0, zerolog.Nop())
	ctx := context.Background()
	created, err := repo.Create(ctx)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Update(ctx, created.ID, func(state *models.SessionState) error {
				state.Questions = append(state.Questions, "q")
				return nil
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	session, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, session.State.Questions, 50)
}

func TestSessionRepositoryUpdateHonoursContextWhileLocked(t *testing.T) {
	repo := NewSessionRepository(0, zerolog.Nop())
	created, err := repo.Create(context.Background())
	require.NoError(t, err)

	entered := make(chan struct{})
	releaseHolder := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = repo.Update(context.Background(), created.ID, func(*models.SessionState) error {
			close(entered)
			<-releaseHolder
			return nil
		})
	}()
	<-entered

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = repo.Update(ctx, created.ID, func(*models.SessionState) error { return nil })
	require.ErrorIs(t, err, context.DeadlineExceeded)

	close(releaseHolder)
	<-done
}

func TestSessionRepositoryResetKeepsID(t *testing.T) {
	repo := NewSessionRepository(0, zerolog.Nop())
	ctx := context.Background()
	created, err := repo.Create(ctx)
	require.NoError(t, err)

	intro := "Hi"
	_, err = repo.Update(ctx, created.ID, func(state *models.SessionState) error {
		state.IntroMessage = &intro
		return nil
	})
	require.NoError(t, err)

	reset, err := repo.Reset(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, reset.ID)
	require.Equal(t, models.SessionState{}, reset.State)

	require.NoError(t, repo.Delete(ctx, created.ID))
	_, err = repo.Reset(ctx, created.ID)
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionRepositorySweepExpiresIdleSessions(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	repo := NewSessionRepository(30*time.Minute, zerolog.Nop(), WithSessionClock(clock.Now))
	ctx := context.Background()

	stale, err := repo.Create(ctx)
	require.NoError(t, err)
	clock.Advance(20 * time.Minute)
	fresh, err := repo.Create(ctx)
	require.NoError(t, err)

	clock.Advance(15 * time.Minute)
	require.Equal(t, 1, repo.Sweep(clock.Now()))
	require.Equal(t, 1, repo.Count())

	_, err = repo.Get(ctx, stale.ID)
	require.ErrorIs(t, err, ErrSessionNotFound)
	_, err = repo.Get(ctx, fresh.ID)
	require.NoError(t, err)
}

func TestSessionRepositoryJanitorRunsInBackground(t *testing.T) {
	repo := NewSessionRepository(time.Millisecond, zerolog.Nop(), WithSweepInterval(5*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := repo.Create(ctx)
	require.NoError(t, err)
	repo.Start(ctx)

	require.Eventually(t, func() bool { return repo.Count() == 0 }, time.Second, 5*time.Millisecond)
}
