package activity

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/rentx/rentx-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureStore struct {
	err  error
	puts chan *domain.Activity
}

func newCaptureStore() *captureStore {
	return &captureStore{puts: make(chan *domain.Activity, 16)}
}

func (s *captureStore) Put(ctx context.Context, a *domain.Activity) error {
	s.puts <- a
	return s.err
}

func (s *captureStore) wait(t *testing.T) *domain.Activity {
	t.Helper()
	select {
	case a := <-s.puts:
		return a
	case <-time.After(2 * time.Second):
		t.Fatal("no activity record written")
		return nil
	}
}

func TestTrack_WritesRecordInBackground(t *testing.T) {
	store := newCaptureStore()
	tr := NewTracker(store, slog.New(slog.NewTextHandler(io.Discard, nil)))

	tr.Track("acc-1", "room_viewed", "p1")

	rec := store.wait(t)
	assert.NotEmpty(t, rec.ActivityID)
	assert.Equal(t, "acc-1", rec.AccountID)
	assert.Equal(t, "room_viewed", rec.Action)
	assert.Equal(t, "p1", rec.Details)
	assert.False(t, rec.CreatedAt.IsZero())
}

func TestTrack_WriteFailureIsSwallowed(t *testing.T) {
	store := newCaptureStore()
	store.err = errors.New("table missing")
	tr := NewTracker(store, slog.New(slog.NewTextHandler(io.Discard, nil)))

	// Track returns before the write happens and never surfaces the error.
	require.NotPanics(t, func() { tr.Track("acc-1", "phone_revealed", "p2") })
	store.wait(t)
}
