// Package activity appends audit records for notable account actions. Tracking
// is best-effort: a write failure never blocks the action being tracked.
package activity

import (
	"context"
	"log/slog"
	"time"

	"github.com/rentx/rentx-api/internal/domain"
	"github.com/rentx/rentx-api/internal/pkg/id"
)

// ActivityStore is the minimal interface the tracker requires from the
// activity repo.
type ActivityStore interface {
	Put(ctx context.Context, a *domain.Activity) error
}

type Tracker struct {
	repo   ActivityStore
	logger *slog.Logger
}

func NewTracker(repo ActivityStore, logger *slog.Logger) *Tracker {
	return &Tracker{repo: repo, logger: logger}
}

// Track appends an activity record in the background. The caller's context is
// not used for the write so that request cancellation cannot drop the record.
func (t *Tracker) Track(accountID, action, details string) {
	rec := &domain.Activity{
		ActivityID: id.New(),
		AccountID:  accountID,
		Action:     action,
		Details:    details,
		CreatedAt:  time.Now().UTC(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := t.repo.Put(ctx, rec); err != nil {
			t.logger.Warn("activity write failed",
				"action", action,
				"account_id", accountID,
				"error", err,
			)
		}
	}()
}
