package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rentx/rentx-api/internal/domain"
)

// Session lifetimes. "Remember me" stretches the TTL from one day to seven.
const (
	DefaultTTL  = 24 * time.Hour
	RememberTTL = 7 * 24 * time.Hour
)

// Manager issues, validates, and terminates the single session held in a
// Slot. Validation trusts the local clock against the persisted expiry and
// never re-contacts the account directory: the snapshot taken at issuance is
// what the client sees until the next full login.
type Manager struct {
	slot Slot
	now  func() time.Time
}

func NewManager(slot Slot) *Manager {
	return &Manager{slot: slot, now: time.Now}
}

// NewManagerAt is like NewManager with an injectable clock.
func NewManagerAt(slot Slot, now func() time.Time) *Manager {
	return &Manager{slot: slot, now: now}
}

// Issue writes a fresh session for account into the slot, overwriting
// whatever was there.
func (m *Manager) Issue(ctx context.Context, account *domain.Account, remember bool) (*domain.Session, error) {
	ttl := DefaultTTL
	if remember {
		ttl = RememberTTL
	}
	issued := m.now()
	sess := &domain.Session{
		Account:   account,
		IssuedAt:  issued.UnixMilli(),
		ExpiresAt: issued.Add(ttl).UnixMilli(),
		Remember:  remember,
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}
	if err := m.slot.Save(ctx, data); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return sess, nil
}

// Validate returns the live session, or (nil, nil) when the slot is empty.
// A session found past its expiry is purged on first read; the second read
// sees an empty slot and also returns (nil, nil).
func (m *Manager) Validate(ctx context.Context) (*domain.Session, error) {
	data, ok, err := m.slot.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var sess domain.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		// A corrupt record can never become valid; drop it.
		_ = m.slot.Clear(ctx)
		return nil, nil
	}
	if sess.Expired(m.now()) {
		if err := m.slot.Clear(ctx); err != nil {
			return nil, fmt.Errorf("purge expired session: %w", err)
		}
		return nil, nil
	}
	return &sess, nil
}

// Terminate clears the slot unconditionally. Idempotent.
func (m *Manager) Terminate(ctx context.Context) error {
	return m.slot.Clear(ctx)
}
