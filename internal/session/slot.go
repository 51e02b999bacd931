// Package session manages the single client-side session slot: one
// well-known key in a durable key-value area holding the JSON session record.
// There is exactly one slot per client; issuing overwrites it, expiry and
// logout clear it. No session table or multi-session tracking exists.
package session

import (
	"context"
	"sync"
)

// Slot is one addressable durable record. Load returns ok=false when the slot
// is empty; Clear on an empty slot is a no-op.
type Slot interface {
	Load(ctx context.Context) (data []byte, ok bool, err error)
	Save(ctx context.Context, data []byte) error
	Clear(ctx context.Context) error
}

// MemorySlot keeps the record in process memory. Used in tests and by
// embedded single-client callers.
type MemorySlot struct {
	mu   sync.Mutex
	data []byte
	set  bool
}

func NewMemorySlot() *MemorySlot { return &MemorySlot{} }

func (s *MemorySlot) Load(context.Context) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.set {
		return nil, false, nil
	}
	out := make([]byte, len(s.data))
	copy(out, s.data)
	return out, true, nil
}

func (s *MemorySlot) Save(_ context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append([]byte(nil), data...)
	s.set = true
	return nil
}

func (s *MemorySlot) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = nil
	s.set = false
	return nil
}
