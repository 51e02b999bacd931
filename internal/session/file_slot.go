package session

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// FileSlot persists the session record as one file on local disk — the
// durable local store for single-client deployments. Reads and writes are
// plain synchronous file operations; no network round trip.
type FileSlot struct {
	path string
}

// NewFileSlot stores the record at dir/<client>.json.
func NewFileSlot(dir, client string) (*FileSlot, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	return &FileSlot{path: filepath.Join(dir, client+".json")}, nil
}

func (s *FileSlot) Load(context.Context) ([]byte, bool, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (s *FileSlot) Save(_ context.Context, data []byte) error {
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *FileSlot) Clear(context.Context) error {
	err := os.Remove(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
