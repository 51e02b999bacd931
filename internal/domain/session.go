package domain

import "time"

// Session is the proof of authentication the client holds after a successful
// login. Account is a snapshot taken at issuance and never re-fetched; edits
// or revocation on the directory side are not reflected until the next full
// login. Timestamps are epoch milliseconds so the stored record matches the
// client slot format.
type Session struct {
	Account   *Account `json:"account"`
	IssuedAt  int64    `json:"issued_at"`
	ExpiresAt int64    `json:"expires_at"`
	Remember  bool     `json:"remember"`
}

// Expired reports whether the session is past its expiry at the given instant.
func (s *Session) Expired(now time.Time) bool {
	return now.UnixMilli() > s.ExpiresAt
}

// ExpiresTime returns the expiry as a time.Time.
func (s *Session) ExpiresTime() time.Time {
	return time.UnixMilli(s.ExpiresAt)
}
