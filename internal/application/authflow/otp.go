package authflow

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"
)

// CodeSender is the outbound notification channel for login codes. The call
// is one-way: delivery is best-effort and no receipt is modeled.
type CodeSender interface {
	SendCode(ctx context.Context, email, code string) error
}

// OTPChallenge holds the single live code for one flow instance. The code
// exists only in the memory of the running flow — it is never persisted — and
// is discarded when the flow ends or the email changes. Issuing a new code
// (initial send or resend) invalidates the previous one outright.
type OTPChallenge struct {
	mu       sync.Mutex
	code     string
	email    string
	mode     Mode
	issuedAt time.Time

	sender CodeSender
	logger *slog.Logger
}

func NewOTPChallenge(sender CodeSender, logger *slog.Logger) *OTPChallenge {
	return &OTPChallenge{sender: sender, logger: logger}
}

// Begin generates a fresh code for email and dispatches it. Dispatch is
// fire-and-forget: the send runs in its own goroutine, its failure is only
// logged, and the caller advances state without waiting. The OTP screen shows
// immediately regardless of delivery.
func (c *OTPChallenge) Begin(email string, mode Mode) error {
	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}
	c.mu.Lock()
	c.code = code
	c.email = email
	c.mode = mode
	c.issuedAt = time.Now()
	c.mu.Unlock()

	c.dispatch(email, code)
	return nil
}

// Resend issues a new code to the same email. The previous code stops
// verifying the moment the new one is generated; there is no dual window.
func (c *OTPChallenge) Resend() error {
	c.mu.Lock()
	email, mode := c.email, c.mode
	c.mu.Unlock()
	if email == "" {
		return fmt.Errorf("no challenge in progress")
	}
	return c.Begin(email, mode)
}

// Verify compares candidate with the live code by exact string equality.
// There is no expiry timer and no attempt limit.
func (c *OTPChallenge) Verify(candidate string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.code == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(c.code)) == 1
}

// Reset discards the live code and target, e.g. when the user changes email.
func (c *OTPChallenge) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.code = ""
	c.email = ""
	c.mode = ""
	c.issuedAt = time.Time{}
}

func (c *OTPChallenge) dispatch(email, code string) {
	go func() {
		if err := c.sender.SendCode(context.Background(), email, code); err != nil {
			c.logger.Warn("otp dispatch failed", "email", email, "err", err)
		}
	}()
}

// generateCode draws a 4-digit code uniformly from 1000–9999. The first digit
// is never zero, matching the legacy generator.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", n.Int64()+1000), nil
}
