// Package authflow is the login/sign-up/reset state machine. One Controller
// is one flow instance: it starts at EmailEntry, branches on whether the
// submitted email has an account, and ends at Authenticated once a session is
// issued. All transient state (OTP code, email, account snapshot) lives in
// the instance and dies with it.
package authflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rentx/rentx-api/internal/application/directory"
	"github.com/rentx/rentx-api/internal/domain"
	"github.com/rentx/rentx-api/internal/pkg/credential"
	"github.com/rentx/rentx-api/internal/session"
)

var (
	// ErrBusy rejects a re-entrant event while a store call is outstanding,
	// preventing duplicate transitions (e.g. double account creation from a
	// double-click).
	ErrBusy = errors.New("operation already in progress")
	// ErrInvalidEvent marks an event that the current state does not accept.
	ErrInvalidEvent = errors.New("event not valid in current state")
)

// Controller orchestrates one authentication flow instance. Events advance it
// only in response to user input; there are no timers. Every recoverable
// failure leaves the state unchanged, records the error for display, and lets
// the user resubmit.
type Controller struct {
	mu       sync.Mutex
	busy     bool
	state    State
	lastErr  error
	remember bool

	dir      directory.Service
	verifier credential.Scheme
	sessions *session.Manager
	otp      *OTPChallenge
	logger   *slog.Logger
}

func NewController(
	dir directory.Service,
	verifier credential.Scheme,
	sessions *session.Manager,
	sender CodeSender,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		state:    EmailEntry{},
		dir:      dir,
		verifier: verifier,
		sessions: sessions,
		otp:      NewOTPChallenge(sender, logger),
		logger:   logger,
	}
}

// CurrentState returns the flow's current state.
func (c *Controller) CurrentState() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastError returns the recoverable error attached to the current state, if
// any. It is cleared by the next successful event.
func (c *Controller) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// SetRemember toggles the remember-me option used when the session is issued.
func (c *Controller) SetRemember(remember bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.remember = remember
}

// Submit feeds the active field's value to the flow: the email at EmailEntry,
// the password at PasswordChallenge, the code at OtpChallenge, and the new
// secret at SetCredential.
func (c *Controller) Submit(ctx context.Context, input string) error {
	state, err := c.begin()
	if err != nil {
		return err
	}
	switch st := state.(type) {
	case EmailEntry:
		return c.submitEmail(ctx, input)
	case PasswordChallenge:
		return c.submitPassword(ctx, st, input)
	case OtpChallenge:
		return c.submitCode(st, input)
	case SetCredential:
		return c.submitNewSecret(ctx, st, input)
	default:
		c.finish(state, ErrInvalidEvent)
		return ErrInvalidEvent
	}
}

// ForgotPassword switches from the password prompt to the OTP reset path.
// The code dispatch is not awaited; the OTP screen shows immediately.
func (c *Controller) ForgotPassword(ctx context.Context) error {
	state, err := c.begin()
	if err != nil {
		return err
	}
	st, ok := state.(PasswordChallenge)
	if !ok {
		c.finish(state, ErrInvalidEvent)
		return ErrInvalidEvent
	}
	if err := c.otp.Begin(st.Account.Email, ModeReset); err != nil {
		c.finish(state, err)
		return err
	}
	c.finish(OtpChallenge{Mode: ModeReset, Email: st.Account.Email, Account: st.Account}, nil)
	return nil
}

// Resend re-dispatches a fresh code, invalidating the previous one.
func (c *Controller) Resend() error {
	state, err := c.begin()
	if err != nil {
		return err
	}
	if _, ok := state.(OtpChallenge); !ok {
		c.finish(state, ErrInvalidEvent)
		return ErrInvalidEvent
	}
	if err := c.otp.Resend(); err != nil {
		c.finish(state, err)
		return err
	}
	c.finish(state, nil)
	return nil
}

// ChangeEmail abandons the OTP step and returns to EmailEntry, discarding the
// live code and every other transient field.
func (c *Controller) ChangeEmail() error {
	state, err := c.begin()
	if err != nil {
		return err
	}
	if _, ok := state.(OtpChallenge); !ok {
		c.finish(state, ErrInvalidEvent)
		return ErrInvalidEvent
	}
	c.otp.Reset()
	c.mu.Lock()
	c.remember = false
	c.mu.Unlock()
	c.finish(EmailEntry{}, nil)
	return nil
}

// Logout terminates the session and resets the flow to EmailEntry.
func (c *Controller) Logout(ctx context.Context) error {
	state, err := c.begin()
	if err != nil {
		return err
	}
	if _, ok := state.(Authenticated); !ok {
		c.finish(state, ErrInvalidEvent)
		return ErrInvalidEvent
	}
	if err := c.sessions.Terminate(ctx); err != nil {
		c.finish(state, err)
		return err
	}
	c.finish(EmailEntry{}, nil)
	return nil
}

// ── transitions ──────────────────────────────────────────────────────────────

func (c *Controller) submitEmail(ctx context.Context, email string) error {
	acc, err := c.dir.FindByEmail(ctx, email)
	switch {
	case err == nil:
		c.finish(PasswordChallenge{Account: acc}, nil)
		return nil
	case errors.Is(err, domain.ErrNotFound):
		// New user: verify control of the address before creating anything.
		if err := c.otp.Begin(email, ModeCreate); err != nil {
			c.finish(EmailEntry{}, err)
			return err
		}
		c.finish(OtpChallenge{Mode: ModeCreate, Email: email}, nil)
		return nil
	default:
		c.finish(EmailEntry{}, fmt.Errorf("email lookup: %w", err))
		return err
	}
}

func (c *Controller) submitPassword(ctx context.Context, st PasswordChallenge, password string) error {
	if !c.verifier.Verify(password, st.Account.CredentialSecret) {
		c.finish(st, domain.ErrCredentialMismatch)
		return domain.ErrCredentialMismatch
	}
	sess, err := c.sessions.Issue(ctx, st.Account, c.rememberFlag())
	if err != nil {
		c.finish(st, err)
		return err
	}
	c.finish(Authenticated{Session: sess}, nil)
	return nil
}

func (c *Controller) submitCode(st OtpChallenge, code string) error {
	if !c.otp.Verify(code) {
		c.finish(st, domain.ErrCredentialMismatch)
		return domain.ErrCredentialMismatch
	}
	c.finish(SetCredential{Mode: st.Mode, Email: st.Email, Account: st.Account}, nil)
	return nil
}

func (c *Controller) submitNewSecret(ctx context.Context, st SetCredential, secret string) error {
	var (
		acc *domain.Account
		err error
	)
	if st.Mode == ModeReset && st.Account != nil {
		acc, err = c.dir.UpdateCredential(ctx, st.Account.AccountID, secret)
	} else {
		acc, err = c.dir.CreateAccount(ctx, st.Email, secret)
	}
	if err != nil {
		c.finish(st, err)
		return err
	}
	sess, err := c.sessions.Issue(ctx, acc, c.rememberFlag())
	if err != nil {
		c.finish(st, err)
		return err
	}
	c.otp.Reset()
	c.finish(Authenticated{Session: sess}, nil)
	return nil
}

// ── busy window ──────────────────────────────────────────────────────────────

// begin claims the flow for one event. While claimed, any other event returns
// ErrBusy instead of queueing.
func (c *Controller) begin() (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return nil, ErrBusy
	}
	c.busy = true
	return c.state, nil
}

// finish releases the flow, applying the next state and its error annotation.
func (c *Controller) finish(next State, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
	c.state = next
	c.lastErr = err
}

func (c *Controller) rememberFlag() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remember
}
