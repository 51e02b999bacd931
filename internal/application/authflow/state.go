package authflow

import "github.com/rentx/rentx-api/internal/domain"

// Mode distinguishes the two OTP paths: a brand-new account versus a password
// reset on an existing one.
type Mode string

const (
	ModeCreate Mode = "create"
	ModeReset  Mode = "reset"
)

// State is the sealed set of flow states. Each state carries only the payload
// that exists at that point — an account snapshot is present exactly when one
// has been looked up, an email exactly when one has been submitted.
type State interface {
	Name() string
	sealed()
}

// EmailEntry is the initial state: nothing known yet.
type EmailEntry struct{}

// PasswordChallenge holds the looked-up account whose password is being asked.
type PasswordChallenge struct {
	Account *domain.Account
}

// OtpChallenge holds the email a code was dispatched to. Account is non-nil
// only on the reset path.
type OtpChallenge struct {
	Mode    Mode
	Email   string
	Account *domain.Account
}

// SetCredential is reached after a correct code; the next submission is the
// new secret. Account is non-nil only on the reset path.
type SetCredential struct {
	Mode    Mode
	Email   string
	Account *domain.Account
}

// Authenticated is terminal for the flow instance.
type Authenticated struct {
	Session *domain.Session
}

func (EmailEntry) Name() string        { return "email_entry" }
func (PasswordChallenge) Name() string { return "password_challenge" }
func (OtpChallenge) Name() string      { return "otp_challenge" }
func (SetCredential) Name() string     { return "set_credential" }
func (Authenticated) Name() string     { return "authenticated" }

func (EmailEntry) sealed()        {}
func (PasswordChallenge) sealed() {}
func (OtpChallenge) sealed()      {}
func (SetCredential) sealed()     {}
func (Authenticated) sealed()     {}
