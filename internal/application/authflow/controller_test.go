package authflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rentx/rentx-api/internal/domain"
	"github.com/rentx/rentx-api/internal/pkg/credential"
	"github.com/rentx/rentx-api/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockDirectory struct{ mock.Mock }

func (m *mockDirectory) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	args := m.Called(ctx, email)
	if a, _ := args.Get(0).(*domain.Account); a != nil {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockDirectory) CreateAccount(ctx context.Context, email, secret string) (*domain.Account, error) {
	args := m.Called(ctx, email, secret)
	if a, _ := args.Get(0).(*domain.Account); a != nil {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockDirectory) UpdateCredential(ctx context.Context, accountID, newSecret string) (*domain.Account, error) {
	args := m.Called(ctx, accountID, newSecret)
	if a, _ := args.Get(0).(*domain.Account); a != nil {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}

func newFlow(dir *mockDirectory, sender *captureSender) *Controller {
	return NewController(
		dir,
		credential.Plain{},
		session.NewManager(session.NewMemorySlot()),
		sender,
		testLogger(),
	)
}

func existingAccount() *domain.Account {
	return &domain.Account{
		AccountID:        "acc-b",
		Email:            "b@x.com",
		CredentialSecret: "pw1",
		Role:             domain.RoleUser,
	}
}

// --- EmailEntry ---

func TestSubmitEmail_UnknownEmail_GoesToOtpCreate(t *testing.T) {
	dir, sender := &mockDirectory{}, newCaptureSender()
	dir.On("FindByEmail", mock.Anything, "a@x.com").Return(nil, domain.ErrNotFound)
	c := newFlow(dir, sender)

	require.NoError(t, c.Submit(context.Background(), "a@x.com"))

	st, ok := c.CurrentState().(OtpChallenge)
	require.True(t, ok)
	assert.Equal(t, ModeCreate, st.Mode)
	assert.Equal(t, "a@x.com", st.Email)
	assert.Nil(t, st.Account)
	assert.NoError(t, c.LastError())

	code := sender.wait(t)
	assert.Len(t, code, 4)
}

func TestSubmitEmail_KnownEmail_GoesToPasswordChallenge(t *testing.T) {
	dir, sender := &mockDirectory{}, newCaptureSender()
	dir.On("FindByEmail", mock.Anything, "b@x.com").Return(existingAccount(), nil)
	c := newFlow(dir, sender)

	require.NoError(t, c.Submit(context.Background(), "b@x.com"))

	st, ok := c.CurrentState().(PasswordChallenge)
	require.True(t, ok)
	assert.Equal(t, "acc-b", st.Account.AccountID)
	assert.Empty(t, sender.sent, "no OTP on the password path")
}

func TestSubmitEmail_StoreErrorStaysPut(t *testing.T) {
	dir, sender := &mockDirectory{}, newCaptureSender()
	dir.On("FindByEmail", mock.Anything, "a@x.com").Return(nil, domain.ErrStoreUnavailable).Once()
	dir.On("FindByEmail", mock.Anything, "a@x.com").Return(existingAccount(), nil).Once()
	c := newFlow(dir, sender)

	err := c.Submit(context.Background(), "a@x.com")
	require.Error(t, err)
	assert.IsType(t, EmailEntry{}, c.CurrentState())
	assert.True(t, errors.Is(c.LastError(), domain.ErrStoreUnavailable))

	// User-initiated retry succeeds and clears the error.
	require.NoError(t, c.Submit(context.Background(), "a@x.com"))
	assert.IsType(t, PasswordChallenge{}, c.CurrentState())
	assert.NoError(t, c.LastError())
}

// --- PasswordChallenge ---

func TestSubmitPassword_MismatchStaysWithError(t *testing.T) {
	dir, sender := &mockDirectory{}, newCaptureSender()
	dir.On("FindByEmail", mock.Anything, "b@x.com").Return(existingAccount(), nil)
	c := newFlow(dir, sender)
	require.NoError(t, c.Submit(context.Background(), "b@x.com"))

	err := c.Submit(context.Background(), "wrong")

	assert.True(t, errors.Is(err, domain.ErrCredentialMismatch))
	assert.IsType(t, PasswordChallenge{}, c.CurrentState())
	assert.True(t, errors.Is(c.LastError(), domain.ErrCredentialMismatch))
}

func TestScenario_ExistingUserLogin(t *testing.T) {
	dir, sender := &mockDirectory{}, newCaptureSender()
	dir.On("FindByEmail", mock.Anything, "b@x.com").Return(existingAccount(), nil)
	c := newFlow(dir, sender)

	require.NoError(t, c.Submit(context.Background(), "b@x.com"))
	require.Error(t, c.Submit(context.Background(), "wrong"))
	require.NoError(t, c.Submit(context.Background(), "pw1"))

	st, ok := c.CurrentState().(Authenticated)
	require.True(t, ok)
	assert.Equal(t, "b@x.com", st.Session.Account.Email)
	assert.NoError(t, c.LastError())
}

func TestForgotPassword_SwitchesToOtpReset(t *testing.T) {
	dir, sender := &mockDirectory{}, newCaptureSender()
	dir.On("FindByEmail", mock.Anything, "b@x.com").Return(existingAccount(), nil)
	c := newFlow(dir, sender)
	require.NoError(t, c.Submit(context.Background(), "b@x.com"))

	require.NoError(t, c.ForgotPassword(context.Background()))

	st, ok := c.CurrentState().(OtpChallenge)
	require.True(t, ok)
	assert.Equal(t, ModeReset, st.Mode)
	assert.Equal(t, "b@x.com", st.Email)
	require.NotNil(t, st.Account)
	assert.Equal(t, "acc-b", st.Account.AccountID)
	sender.wait(t)
}

// --- OtpChallenge ---

func TestSubmitCode_MismatchStaysWithError(t *testing.T) {
	dir, sender := &mockDirectory{}, newCaptureSender()
	dir.On("FindByEmail", mock.Anything, "a@x.com").Return(nil, domain.ErrNotFound)
	c := newFlow(dir, sender)
	require.NoError(t, c.Submit(context.Background(), "a@x.com"))
	code := sender.wait(t)

	wrong := "0000"
	if wrong == code {
		wrong = "0001"
	}
	err := c.Submit(context.Background(), wrong)

	assert.True(t, errors.Is(err, domain.ErrCredentialMismatch))
	assert.IsType(t, OtpChallenge{}, c.CurrentState())
}

func TestResend_OnlyNewestCodeVerifies(t *testing.T) {
	dir, sender := &mockDirectory{}, newCaptureSender()
	dir.On("FindByEmail", mock.Anything, "a@x.com").Return(nil, domain.ErrNotFound)
	c := newFlow(dir, sender)
	require.NoError(t, c.Submit(context.Background(), "a@x.com"))
	first := sender.wait(t)

	second := first
	for attempts := 0; second == first; attempts++ {
		require.Less(t, attempts, 100)
		require.NoError(t, c.Resend())
		second = sender.wait(t)
	}

	err := c.Submit(context.Background(), first)
	assert.True(t, errors.Is(err, domain.ErrCredentialMismatch))

	require.NoError(t, c.Submit(context.Background(), second))
	assert.IsType(t, SetCredential{}, c.CurrentState())
}

func TestChangeEmail_DiscardsTransientState(t *testing.T) {
	dir, sender := &mockDirectory{}, newCaptureSender()
	dir.On("FindByEmail", mock.Anything, "a@x.com").Return(nil, domain.ErrNotFound)
	c := newFlow(dir, sender)
	require.NoError(t, c.Submit(context.Background(), "a@x.com"))
	code := sender.wait(t)

	require.NoError(t, c.ChangeEmail())
	assert.IsType(t, EmailEntry{}, c.CurrentState())

	// Back at EmailEntry the old code is dead: submitting it is an email
	// lookup, not a code check.
	dir.On("FindByEmail", mock.Anything, code).Return(nil, domain.ErrNotFound)
	require.NoError(t, c.Submit(context.Background(), code))
	st, ok := c.CurrentState().(OtpChallenge)
	require.True(t, ok)
	assert.Equal(t, code, st.Email)
}

// --- SetCredential ---

func TestScenario_NewAccountSignup(t *testing.T) {
	dir, sender := &mockDirectory{}, newCaptureSender()
	dir.On("FindByEmail", mock.Anything, "a@x.com").Return(nil, domain.ErrNotFound)
	created := &domain.Account{AccountID: "acc-a", Email: "a@x.com", CredentialSecret: "secret1", Role: domain.RoleUser}
	dir.On("CreateAccount", mock.Anything, "a@x.com", "secret1").Return(created, nil)
	c := newFlow(dir, sender)

	require.NoError(t, c.Submit(context.Background(), "a@x.com"))
	code := sender.wait(t)
	require.NoError(t, c.Submit(context.Background(), code))
	require.NoError(t, c.Submit(context.Background(), "secret1"))

	st, ok := c.CurrentState().(Authenticated)
	require.True(t, ok)
	assert.Equal(t, "a@x.com", st.Session.Account.Email)
	assert.Equal(t, "secret1", st.Session.Account.CredentialSecret)
	dir.AssertCalled(t, "CreateAccount", mock.Anything, "a@x.com", "secret1")
	dir.AssertNotCalled(t, "UpdateCredential", mock.Anything, mock.Anything, mock.Anything)
}

func TestScenario_PasswordReset(t *testing.T) {
	dir, sender := &mockDirectory{}, newCaptureSender()
	acc := existingAccount()
	dir.On("FindByEmail", mock.Anything, "b@x.com").Return(acc, nil)
	updated := &domain.Account{AccountID: "acc-b", Email: "b@x.com", CredentialSecret: "newpw", Role: domain.RoleUser}
	dir.On("UpdateCredential", mock.Anything, "acc-b", "newpw").Return(updated, nil)
	c := newFlow(dir, sender)

	require.NoError(t, c.Submit(context.Background(), "b@x.com"))
	require.NoError(t, c.ForgotPassword(context.Background()))
	code := sender.wait(t)
	require.NoError(t, c.Submit(context.Background(), code))
	require.NoError(t, c.Submit(context.Background(), "newpw"))

	st, ok := c.CurrentState().(Authenticated)
	require.True(t, ok)
	assert.Equal(t, "newpw", st.Session.Account.CredentialSecret)
	dir.AssertCalled(t, "UpdateCredential", mock.Anything, "acc-b", "newpw")
	dir.AssertNotCalled(t, "CreateAccount", mock.Anything, mock.Anything, mock.Anything)
}

func TestSetCredential_StoreErrorStaysPut(t *testing.T) {
	dir, sender := &mockDirectory{}, newCaptureSender()
	dir.On("FindByEmail", mock.Anything, "a@x.com").Return(nil, domain.ErrNotFound)
	dir.On("CreateAccount", mock.Anything, "a@x.com", "secret1").Return(nil, domain.ErrStoreUnavailable).Once()
	created := &domain.Account{AccountID: "acc-a", Email: "a@x.com"}
	dir.On("CreateAccount", mock.Anything, "a@x.com", "secret1").Return(created, nil).Once()
	c := newFlow(dir, sender)

	require.NoError(t, c.Submit(context.Background(), "a@x.com"))
	code := sender.wait(t)
	require.NoError(t, c.Submit(context.Background(), code))

	require.Error(t, c.Submit(context.Background(), "secret1"))
	assert.IsType(t, SetCredential{}, c.CurrentState())
	assert.True(t, errors.Is(c.LastError(), domain.ErrStoreUnavailable))

	require.NoError(t, c.Submit(context.Background(), "secret1"))
	assert.IsType(t, Authenticated{}, c.CurrentState())
}

// --- sessions / remember ---

func TestAuthenticated_RememberStretchesSessionToSevenDays(t *testing.T) {
	dir, sender := &mockDirectory{}, newCaptureSender()
	dir.On("FindByEmail", mock.Anything, "b@x.com").Return(existingAccount(), nil)
	c := newFlow(dir, sender)
	c.SetRemember(true)

	require.NoError(t, c.Submit(context.Background(), "b@x.com"))
	require.NoError(t, c.Submit(context.Background(), "pw1"))

	st := c.CurrentState().(Authenticated)
	assert.True(t, st.Session.Remember)
	assert.Equal(t, 7*24*time.Hour, time.Duration(st.Session.ExpiresAt-st.Session.IssuedAt)*time.Millisecond)
}

func TestLogout_ClearsSessionAndReturnsToEmailEntry(t *testing.T) {
	dir, sender := &mockDirectory{}, newCaptureSender()
	dir.On("FindByEmail", mock.Anything, "b@x.com").Return(existingAccount(), nil)
	slot := session.NewMemorySlot()
	c := NewController(dir, credential.Plain{}, session.NewManager(slot), sender, testLogger())

	require.NoError(t, c.Submit(context.Background(), "b@x.com"))
	require.NoError(t, c.Submit(context.Background(), "pw1"))
	require.NoError(t, c.Logout(context.Background()))

	assert.IsType(t, EmailEntry{}, c.CurrentState())
	_, ok, err := slot.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

// --- guards ---

func TestInvalidEvents_RejectedInPlace(t *testing.T) {
	dir, sender := &mockDirectory{}, newCaptureSender()
	c := newFlow(dir, sender)

	assert.True(t, errors.Is(c.Resend(), ErrInvalidEvent))
	assert.True(t, errors.Is(c.ChangeEmail(), ErrInvalidEvent))
	assert.True(t, errors.Is(c.ForgotPassword(context.Background()), ErrInvalidEvent))
	assert.True(t, errors.Is(c.Logout(context.Background()), ErrInvalidEvent))
	assert.IsType(t, EmailEntry{}, c.CurrentState())
}

func TestBusyFlag_RejectsReentrantSubmit(t *testing.T) {
	sender := newCaptureSender()
	block := make(chan struct{})
	entered := make(chan struct{})
	dir := &blockingDirectory{block: block, entered: entered}
	c := NewController(dir, credential.Plain{}, session.NewManager(session.NewMemorySlot()), sender, testLogger())

	done := make(chan error, 1)
	go func() { done <- c.Submit(context.Background(), "a@x.com") }()
	<-entered

	// The lookup is outstanding: a second submission must be rejected, not
	// queued — this is what prevents double account creation.
	err := c.Submit(context.Background(), "a@x.com")
	assert.True(t, errors.Is(err, ErrBusy))

	close(block)
	require.NoError(t, <-done)
	assert.IsType(t, OtpChallenge{}, c.CurrentState())
}

type blockingDirectory struct {
	block   chan struct{}
	entered chan struct{}
}

func (d *blockingDirectory) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	close(d.entered)
	<-d.block
	return nil, domain.ErrNotFound
}
func (d *blockingDirectory) CreateAccount(ctx context.Context, email, secret string) (*domain.Account, error) {
	return &domain.Account{AccountID: "acc", Email: email, CredentialSecret: secret}, nil
}
func (d *blockingDirectory) UpdateCredential(ctx context.Context, accountID, newSecret string) (*domain.Account, error) {
	return &domain.Account{AccountID: accountID, CredentialSecret: newSecret}, nil
}
