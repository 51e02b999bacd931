package handler

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rentx/rentx-api/internal/application/activity"
	"github.com/rentx/rentx-api/internal/application/authflow"
	"github.com/rentx/rentx-api/internal/config"
	"github.com/rentx/rentx-api/internal/domain"
	jwtinfra "github.com/rentx/rentx-api/internal/infrastructure/jwt"
	"github.com/rentx/rentx-api/internal/pkg/credential"
	"github.com/rentx/rentx-api/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

// fakeDirectory is an in-memory directory.Service.
type fakeDirectory struct {
	mu      sync.Mutex
	byEmail map[string]*domain.Account
	nextID  int
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{byEmail: map[string]*domain.Account{}}
}

func (d *fakeDirectory) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if a, ok := d.byEmail[email]; ok {
		return a, nil
	}
	return nil, domain.ErrNotFound
}

func (d *fakeDirectory) CreateAccount(_ context.Context, email, secret string) (*domain.Account, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	a := &domain.Account{
		AccountID:        fmt.Sprintf("acc-%d", d.nextID),
		Email:            email,
		CredentialSecret: secret,
		Role:             domain.RoleUser,
		CreatedAt:        time.Now().UTC(),
	}
	d.byEmail[email] = a
	return a, nil
}

func (d *fakeDirectory) UpdateCredential(_ context.Context, accountID, newSecret string) (*domain.Account, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, a := range d.byEmail {
		if a.AccountID == accountID {
			a.CredentialSecret = newSecret
			return a, nil
		}
	}
	return nil, domain.ErrNotFound
}

// codeSink captures dispatched OTP codes.
type codeSink struct {
	codes chan string
}

func newCodeSink() *codeSink { return &codeSink{codes: make(chan string, 16)} }

func (s *codeSink) SendCode(_ context.Context, _, code string) error {
	s.codes <- code
	return nil
}

func (s *codeSink) wait(t *testing.T) string {
	t.Helper()
	select {
	case code := <-s.codes:
		return code
	case <-time.After(2 * time.Second):
		t.Fatal("no code dispatched")
		return ""
	}
}

// --- helpers ---

// newTestJWTProvider generates a fresh RSA key pair and returns a *jwtinfra.Provider.
func newTestJWTProvider(t *testing.T) *jwtinfra.Provider {
	t.Helper()
	privKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	dir := t.TempDir()
	privPath := filepath.Join(dir, "private.pem")
	pubPath := filepath.Join(dir, "public.pem")

	privPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(privKey)})
	require.NoError(t, os.WriteFile(privPath, privPEM, 0600))

	pubBytes, err := x509.MarshalPKIXPublicKey(&privKey.PublicKey)
	require.NoError(t, err)
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubBytes})
	require.NoError(t, os.WriteFile(pubPath, pubPEM, 0600))

	p, err := jwtinfra.NewProvider(&config.Config{
		JWTPrivateKeyPath: privPath,
		JWTPublicKeyPath:  pubPath,
	})
	require.NoError(t, err)
	return p
}

type authFixture struct {
	router *chi.Mux
	dir    *fakeDirectory
	sink   *codeSink
	jwt    *jwtinfra.Provider
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	dir := newFakeDirectory()
	sink := newCodeSink()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	registry := NewFlowRegistry(30*time.Minute, func(string) *authflow.Controller {
		return authflow.NewController(dir, credential.Plain{}, session.NewManager(session.NewMemorySlot()), sink, logger)
	})
	p := newTestJWTProvider(t)
	tracker := activity.NewTracker(noopActivityStore{}, logger)
	h := NewAuthHandler(registry, p, tracker)

	r := chi.NewRouter()
	r.Post("/v1/auth/flows", h.Start)
	r.Get("/v1/auth/flows/{flowID}", h.State)
	r.Post("/v1/auth/flows/{flowID}/{action}", h.Action)
	return &authFixture{router: r, dir: dir, sink: sink, jwt: p}
}

type noopActivityStore struct{}

func (noopActivityStore) Put(context.Context, *domain.Activity) error { return nil }

func (f *authFixture) do(t *testing.T, method, target string, body any) (*httptest.ResponseRecorder, FlowEnvelope) {
	t.Helper()
	var r *http.Request
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = httptest.NewRequest(method, target, bytes.NewReader(raw))
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, r)
	var env FlowEnvelope
	_ = json.NewDecoder(rr.Body).Decode(&env)
	return rr, env
}

func (f *authFixture) start(t *testing.T) string {
	t.Helper()
	rr, env := f.do(t, http.MethodPost, "/v1/auth/flows", nil)
	require.Equal(t, http.StatusCreated, rr.Code)
	require.Equal(t, "email_entry", env.State)
	require.NotEmpty(t, env.FlowID)
	return env.FlowID
}

// --- tests ---

func TestStart_CreatesFlowAtEmailEntry(t *testing.T) {
	f := newAuthFixture(t)
	flowID := f.start(t)

	rr, env := f.do(t, http.MethodGet, "/v1/auth/flows/"+flowID, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "email_entry", env.State)
}

func TestUnknownFlow_NotFound(t *testing.T) {
	f := newAuthFixture(t)

	rr, _ := f.do(t, http.MethodGet, "/v1/auth/flows/nope", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr, _ = f.do(t, http.MethodPost, "/v1/auth/flows/nope/submit", submitRequest{Input: "a@x.com"})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestUnknownAction_BadRequest(t *testing.T) {
	f := newAuthFixture(t)
	flowID := f.start(t)

	rr, _ := f.do(t, http.MethodPost, "/v1/auth/flows/"+flowID+"/teleport", submitRequest{Input: "x"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSignupOverHTTP(t *testing.T) {
	f := newAuthFixture(t)
	flowID := f.start(t)
	base := "/v1/auth/flows/" + flowID

	rr, env := f.do(t, http.MethodPost, base+"/submit", submitRequest{Input: "a@x.com"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "otp_challenge", env.State)
	assert.Equal(t, "create", env.Mode)
	assert.Equal(t, "a@x.com", env.Email)

	code := f.sink.wait(t)
	rr, env = f.do(t, http.MethodPost, base+"/submit", submitRequest{Input: code})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "set_credential", env.State)

	rr, env = f.do(t, http.MethodPost, base+"/submit", submitRequest{Input: "secret1"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "authenticated", env.State)
	require.NotNil(t, env.Session)
	assert.Equal(t, "a@x.com", env.Session.Account.Email)
	assert.NotEmpty(t, env.Bearer)

	claims, err := f.jwt.Verify(env.Bearer)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.Equal(t, domain.RoleUser, claims.Role)

	// The account now exists; a fresh flow takes the password path.
	flow2 := f.start(t)
	rr, env = f.do(t, http.MethodPost, "/v1/auth/flows/"+flow2+"/submit", submitRequest{Input: "a@x.com"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "password_challenge", env.State)
}

func TestLoginOverHTTP_WrongThenRightPassword(t *testing.T) {
	f := newAuthFixture(t)
	_, err := f.dir.CreateAccount(context.Background(), "b@x.com", "pw1")
	require.NoError(t, err)
	flowID := f.start(t)
	base := "/v1/auth/flows/" + flowID

	rr, env := f.do(t, http.MethodPost, base+"/submit", submitRequest{Input: "b@x.com"})
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "password_challenge", env.State)

	rr, env = f.do(t, http.MethodPost, base+"/submit", submitRequest{Input: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "password_challenge", env.State)
	assert.NotEmpty(t, env.Error)

	remember := true
	rr, env = f.do(t, http.MethodPost, base+"/submit", submitRequest{Input: "pw1", Remember: &remember})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "authenticated", env.State)
	require.NotNil(t, env.Session)
	assert.True(t, env.Session.Remember)
	assert.Equal(t, 7*24*time.Hour, time.Duration(env.Session.ExpiresAt-env.Session.IssuedAt)*time.Millisecond)
}

func TestPasswordResetOverHTTP(t *testing.T) {
	f := newAuthFixture(t)
	acc, err := f.dir.CreateAccount(context.Background(), "b@x.com", "pw1")
	require.NoError(t, err)
	flowID := f.start(t)
	base := "/v1/auth/flows/" + flowID

	_, env := f.do(t, http.MethodPost, base+"/submit", submitRequest{Input: "b@x.com"})
	require.Equal(t, "password_challenge", env.State)

	rr, env := f.do(t, http.MethodPost, base+"/forgot-password", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "otp_challenge", env.State)
	assert.Equal(t, "reset", env.Mode)

	code := f.sink.wait(t)
	_, env = f.do(t, http.MethodPost, base+"/submit", submitRequest{Input: code})
	require.Equal(t, "set_credential", env.State)

	rr, env = f.do(t, http.MethodPost, base+"/submit", submitRequest{Input: "newpw"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "authenticated", env.State)
	assert.Equal(t, acc.AccountID, env.Session.Account.AccountID)

	stored, err := f.dir.FindByEmail(context.Background(), "b@x.com")
	require.NoError(t, err)
	assert.Equal(t, "newpw", stored.CredentialSecret)
}

func TestResendAndChangeEmailOverHTTP(t *testing.T) {
	f := newAuthFixture(t)
	flowID := f.start(t)
	base := "/v1/auth/flows/" + flowID

	_, env := f.do(t, http.MethodPost, base+"/submit", submitRequest{Input: "a@x.com"})
	require.Equal(t, "otp_challenge", env.State)
	f.sink.wait(t)

	rr, env := f.do(t, http.MethodPost, base+"/resend", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "otp_challenge", env.State)
	f.sink.wait(t)

	rr, env = f.do(t, http.MethodPost, base+"/change-email", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "email_entry", env.State)
}

func TestLogoutOverHTTP(t *testing.T) {
	f := newAuthFixture(t)
	_, err := f.dir.CreateAccount(context.Background(), "b@x.com", "pw1")
	require.NoError(t, err)
	flowID := f.start(t)
	base := "/v1/auth/flows/" + flowID

	f.do(t, http.MethodPost, base+"/submit", submitRequest{Input: "b@x.com"})
	_, env := f.do(t, http.MethodPost, base+"/submit", submitRequest{Input: "pw1"})
	require.Equal(t, "authenticated", env.State)

	rr, env := f.do(t, http.MethodPost, base+"/logout", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "email_entry", env.State)

	// Logging out twice is an invalid event, not a crash.
	rr, _ = f.do(t, http.MethodPost, base+"/logout", nil)
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestResendAtEmailEntry_Conflict(t *testing.T) {
	f := newAuthFixture(t)
	flowID := f.start(t)

	rr, env := f.do(t, http.MethodPost, "/v1/auth/flows/"+flowID+"/resend", nil)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "email_entry", env.State)
	assert.NotEmpty(t, env.Error)
}
