package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rentx/rentx-api/internal/application/activity"
	"github.com/rentx/rentx-api/internal/application/authflow"
	jwtinfra "github.com/rentx/rentx-api/internal/infrastructure/jwt"
)

// AuthHandler drives login flow instances over HTTP. Each flow is a server-
// hosted state machine; the client holds only the flow id and posts events
// against it.
type AuthHandler struct {
	registry *FlowRegistry
	jwt      *jwtinfra.Provider
	tracker  *activity.Tracker
}

func NewAuthHandler(registry *FlowRegistry, jwt *jwtinfra.Provider, tracker *activity.Tracker) *AuthHandler {
	return &AuthHandler{registry: registry, jwt: jwt, tracker: tracker}
}

type submitRequest struct {
	Input    string `json:"input"`
	Remember *bool  `json:"remember,omitempty"`
}

// Start creates a flow at the email step.
func (h *AuthHandler) Start(w http.ResponseWriter, _ *http.Request) {
	flowID, flow := h.registry.Create()
	writeJSON(w, http.StatusCreated, h.envelope(flowID, flow))
}

// State returns the flow's current step.
func (h *AuthHandler) State(w http.ResponseWriter, r *http.Request) {
	flowID := chi.URLParam(r, "flowID")
	flow, ok := h.registry.Get(flowID)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown or expired flow")
		return
	}
	writeJSON(w, http.StatusOK, h.envelope(flowID, flow))
}

// Action applies one event to the flow: submit, resend, change-email,
// forgot-password, or logout. Failed events leave the flow in place; the
// response carries the same step with the error attached.
func (h *AuthHandler) Action(w http.ResponseWriter, r *http.Request) {
	flowID := chi.URLParam(r, "flowID")
	flow, ok := h.registry.Get(flowID)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown or expired flow")
		return
	}

	var err error
	switch action := chi.URLParam(r, "action"); action {
	case "submit":
		var req submitRequest
		if decodeErr := json.NewDecoder(r.Body).Decode(&req); decodeErr != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Remember != nil {
			flow.SetRemember(*req.Remember)
		}
		before := flow.CurrentState().Name()
		err = flow.Submit(r.Context(), req.Input)
		if err == nil && before != "authenticated" {
			if st, ok := flow.CurrentState().(authflow.Authenticated); ok && h.tracker != nil {
				h.tracker.Track(st.Session.Account.AccountID, "login", flowID)
			}
		}
	case "resend":
		err = flow.Resend()
	case "change-email":
		err = flow.ChangeEmail()
	case "forgot-password":
		err = flow.ForgotPassword(r.Context())
	case "logout":
		err = flow.Logout(r.Context())
	default:
		writeError(w, http.StatusBadRequest, "unknown action")
		return
	}

	env := h.envelope(flowID, flow)
	if err != nil {
		env.Error = err.Error()
		writeJSON(w, statusFromError(err), env)
		return
	}
	writeJSON(w, http.StatusOK, env)
}

// envelope renders the flow's current step. At authenticated it includes the
// session snapshot and a bearer that expires exactly when the session does.
func (h *AuthHandler) envelope(flowID string, flow *authflow.Controller) FlowEnvelope {
	state := flow.CurrentState()
	env := FlowEnvelope{FlowID: flowID, State: state.Name()}

	switch st := state.(type) {
	case authflow.OtpChallenge:
		env.Mode = string(st.Mode)
		env.Email = st.Email
	case authflow.SetCredential:
		env.Mode = string(st.Mode)
		env.Email = st.Email
	case authflow.Authenticated:
		env.Session = st.Session
		if h.jwt != nil {
			acc := st.Session.Account
			bearer, err := h.jwt.Sign(acc.AccountID, acc.Email, acc.Role, st.Session.ExpiresTime())
			if err == nil {
				env.Bearer = bearer
			}
		}
	}
	return env
}
