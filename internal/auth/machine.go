// Package auth models the admin session: the session value handed to gated
// operations, the state machine driven by provider notifications, and a
// database-backed provider.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Session is the authenticated admin session. A nil *Session means anonymous.
type Session struct {
	AccessToken string    `json:"access_token"`
	UserID      uuid.UUID `json:"user_id"`
	Email       string    `json:"email"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Active reports whether s is present and not expired at now.
func (s *Session) Active(now time.Time) bool {
	return s != nil && s.AccessToken != "" && now.Before(s.ExpiresAt)
}

type State string

const (
	StateAnonymous      State = "anonymous"
	StateAuthenticating State = "authenticating"
	StateAuthenticated  State = "authenticated"
	StateRecovering     State = "recovering-password"
)

type Event string

const (
	EventSignInStarted    Event = "SIGN_IN_STARTED"
	EventSignedIn         Event = "SIGNED_IN"
	EventSignInFailed     Event = "SIGN_IN_FAILED"
	EventSignedOut        Event = "SIGNED_OUT"
	EventPasswordRecovery Event = "PASSWORD_RECOVERY"
	EventRecoveryInvalid  Event = "RECOVERY_INVALID"
	EventUserUpdated      Event = "USER_UPDATED"
	EventTokenRefreshed   Event = "TOKEN_REFRESHED"
)

// Redirect is the navigation target chosen by a transition. RedirectNone keeps the current screen.
type Redirect string

const (
	RedirectNone           Redirect = ""
	RedirectHome           Redirect = "/"
	RedirectDashboard      Redirect = "/admin/dashboard"
	RedirectLogin          Redirect = "/admin/login"
	RedirectResetPassword  Redirect = "/admin/reset-password"
	RedirectForgotPassword Redirect = "/admin/forgot-password"
)

var ErrInvalidTransition = errors.New("auth: invalid transition")

type transition struct {
	to       State
	redirect Redirect
}

var transitions = map[State]map[Event]transition{
	StateAnonymous: {
		EventSignInStarted:    {StateAuthenticating, RedirectNone},
		EventSignedIn:         {StateAuthenticated, RedirectDashboard},
		EventSignedOut:        {StateAnonymous, RedirectNone},
		EventPasswordRecovery: {StateRecovering, RedirectResetPassword},
	},
	StateAuthenticating: {
		EventSignedIn:         {StateAuthenticated, RedirectDashboard},
		EventSignInFailed:     {StateAnonymous, RedirectNone},
		EventSignedOut:        {StateAnonymous, RedirectNone},
		EventPasswordRecovery: {StateRecovering, RedirectResetPassword},
	},
	StateAuthenticated: {
		EventSignedOut:        {StateAnonymous, RedirectHome},
		EventTokenRefreshed:   {StateAuthenticated, RedirectNone},
		EventUserUpdated:      {StateAuthenticated, RedirectNone},
		EventSignedIn:         {StateAuthenticated, RedirectNone},
		EventPasswordRecovery: {StateRecovering, RedirectResetPassword},
	},
	StateRecovering: {
		EventUserUpdated:     {StateAnonymous, RedirectLogin},
		EventRecoveryInvalid: {StateAnonymous, RedirectForgotPassword},
		EventSignedOut:       {StateAnonymous, RedirectLogin},
	},
}

// Machine tracks the auth state. It is not safe for concurrent use; Store wraps it.
type Machine struct {
	state State
}

func NewMachine() *Machine {
	return &Machine{state: StateAnonymous}
}

func (m *Machine) State() State {
	return m.state
}

// Fire applies ev and returns the single redirect the transition calls for.
func (m *Machine) Fire(ev Event) (Redirect, error) {
	t, ok := transitions[m.state][ev]
	if !ok {
		return RedirectNone, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, ev, m.state)
	}
	m.state = t.to
	return t.redirect, nil
}
