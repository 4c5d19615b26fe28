package auth_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psds-microservice/helpdesk-service/internal/auth"
)

func Test_Machine_Transitions(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		events   []auth.Event
		state    auth.State
		redirect auth.Redirect
	}{
		{"LoginSucceeds", []auth.Event{auth.EventSignInStarted, auth.EventSignedIn}, auth.StateAuthenticated, auth.RedirectDashboard},
		{"LoginFails", []auth.Event{auth.EventSignInStarted, auth.EventSignInFailed}, auth.StateAnonymous, auth.RedirectNone},
		{"Logout", []auth.Event{auth.EventSignedIn, auth.EventSignedOut}, auth.StateAnonymous, auth.RedirectHome},
		{"Refresh", []auth.Event{auth.EventSignedIn, auth.EventTokenRefreshed}, auth.StateAuthenticated, auth.RedirectNone},
		{"RecoveryLink", []auth.Event{auth.EventPasswordRecovery}, auth.StateRecovering, auth.RedirectResetPassword},
		{"PasswordChanged", []auth.Event{auth.EventPasswordRecovery, auth.EventUserUpdated}, auth.StateAnonymous, auth.RedirectLogin},
		{"RecoveryLinkExpired", []auth.Event{auth.EventPasswordRecovery, auth.EventRecoveryInvalid}, auth.StateAnonymous, auth.RedirectForgotPassword},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			m := auth.NewMachine()
			var last auth.Redirect
			for _, ev := range testCase.events {
				r, err := m.Fire(ev)
				require.NoError(t, err, "event %s", ev)
				last = r
			}
			assert.Equal(t, testCase.state, m.State())
			assert.Equal(t, testCase.redirect, last)
		})
	}
}

func Test_Machine_Rejects_Invalid_Transition(t *testing.T) {
	t.Parallel()

	m := auth.NewMachine()

	_, err := m.Fire(auth.EventUserUpdated)
	require.ErrorIs(t, err, auth.ErrInvalidTransition)
	assert.Equal(t, auth.StateAnonymous, m.State(), "state must not change")

	_, err = m.Fire(auth.EventSignInFailed)
	require.ErrorIs(t, err, auth.ErrInvalidTransition)
}

func Test_Session_Active(t *testing.T) {
	t.Parallel()

	now := time.Now()
	var nilSession *auth.Session

	assert.False(t, nilSession.Active(now))
	assert.False(t, (&auth.Session{AccessToken: "t", ExpiresAt: now.Add(-time.Second)}).Active(now))
	assert.True(t, (&auth.Session{AccessToken: "t", ExpiresAt: now.Add(time.Minute)}).Active(now))
}

func Test_Store_Listen_Applies_Notifications_And_Navigates(t *testing.T) {
	t.Parallel()

	store := auth.NewStore(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	events := make(chan auth.Notification)
	var redirects []auth.Redirect
	done := make(chan struct{})

	go func() {
		store.Listen(context.Background(), events, func(r auth.Redirect) { redirects = append(redirects, r) })
		close(done)
	}()

	sess := &auth.Session{AccessToken: "tok", UserID: uuid.New(), Email: "admin@kampus.ac.id", ExpiresAt: time.Now().Add(time.Hour)}
	events <- auth.Notification{Event: auth.EventSignInStarted}
	events <- auth.Notification{Event: auth.EventSignedIn, Session: sess}
	events <- auth.Notification{Event: auth.EventUserUpdated}
	close(events)
	<-done

	assert.Equal(t, auth.StateAuthenticated, store.State())
	assert.Equal(t, sess, store.Session(), "session survives a user update")
	assert.Equal(t, []auth.Redirect{auth.RedirectDashboard}, redirects)
}

func Test_Store_Listen_Drops_Invalid_Notifications(t *testing.T) {
	t.Parallel()

	store := auth.NewStore(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	events := make(chan auth.Notification, 3)
	events <- auth.Notification{Event: auth.EventTokenRefreshed}
	events <- auth.Notification{Event: auth.EventPasswordRecovery, Session: &auth.Session{AccessToken: "recovery"}}
	close(events)

	var redirects []auth.Redirect
	store.Listen(context.Background(), events, func(r auth.Redirect) { redirects = append(redirects, r) })

	assert.Equal(t, auth.StateRecovering, store.State())
	assert.Equal(t, []auth.Redirect{auth.RedirectResetPassword}, redirects)
}

func Test_Store_Listen_Stops_On_Cancel(t *testing.T) {
	t.Parallel()

	store := auth.NewStore(&auth.Session{AccessToken: "restored"}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		store.Listen(ctx, make(chan auth.Notification), nil)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Listen did not return after cancel")
	}
	assert.Equal(t, auth.StateAuthenticated, store.State())
}
