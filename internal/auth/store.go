package auth

import (
	"context"
	"log/slog"
	"sync"
)

// Notification is what a provider reports on a session change.
type Notification struct {
	Event   Event
	Session *Session
}

// Store owns the current state and session. Listen is its only writer.
type Store struct {
	mu      sync.RWMutex
	machine *Machine
	session *Session
	log     *slog.Logger
}

// NewStore starts anonymous, or authenticated when restored is non-nil.
func NewStore(restored *Session, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	s := &Store{machine: NewMachine(), log: log}
	if restored != nil {
		_, _ = s.machine.Fire(EventSignedIn)
		s.session = restored
	}
	return s
}

func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.machine.State()
}

// Session returns the current session, nil when not authenticated.
func (s *Store) Session() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

func (s *Store) apply(n Notification) (Redirect, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.machine.Fire(n.Event)
	if err != nil {
		return RedirectNone, err
	}
	switch s.machine.State() {
	case StateAuthenticated:
		if n.Session != nil {
			s.session = n.Session
		}
	case StateRecovering:
		s.session = n.Session
	default:
		s.session = nil
	}
	return r, nil
}

// Listen applies notifications until ctx is done or events is closed. Each transition's
// redirect, when there is one, is passed to navigate. Invalid transitions are logged and dropped.
func (s *Store) Listen(ctx context.Context, events <-chan Notification, navigate func(Redirect)) {
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-events:
			if !ok {
				return
			}
			r, err := s.apply(n)
			if err != nil {
				s.log.Warn("auth: notification ignored", "event", n.Event, "err", err)
				continue
			}
			s.log.Debug("auth: state changed", "event", n.Event, "state", s.State())
			if r != RedirectNone && navigate != nil {
				navigate(r)
			}
		}
	}
}
