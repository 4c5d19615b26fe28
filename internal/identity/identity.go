// Package identity remembers the submitter's contact details and the CLI admin session
// between runs. Files are replaced atomically and never expire.
package identity

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"

	"github.com/psds-microservice/helpdesk-service/internal/auth"
	"github.com/psds-microservice/helpdesk-service/internal/model"
)

const (
	identityFile = "identity.json"
	sessionFile  = "session.json"
)

var (
	ErrNoIdentity = errors.New("identity: nothing remembered yet")
	ErrNoSession  = errors.New("identity: not signed in")
)

type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) Dir() string {
	return s.dir
}

// Load returns the identity saved by the last successful submission.
func (s *Store) Load() (model.UserIdentity, error) {
	var id model.UserIdentity
	if err := s.read(identityFile, &id); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return id, ErrNoIdentity
		}
		return id, err
	}
	return id, nil
}

// Save overwrites the remembered identity.
func (s *Store) Save(id model.UserIdentity) error {
	return s.write(identityFile, id)
}

// Remember keeps the contact fields of a submitted ticket.
func (s *Store) Remember(in model.CreateTicket) error {
	return s.Save(model.UserIdentity{Name: in.Name, Email: in.Email, Phone: in.Phone})
}

func (s *Store) LoadSession() (*auth.Session, error) {
	var sess auth.Session
	if err := s.read(sessionFile, &sess); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoSession
		}
		return nil, err
	}
	return &sess, nil
}

func (s *Store) SaveSession(sess *auth.Session) error {
	if sess == nil {
		return s.ClearSession()
	}
	return s.write(sessionFile, sess)
}

// ClearSession removes the stored session. A missing file is not an error.
func (s *Store) ClearSession() error {
	err := os.Remove(filepath.Join(s.dir, sessionFile))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("identity: clear session: %w", err)
	}
	return nil
}

func (s *Store) read(name string, v interface{}) error {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("identity: decode %s: %w", name, err)
	}
	return nil
}

func (s *Store) write(name string, v interface{}) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("identity: create dir: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("identity: encode %s: %w", name, err)
	}
	if err := atomic.WriteFile(filepath.Join(s.dir, name), bytes.NewReader(data)); err != nil {
		return fmt.Errorf("identity: write %s: %w", name, err)
	}
	return nil
}
