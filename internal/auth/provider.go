package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/psds-microservice/helpdesk-service/internal/errs"
	"github.com/psds-microservice/helpdesk-service/internal/model"
)

// Provider is the authentication collaborator.
type Provider interface {
	SignUp(ctx context.Context, name, email, password string) (*model.AdminProfile, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context, token string) error
	// RequestRecovery starts a password reset. Unknown emails succeed silently.
	RequestRecovery(ctx context.Context, email string) error
	// UpdatePassword completes a reset started by RequestRecovery.
	UpdatePassword(ctx context.Context, recoveryToken, password string) error
	Verify(ctx context.Context, token string) (*Session, error)
}

// RecoveryNotifier delivers a recovery token to the account owner.
type RecoveryNotifier interface {
	NotifyRecovery(ctx context.Context, email, token string) error
}

// LogNotifier writes recovery links to the log. Intended for development only.
type LogNotifier struct {
	Log     *slog.Logger
	BaseURL string
}

func (n LogNotifier) NotifyRecovery(_ context.Context, email, token string) error {
	n.Log.Info("auth: password recovery requested", "email", email,
		"link", n.BaseURL+string(RedirectResetPassword)+"?token="+token)
	return nil
}

type credential struct {
	UserID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string    `gorm:"type:varchar(255);not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (credential) TableName() string { return "admin_credentials" }

type tokenKind string

const (
	tokenAccess   tokenKind = "access"
	tokenRecovery tokenKind = "recovery"
)

type authToken struct {
	Hash      string    `gorm:"type:varchar(64);primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null"`
	Kind      tokenKind `gorm:"type:varchar(16);not null"`
	ExpiresAt time.Time `gorm:"not null"`
	CreatedAt time.Time
}

func (authToken) TableName() string { return "auth_tokens" }

// DBProvider keeps credentials and tokens next to the admin profiles.
type DBProvider struct {
	db          *gorm.DB
	sessionTTL  time.Duration
	recoveryTTL time.Duration
	notifier    RecoveryNotifier
	now         func() time.Time
}

func NewDBProvider(db *gorm.DB, sessionTTL, recoveryTTL time.Duration, notifier RecoveryNotifier) *DBProvider {
	return &DBProvider{
		db:          db,
		sessionTTL:  sessionTTL,
		recoveryTTL: recoveryTTL,
		notifier:    notifier,
		now:         time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func newToken() (raw, hash string, err error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", err
	}
	raw = hex.EncodeToString(b)
	return raw, hashToken(raw), nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// SignUp creates the credential and the admin profile. The first account becomes super_admin.
func (p *DBProvider) SignUp(ctx context.Context, name, email, password string) (*model.AdminProfile, error) {
	email = normalizeEmail(email)
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	var profile model.AdminProfile
	err = p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exists int64
		if err := tx.Model(&credential{}).Where("email = ?", email).Count(&exists).Error; err != nil {
			return err
		}
		if exists > 0 {
			return errs.ErrAlreadyRegistered
		}
		var total int64
		if err := tx.Model(&model.AdminProfile{}).Count(&total).Error; err != nil {
			return err
		}
		profile = model.AdminProfile{Email: email, Name: strings.TrimSpace(name), Role: model.RoleAdmin}
		if total == 0 {
			profile.Role = model.RoleSuperAdmin
		}
		if err := tx.Create(&profile).Error; err != nil {
			return err
		}
		return tx.Create(&credential{UserID: profile.ID, Email: email, PasswordHash: string(hash)}).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errs.ErrAlreadyRegistered
		}
		return nil, err
	}
	return &profile, nil
}

func (p *DBProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	var cred credential
	if err := p.db.WithContext(ctx).Where("email = ?", email).First(&cred).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return nil, errs.ErrInvalidCredentials
	}
	raw, hash, err := newToken()
	if err != nil {
		return nil, fmt.Errorf("new token: %w", err)
	}
	expires := p.now().Add(p.sessionTTL)
	tok := authToken{Hash: hash, UserID: cred.UserID, Kind: tokenAccess, ExpiresAt: expires}
	if err := p.db.WithContext(ctx).Create(&tok).Error; err != nil {
		return nil, err
	}
	return &Session{AccessToken: raw, UserID: cred.UserID, Email: cred.Email, ExpiresAt: expires}, nil
}

func (p *DBProvider) SignOut(ctx context.Context, token string) error {
	return p.db.WithContext(ctx).
		Where("hash = ? AND kind = ?", hashToken(token), tokenAccess).
		Delete(&authToken{}).Error
}

func (p *DBProvider) RequestRecovery(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	var cred credential
	if err := p.db.WithContext(ctx).Where("email = ?", email).First(&cred).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	raw, hash, err := newToken()
	if err != nil {
		return fmt.Errorf("new token: %w", err)
	}
	tok := authToken{Hash: hash, UserID: cred.UserID, Kind: tokenRecovery, ExpiresAt: p.now().Add(p.recoveryTTL)}
	if err := p.db.WithContext(ctx).Create(&tok).Error; err != nil {
		return err
	}
	if p.notifier == nil {
		return nil
	}
	return p.notifier.NotifyRecovery(ctx, email, raw)
}

// UpdatePassword sets a new password and revokes every token of the account.
func (p *DBProvider) UpdatePassword(ctx context.Context, recoveryToken, password string) error {
	tok, err := p.lookup(ctx, recoveryToken, tokenRecovery)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&credential{}).Where("user_id = ?", tok.UserID).
			Update("password_hash", string(hash)).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ?", tok.UserID).Delete(&authToken{}).Error
	})
}

func (p *DBProvider) Verify(ctx context.Context, token string) (*Session, error) {
	tok, err := p.lookup(ctx, token, tokenAccess)
	if err != nil {
		return nil, err
	}
	var cred credential
	if err := p.db.WithContext(ctx).Where("user_id = ?", tok.UserID).First(&cred).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrTokenExpired
		}
		return nil, err
	}
	return &Session{AccessToken: token, UserID: cred.UserID, Email: cred.Email, ExpiresAt: tok.ExpiresAt}, nil
}

func (p *DBProvider) lookup(ctx context.Context, raw string, kind tokenKind) (*authToken, error) {
	if raw == "" {
		return nil, errs.ErrTokenExpired
	}
	var tok authToken
	err := p.db.WithContext(ctx).Where("hash = ? AND kind = ?", hashToken(raw), kind).First(&tok).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrTokenExpired
		}
		return nil, err
	}
	if !p.now().Before(tok.ExpiresAt) {
		return nil, errs.ErrTokenExpired
	}
	return &tok, nil
}
