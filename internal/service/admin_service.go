package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/psds-microservice/helpdesk-service/internal/auth"
	"github.com/psds-microservice/helpdesk-service/internal/errs"
	"github.com/psds-microservice/helpdesk-service/internal/model"
)

type AdminServicer interface {
	List(ctx context.Context, sess *auth.Session) ([]model.AdminProfile, error)
	Get(ctx context.Context, sess *auth.Session, id uuid.UUID) (*model.AdminProfile, error)
	Update(ctx context.Context, sess *auth.Session, id uuid.UUID, upd UpdateProfile) (*model.AdminProfile, error)
	Delete(ctx context.Context, sess *auth.Session, id uuid.UUID) error
}

type UpdateProfile struct {
	Name *string
	Role *model.AdminRole
}

// AdminService manages admin profiles. Refusing to act on one's own profile is a
// usability rule, not an access control.
type AdminService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewAdminService(db *gorm.DB) *AdminService {
	return &AdminService{db: db, now: time.Now}
}

func (s *AdminService) List(ctx context.Context, sess *auth.Session) ([]model.AdminProfile, error) {
	if err := requireSession(sess, s.now()); err != nil {
		return nil, err
	}
	var out []model.AdminProfile
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *AdminService) Get(ctx context.Context, sess *auth.Session, id uuid.UUID) (*model.AdminProfile, error) {
	if err := requireSession(sess, s.now()); err != nil {
		return nil, err
	}
	var p model.AdminProfile
	if err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrProfileNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *AdminService) Update(ctx context.Context, sess *auth.Session, id uuid.UUID, upd UpdateProfile) (*model.AdminProfile, error) {
	if err := requireSession(sess, s.now()); err != nil {
		return nil, err
	}
	if sess.UserID == id {
		return nil, errs.ErrSelfAction
	}
	changes := make(map[string]interface{})
	if upd.Name != nil {
		changes["name"] = strings.TrimSpace(*upd.Name)
	}
	if upd.Role != nil {
		if !upd.Role.Valid() {
			return nil, errs.ErrInvalidRole
		}
		changes["role"] = string(*upd.Role)
	}
	if len(changes) == 0 {
		return nil, errs.ErrNoChanges
	}
	changes["updated_at"] = s.now()
	res := s.db.WithContext(ctx).Model(&model.AdminProfile{}).Where("id = ?", id).Updates(changes)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, errs.ErrProfileNotFound
	}
	return s.Get(ctx, sess, id)
}

// Delete removes the profile; credentials and tokens go with it through the foreign keys.
func (s *AdminService) Delete(ctx context.Context, sess *auth.Session, id uuid.UUID) error {
	if err := requireSession(sess, s.now()); err != nil {
		return err
	}
	if sess.UserID == id {
		return errs.ErrSelfAction
	}
	res := s.db.WithContext(ctx).Delete(&model.AdminProfile{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.ErrProfileNotFound
	}
	return nil
}
