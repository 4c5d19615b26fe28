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
	"github.com/psds-microservice/helpdesk-service/internal/kafka"
	"github.com/psds-microservice/helpdesk-service/internal/model"
	"github.com/psds-microservice/helpdesk-service/internal/validate"
)

// TicketServicer is what the HTTP handlers depend on.
type TicketServicer interface {
	Create(ctx context.Context, in model.CreateTicket) (*model.Ticket, error)
	CreateImported(ctx context.Context, sess *auth.Session, in model.CreateTicket) (*model.Ticket, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Ticket, error)
	List(ctx context.Context, filter map[string]interface{}, limit, offset int) ([]model.Ticket, int64, error)
	ListByEmail(ctx context.Context, email string) ([]model.Ticket, error)
	Update(ctx context.Context, sess *auth.Session, id uuid.UUID, upd UpdateTicket) (*model.Ticket, error)
	Delete(ctx context.Context, sess *auth.Session, id uuid.UUID) error
}

// UpdateTicket holds an admin edit. Nil fields are left unchanged; an empty AdminNotes clears the note.
type UpdateTicket struct {
	Status     *model.TicketStatus
	AdminNotes *string
}

type TicketService struct {
	db       *gorm.DB
	producer kafka.TicketEventProducer
	now      func() time.Time
}

// NewTicketService returns the gorm-backed service. producer may be nil.
func NewTicketService(db *gorm.DB, producer kafka.TicketEventProducer) *TicketService {
	return &TicketService{db: db, producer: producer, now: time.Now}
}

func requireSession(sess *auth.Session, now time.Time) error {
	if !sess.Active(now) {
		return errs.ErrUnauthenticated
	}
	return nil
}

// Create stores a student submission after form validation. The status is always DIAJUKAN.
func (s *TicketService) Create(ctx context.Context, in model.CreateTicket) (*model.Ticket, error) {
	if err := validate.Ticket(in); err != nil {
		return nil, err
	}
	t := &model.Ticket{
		Name:        strings.TrimSpace(in.Name),
		Email:       strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:       validate.NormalizePhone(in.Phone),
		StudentID:   strings.TrimSpace(in.StudentID),
		Subject:     strings.TrimSpace(in.Subject),
		Category:    in.Category,
		Description: strings.TrimSpace(in.Description),
		Status:      model.TicketStatusSubmitted,
	}
	if err := s.db.WithContext(ctx).Create(t).Error; err != nil {
		return nil, err
	}
	s.publish("ticket.created", t)
	return t, nil
}

// CreateImported stores a row from a bulk import. Only enum values are checked; form
// rules are not applied to imported data.
func (s *TicketService) CreateImported(ctx context.Context, sess *auth.Session, in model.CreateTicket) (*model.Ticket, error) {
	if err := requireSession(sess, s.now()); err != nil {
		return nil, err
	}
	if in.Status == "" {
		in.Status = model.TicketStatusSubmitted
	}
	if in.Category == "" {
		in.Category = model.CategoryOther
	}
	if !in.Status.Valid() {
		return nil, errs.ErrInvalidStatus
	}
	if !in.Category.Valid() {
		return nil, errs.ErrInvalidCategory
	}
	t := &model.Ticket{
		Name:        in.Name,
		Email:       in.Email,
		Phone:       in.Phone,
		StudentID:   in.StudentID,
		Subject:     in.Subject,
		Category:    in.Category,
		Description: in.Description,
		Status:      in.Status,
		AdminNotes:  in.AdminNotes,
	}
	if err := s.db.WithContext(ctx).Create(t).Error; err != nil {
		return nil, err
	}
	s.publish("ticket.created", t)
	return t, nil
}

func (s *TicketService) GetByID(ctx context.Context, id uuid.UUID) (*model.Ticket, error) {
	var t model.Ticket
	if err := s.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrTicketNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (s *TicketService) List(ctx context.Context, filter map[string]interface{}, limit, offset int) ([]model.Ticket, int64, error) {
	var items []model.Ticket
	var total int64
	tx := s.db.WithContext(ctx).Model(&model.Ticket{})
	for k, v := range filter {
		tx = tx.Where(k, v)
	}
	// Count total before pagination
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	if offset > 0 {
		tx = tx.Offset(offset)
	}
	if err := tx.Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListByEmail returns one submitter's tickets, newest first. The email is matched case-insensitively.
func (s *TicketService) ListByEmail(ctx context.Context, email string) ([]model.Ticket, error) {
	items, _, err := s.List(ctx, map[string]interface{}{"lower(email) = ?": strings.ToLower(strings.TrimSpace(email))}, 0, 0)
	return items, err
}

// Update applies an admin edit and bumps updated_at. Concurrent edits are last-write-wins.
func (s *TicketService) Update(ctx context.Context, sess *auth.Session, id uuid.UUID, upd UpdateTicket) (*model.Ticket, error) {
	if err := requireSession(sess, s.now()); err != nil {
		return nil, err
	}
	changes := make(map[string]interface{})
	if upd.Status != nil {
		if !upd.Status.Valid() {
			return nil, errs.ErrInvalidStatus
		}
		changes["status"] = string(*upd.Status)
	}
	if upd.AdminNotes != nil {
		if notes := strings.TrimSpace(*upd.AdminNotes); notes != "" {
			changes["admin_notes"] = notes
		} else {
			changes["admin_notes"] = nil
		}
	}
	if len(changes) == 0 {
		return nil, errs.ErrNoChanges
	}
	changes["updated_at"] = s.now()

	res := s.db.WithContext(ctx).Model(&model.Ticket{}).Where("id = ?", id).Updates(changes)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, errs.ErrTicketNotFound
	}
	t, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publish("ticket.updated", t)
	return t, nil
}

// Delete removes the ticket permanently.
func (s *TicketService) Delete(ctx context.Context, sess *auth.Session, id uuid.UUID) error {
	if err := requireSession(sess, s.now()); err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Delete(&model.Ticket{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.ErrTicketNotFound
	}
	s.publish("ticket.deleted", &model.Ticket{ID: id})
	return nil
}

// publish is fire-and-forget: the event goes out even if the request is cancelled, bounded by a timeout.
func (s *TicketService) publish(event string, t *model.Ticket) {
	if s.producer == nil {
		return
	}
	payload := kafka.TicketPayload(t)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.producer.ProduceTicketEvent(ctx, event, payload)
	}()
}

// SessionCreator binds a session to CreateImported so a bulk import can drive the service.
type SessionCreator struct {
	Tickets TicketServicer
	Session *auth.Session
}

func (c SessionCreator) CreateTicket(ctx context.Context, in model.CreateTicket) (*model.Ticket, error) {
	return c.Tickets.CreateImported(ctx, c.Session, in)
}
