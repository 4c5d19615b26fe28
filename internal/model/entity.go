package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TicketStatus string

const (
	TicketStatusSubmitted  TicketStatus = "DIAJUKAN"
	TicketStatusApproved   TicketStatus = "DISETUJUI"
	TicketStatusInProgress TicketStatus = "DIPROSES"
	TicketStatusDone       TicketStatus = "SELESAI"
)

// StatusFlow is the ticket workflow in order.
var StatusFlow = []TicketStatus{
	TicketStatusSubmitted,
	TicketStatusApproved,
	TicketStatusInProgress,
	TicketStatusDone,
}

func (s TicketStatus) Valid() bool {
	return s.Step() >= 0
}

// Step returns the position of s in StatusFlow, or -1.
func (s TicketStatus) Step() int {
	for i, v := range StatusFlow {
		if v == s {
			return i
		}
	}
	return -1
}

// Next returns the following workflow step. The last step and unknown values return false.
func (s TicketStatus) Next() (TicketStatus, bool) {
	i := s.Step()
	if i < 0 || i == len(StatusFlow)-1 {
		return "", false
	}
	return StatusFlow[i+1], true
}

type TicketCategory string

const (
	CategoryWifi     TicketCategory = "Wifi"
	CategoryAccount  TicketCategory = "Account"
	CategoryHardware TicketCategory = "Hardware"
	CategorySoftware TicketCategory = "Software"
	// CategoryOther is assigned to imported rows without a category. Submissions cannot pick it.
	CategoryOther TicketCategory = "Lainnya"
)

// SubmitCategories are the categories offered on the submission form.
var SubmitCategories = []TicketCategory{CategoryWifi, CategoryAccount, CategoryHardware, CategorySoftware}

// Submittable reports whether c may be chosen on the submission form.
func (c TicketCategory) Submittable() bool {
	for _, v := range SubmitCategories {
		if v == c {
			return true
		}
	}
	return false
}

// Valid reports whether c may be stored.
func (c TicketCategory) Valid() bool {
	return c.Submittable() || c == CategoryOther
}

type Ticket struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string         `gorm:"type:varchar(255);not null" json:"nama"`
	Email       string         `gorm:"type:varchar(255);index;not null" json:"email"`
	Phone       string         `gorm:"type:varchar(32)" json:"hp"`
	StudentID   string         `gorm:"column:nim;type:varchar(32)" json:"nim,omitempty"`
	Subject     string         `gorm:"type:varchar(255);not null" json:"subject"`
	Category    TicketCategory `gorm:"type:varchar(32);index;not null" json:"category"`
	Description string         `gorm:"type:text" json:"description"`
	Status      TicketStatus   `gorm:"type:varchar(32);index;not null" json:"status"`
	AdminNotes  *string        `gorm:"type:text" json:"admin_notes,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Ticket) TableName() string {
	return "tickets"
}

func (t *Ticket) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// CreateTicket carries the fields a create-request may set.
type CreateTicket struct {
	Name        string         `json:"nama"`
	Email       string         `json:"email"`
	Phone       string         `json:"hp"`
	StudentID   string         `json:"nim,omitempty"`
	Subject     string         `json:"subject"`
	Category    TicketCategory `json:"category"`
	Description string         `json:"description"`
	Status      TicketStatus   `json:"status,omitempty"`
	AdminNotes  *string        `json:"admin_notes,omitempty"`
}

type AdminRole string

const (
	RoleAdmin      AdminRole = "admin"
	RoleSuperAdmin AdminRole = "super_admin"
)

func (r AdminRole) Valid() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

type AdminProfile struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Name      string    `gorm:"type:varchar(255)" json:"name"`
	Role      AdminRole `gorm:"type:varchar(32);not null" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (AdminProfile) TableName() string {
	return "admin_profiles"
}

func (p *AdminProfile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// UserIdentity is remembered on the submitter's device after the first submission.
type UserIdentity struct {
	Name  string `json:"nama,omitempty"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}
