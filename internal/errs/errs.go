package errs

import "errors"

var (
	ErrTicketNotFound     = errors.New("ticket not found")
	ErrProfileNotFound    = errors.New("admin profile not found")
	ErrUnauthenticated    = errors.New("authenticated session required")
	ErrSelfAction         = errors.New("cannot perform this action on your own profile")
	ErrInvalidStatus      = errors.New("invalid status: must be DIAJUKAN, DISETUJUI, DIPROSES or SELESAI")
	ErrInvalidCategory    = errors.New("invalid category")
	ErrInvalidRole        = errors.New("invalid role: must be admin or super_admin")
	ErrInvalidCredentials = errors.New("invalid login credentials")
	ErrAlreadyRegistered  = errors.New("user already registered")
	ErrTokenExpired       = errors.New("token is invalid or expired")
	ErrNoChanges          = errors.New("no changes provided")
)
