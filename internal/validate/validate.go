// Package validate checks form input before anything is sent to the store.
package validate

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/psds-microservice/helpdesk-service/internal/model"
)

const (
	MinDescriptionLength = 20
	MinPasswordLength    = 6
)

var (
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRe = regexp.MustCompile(`^[0-9+]{10,15}$`)
)

// FieldErrors maps a form field to the message shown next to it.
type FieldErrors map[string]string

// Keys returns the failing fields in sorted order.
func (e FieldErrors) Keys() []string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (e FieldErrors) Error() string {
	keys := e.Keys()
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e FieldErrors) err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

func Email(s string) bool {
	return emailRe.MatchString(s)
}

// Phone accepts 10-15 digits (a leading + allowed) once spaces and dashes are removed.
func Phone(s string) bool {
	return phoneRe.MatchString(NormalizePhone(s))
}

func NormalizePhone(s string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(s))
}

// Ticket validates a submission form.
func Ticket(in model.CreateTicket) error {
	errs := FieldErrors{}
	if strings.TrimSpace(in.Name) == "" {
		errs["nama"] = "Nama wajib diisi"
	}
	switch email := strings.TrimSpace(in.Email); {
	case email == "":
		errs["email"] = "Email wajib diisi"
	case !Email(email):
		errs["email"] = "Format email tidak valid"
	}
	switch {
	case strings.TrimSpace(in.Phone) == "":
		errs["hp"] = "Nomor HP wajib diisi"
	case !Phone(in.Phone):
		errs["hp"] = "Nomor HP tidak valid (10-15 digit)"
	}
	if strings.TrimSpace(in.Subject) == "" {
		errs["subject"] = "Subject wajib diisi"
	}
	if !in.Category.Submittable() {
		errs["category"] = "Kategori harus dipilih"
	}
	switch desc := strings.TrimSpace(in.Description); {
	case desc == "":
		errs["description"] = "Deskripsi wajib diisi"
	case utf8.RuneCountInString(desc) < MinDescriptionLength:
		errs["description"] = "Deskripsi minimal 20 karakter"
	}
	return errs.err()
}

func Login(email, password string) error {
	errs := FieldErrors{}
	checkEmail(errs, email)
	checkPassword(errs, "password", password)
	return errs.err()
}

func Register(name, email, password, confirm string) error {
	errs := FieldErrors{}
	if strings.TrimSpace(name) == "" {
		errs["name"] = "Nama wajib diisi"
	}
	checkEmail(errs, email)
	checkPassword(errs, "password", password)
	checkConfirm(errs, password, confirm)
	return errs.err()
}

func PasswordReset(password, confirm string) error {
	errs := FieldErrors{}
	checkPassword(errs, "password", password)
	checkConfirm(errs, password, confirm)
	return errs.err()
}

func RecoveryEmail(email string) error {
	errs := FieldErrors{}
	checkEmail(errs, email)
	return errs.err()
}

func checkEmail(errs FieldErrors, email string) {
	email = strings.TrimSpace(email)
	if email == "" {
		errs["email"] = "Email wajib diisi"
	} else if !Email(email) {
		errs["email"] = "Format email tidak valid"
	}
}

func checkPassword(errs FieldErrors, field, password string) {
	if password == "" {
		errs[field] = "Password wajib diisi"
	} else if len(password) < MinPasswordLength {
		errs[field] = "Password minimal 6 karakter"
	}
}

func checkConfirm(errs FieldErrors, password, confirm string) {
	if confirm == "" {
		errs["confirm_password"] = "Konfirmasi password wajib diisi"
	} else if password != confirm {
		errs["confirm_password"] = "Password tidak cocok"
	}
}
