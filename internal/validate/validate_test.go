package validate_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psds-microservice/helpdesk-service/internal/model"
	"github.com/psds-microservice/helpdesk-service/internal/validate"
)

func validForm() model.CreateTicket {
	return model.CreateTicket{
		Name:        "Budi Santoso",
		Email:       "budi@kampus.ac.id",
		Phone:       "081234567890",
		Subject:     "Wifi lab mati",
		Category:    model.CategoryWifi,
		Description: "Wifi di lab komputer lantai dua tidak bisa konek sejak pagi.",
	}
}

func Test_Ticket_Accepts_Valid_Form(t *testing.T) {
	t.Parallel()

	require.NoError(t, validate.Ticket(validForm()))
}

func Test_Ticket_Enforces_Description_Minimum_Length(t *testing.T) {
	t.Parallel()

	form := validForm()
	form.Description = strings.Repeat("a", 19)

	err := validate.Ticket(form)
	var fields validate.FieldErrors
	require.ErrorAs(t, err, &fields)
	assert.Equal(t, "Deskripsi minimal 20 karakter", fields["description"])

	form.Description = strings.Repeat("a", 20)
	require.NoError(t, validate.Ticket(form), "20 characters should pass")
}

func Test_Ticket_Trims_Description_Before_Counting(t *testing.T) {
	t.Parallel()

	form := validForm()
	form.Description = "  " + strings.Repeat("é", 19) + "   "

	var fields validate.FieldErrors
	require.ErrorAs(t, validate.Ticket(form), &fields)
	assert.Contains(t, fields, "description")
}

func Test_Ticket_Reports_Each_Invalid_Field(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		mutate func(*model.CreateTicket)
		field  string
		msg    string
	}{
		{"EmptyName", func(f *model.CreateTicket) { f.Name = "  " }, "nama", "Nama wajib diisi"},
		{"EmptyEmail", func(f *model.CreateTicket) { f.Email = "" }, "email", "Email wajib diisi"},
		{"BadEmail", func(f *model.CreateTicket) { f.Email = "budi@kampus" }, "email", "Format email tidak valid"},
		{"EmptyPhone", func(f *model.CreateTicket) { f.Phone = "" }, "hp", "Nomor HP wajib diisi"},
		{"ShortPhone", func(f *model.CreateTicket) { f.Phone = "08123" }, "hp", "Nomor HP tidak valid (10-15 digit)"},
		{"LongPhone", func(f *model.CreateTicket) { f.Phone = "0812345678901234" }, "hp", "Nomor HP tidak valid (10-15 digit)"},
		{"LetterPhone", func(f *model.CreateTicket) { f.Phone = "08123456789a" }, "hp", "Nomor HP tidak valid (10-15 digit)"},
		{"EmptySubject", func(f *model.CreateTicket) { f.Subject = "" }, "subject", "Subject wajib diisi"},
		{"OtherCategory", func(f *model.CreateTicket) { f.Category = model.CategoryOther }, "category", "Kategori harus dipilih"},
		{"EmptyDescription", func(f *model.CreateTicket) { f.Description = " " }, "description", "Deskripsi wajib diisi"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			form := validForm()
			testCase.mutate(&form)

			var fields validate.FieldErrors
			require.ErrorAs(t, validate.Ticket(form), &fields)
			assert.Len(t, fields, 1)
			assert.Equal(t, testCase.msg, fields[testCase.field])
		})
	}
}

func Test_Phone_Ignores_Spaces_And_Dashes(t *testing.T) {
	t.Parallel()

	assert.True(t, validate.Phone("0812-3456 7890"))
	assert.True(t, validate.Phone("+6281234567890"))
	assert.False(t, validate.Phone("0812 345"))
}

func Test_Register_Checks_Password_Confirmation(t *testing.T) {
	t.Parallel()

	require.NoError(t, validate.Register("Admin", "admin@kampus.ac.id", "rahasia", "rahasia"))

	var fields validate.FieldErrors
	require.ErrorAs(t, validate.Register("", "admin", "12345", "54321"), &fields)
	assert.Equal(t, validate.FieldErrors{
		"name":             "Nama wajib diisi",
		"email":            "Format email tidak valid",
		"password":         "Password minimal 6 karakter",
		"confirm_password": "Password tidak cocok",
	}, fields)
}

func Test_FieldErrors_Message_Is_Sorted(t *testing.T) {
	t.Parallel()

	err := validate.FieldErrors{"password": "b", "email": "a"}
	assert.Equal(t, "validation failed: email: a; password: b", err.Error())
}
