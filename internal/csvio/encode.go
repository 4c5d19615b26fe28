package csvio

import (
	"bufio"
	"io"
	"strings"
	"time"

	"github.com/psds-microservice/helpdesk-service/internal/model"
)

// Escape wraps s in double quotes and doubles every interior quote.
func Escape(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// Unescape reverses Escape. Values without surrounding quotes are returned unchanged.
func Unescape(s string) string {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return s
	}
	return strings.ReplaceAll(s[1:len(s)-1], `""`, `"`)
}

// quoteIfNeeded escapes s when it would not survive Parse unquoted.
func quoteIfNeeded(s string) string {
	if strings.ContainsAny(s, ",\"\r\n") || strings.TrimSpace(s) != s {
		return Escape(s)
	}
	return s
}

// Encoder turns tickets into CSV lines of one format.
type Encoder struct {
	format Format
	loc    *time.Location
}

// NewEncoder returns an encoder writing dates in loc; nil means time.Local.
func NewEncoder(f Format, loc *time.Location) *Encoder {
	if loc == nil {
		loc = time.Local
	}
	return &Encoder{format: f, loc: loc}
}

// Row renders one ticket. Free-text fields are always quoted; contact fields are quoted
// only when they hold a separator, a quote or edge whitespace; ids, enums and dates are raw.
func (e *Encoder) Row(t *model.Ticket) string {
	fields := make([]string, len(e.format.Columns))
	for i, c := range e.format.Columns {
		fields[i] = e.field(t, c)
	}
	return strings.Join(fields, ",")
}

func (e *Encoder) field(t *model.Ticket, c Column) string {
	switch c {
	case ColID:
		return t.ID.String()
	case ColName:
		return Escape(t.Name)
	case ColEmail:
		return quoteIfNeeded(t.Email)
	case ColPhone:
		return quoteIfNeeded(t.Phone)
	case ColStudentID:
		return quoteIfNeeded(t.StudentID)
	case ColCategory:
		return string(t.Category)
	case ColSubject:
		return Escape(t.Subject)
	case ColDescription:
		return Escape(t.Description)
	case ColStatus:
		return string(t.Status)
	case ColAdminNotes:
		if t.AdminNotes == nil || *t.AdminNotes == "" {
			return ""
		}
		return Escape(*t.AdminNotes)
	case ColCreatedAt:
		return e.time(t.CreatedAt)
	case ColUpdatedAt:
		return e.time(t.UpdatedAt)
	}
	return ""
}

func (e *Encoder) time(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(e.loc).Format(TimeLayout)
}

// Encode writes the header line followed by one line per ticket, separated by "\n".
func (e *Encoder) Encode(w io.Writer, tickets []model.Ticket) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(e.format.HeaderLine()); err != nil {
		return err
	}
	for i := range tickets {
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
		if _, err := bw.WriteString(e.Row(&tickets[i])); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// EncodeString is Encode into a string.
func (e *Encoder) EncodeString(tickets []model.Ticket) string {
	var b strings.Builder
	_ = e.Encode(&b, tickets)
	return b.String()
}
