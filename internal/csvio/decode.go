package csvio

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/psds-microservice/helpdesk-service/internal/model"
)

// ErrEmpty is returned when a file holds no header row.
var ErrEmpty = errors.New("csvio: file is empty")

// Parse splits text into records. A double quote toggles quoting, a doubled quote inside
// quotes is a literal quote, commas and newlines separate only outside quotes. Blank
// lines are skipped. Whitespace around a field is dropped unless it sits inside quotes.
// An unterminated quote runs to the end of the input.
func Parse(text string) [][]string {
	var (
		records [][]string
		fields  []string
		cur     strings.Builder
		// inQuotes: inside a quoted section; quoted: the field had one; closed: a quoted
		// section ended and only trailing whitespace is expected.
		inQuotes, quoted, closed bool
	)
	flush := func() {
		v := cur.String()
		if !quoted {
			v = strings.TrimSpace(v)
		}
		fields = append(fields, v)
		cur.Reset()
		quoted, closed = false, false
	}
	endRecord := func() {
		blank := len(fields) == 0 && !quoted && strings.TrimSpace(cur.String()) == ""
		flush()
		if !blank {
			records = append(records, fields)
		}
		fields = nil
	}

	for i := 0; i < len(text); i++ {
		c := text[i]
		if inQuotes {
			if c == '"' {
				if i+1 < len(text) && text[i+1] == '"' {
					cur.WriteByte('"')
					i++
				} else {
					inQuotes, closed = false, true
				}
			} else {
				cur.WriteByte(c)
			}
			continue
		}
		switch c {
		case '"':
			if !quoted && strings.TrimSpace(cur.String()) == "" {
				cur.Reset()
			}
			inQuotes, quoted, closed = true, true, false
		case ',':
			flush()
		case '\n':
			endRecord()
		case '\r':
			if i+1 < len(text) && text[i+1] == '\n' {
				continue
			}
			if !closed {
				cur.WriteByte(c)
			}
		case ' ', '\t':
			if !closed {
				cur.WriteByte(c)
			}
		default:
			closed = false
			cur.WriteByte(c)
		}
	}
	if len(fields) > 0 || quoted || strings.TrimSpace(cur.String()) != "" {
		endRecord()
	}
	return records
}

// Record is one data row bound to a header.
type Record struct {
	// Line is the 1-based position of the record among the data rows.
	Line   int
	header Header
	values []string
}

// Get returns the value of column c, or "" when the header lacks it or the row is short.
func (r Record) Get(c Column) string {
	i, ok := r.header.index[c]
	if !ok || i >= len(r.values) {
		return ""
	}
	return r.values[i]
}

// Missing lists the row-required fields that are empty.
func (r Record) Missing() []string {
	var out []string
	for _, c := range r.header.format.RowRequired {
		if strings.TrimSpace(r.Get(c)) == "" {
			out = append(out, r.header.format.Label(c))
		}
	}
	return out
}

// CreateTicket maps the row to a create-request. Category falls back to CategoryOther and
// status to TicketStatusSubmitted when the cell is empty.
func (r Record) CreateTicket() model.CreateTicket {
	in := model.CreateTicket{
		Name:        r.Get(ColName),
		Email:       r.Get(ColEmail),
		Phone:       r.Get(ColPhone),
		StudentID:   r.Get(ColStudentID),
		Subject:     r.Get(ColSubject),
		Category:    model.TicketCategory(r.Get(ColCategory)),
		Description: r.Get(ColDescription),
		Status:      model.TicketStatus(r.Get(ColStatus)),
	}
	if in.Category == "" {
		in.Category = model.CategoryOther
	}
	if in.Status == "" {
		in.Status = model.TicketStatusSubmitted
	}
	if notes := r.Get(ColAdminNotes); notes != "" {
		in.AdminNotes = &notes
	}
	return in
}

// Ticket restores every field the format carries, including id and timestamps
// interpreted in loc (nil means time.Local).
func (r Record) Ticket(loc *time.Location) (model.Ticket, error) {
	if loc == nil {
		loc = time.Local
	}
	in := r.CreateTicket()
	t := model.Ticket{
		Name:        in.Name,
		Email:       in.Email,
		Phone:       in.Phone,
		StudentID:   in.StudentID,
		Subject:     in.Subject,
		Category:    model.TicketCategory(r.Get(ColCategory)),
		Description: in.Description,
		Status:      model.TicketStatus(r.Get(ColStatus)),
		AdminNotes:  in.AdminNotes,
	}
	if v := r.Get(ColID); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return model.Ticket{}, fmt.Errorf("csvio: row %d: id: %w", r.Line, err)
		}
		t.ID = id
	}
	var err error
	if t.CreatedAt, err = parseTime(r.Get(ColCreatedAt), loc); err != nil {
		return model.Ticket{}, fmt.Errorf("csvio: row %d: created_at: %w", r.Line, err)
	}
	if t.UpdatedAt, err = parseTime(r.Get(ColUpdatedAt), loc); err != nil {
		return model.Ticket{}, fmt.Errorf("csvio: row %d: updated_at: %w", r.Line, err)
	}
	return t, nil
}

func parseTime(v string, loc *time.Location) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(TimeLayout, v, loc)
}

// Document is a parsed file: its bound header and the data rows.
type Document struct {
	Header  Header
	Records []Record
}

// Decode parses text and binds its first record as the header of f. A missing required
// header yields *MissingHeadersError.
func Decode(text string, f Format) (*Document, error) {
	rows := Parse(text)
	if len(rows) == 0 {
		return nil, ErrEmpty
	}
	h, err := f.Bind(rows[0])
	if err != nil {
		return nil, err
	}
	doc := &Document{Header: h, Records: make([]Record, 0, len(rows)-1)}
	for i, values := range rows[1:] {
		doc.Records = append(doc.Records, Record{Line: i + 1, header: h, values: values})
	}
	return doc, nil
}
