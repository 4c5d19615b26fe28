// Package csvio reads and writes the ticket CSV files used for bulk import and export.
//
// Two formats exist and they are not interchangeable: the labelled format uses the
// Indonesian column captions of the admin dashboard export, the columns format uses the
// store's snake_case column names. Neither carries a version marker; the caller picks one.
package csvio

import (
	"fmt"
	"strings"
	"time"
)

// Column identifies a ticket field independently of how a format labels it.
type Column string

const (
	ColID          Column = "id"
	ColName        Column = "name"
	ColEmail       Column = "email"
	ColPhone       Column = "phone"
	ColStudentID   Column = "nim"
	ColCategory    Column = "category"
	ColSubject     Column = "subject"
	ColDescription Column = "description"
	ColStatus      Column = "status"
	ColAdminNotes  Column = "admin_notes"
	ColCreatedAt   Column = "created_at"
	ColUpdatedAt   Column = "updated_at"
)

// TimeLayout is the export date format (yyyy-MM-dd HH:mm:ss).
const TimeLayout = "2006-01-02 15:04:05"

// Format describes one CSV variant.
type Format struct {
	Name string
	// Columns is the export order.
	Columns []Column
	Labels  map[Column]string
	// Required headers must all be present for an import to start.
	Required []Column
	// RowRequired fields must be non-empty for a row to be sent.
	RowRequired []Column
}

var FormatLabeled = Format{
	Name: "labeled",
	Columns: []Column{
		ColID, ColName, ColEmail, ColStudentID, ColCategory, ColSubject,
		ColDescription, ColStatus, ColAdminNotes, ColCreatedAt, ColUpdatedAt,
	},
	Labels: map[Column]string{
		ColID:          "ID",
		ColName:        "Nama",
		ColEmail:       "Email",
		ColStudentID:   "NIM",
		ColCategory:    "Kategori",
		ColSubject:     "Subjek",
		ColDescription: "Deskripsi",
		ColStatus:      "Status",
		ColAdminNotes:  "Catatan Admin",
		ColCreatedAt:   "Tanggal Dibuat",
		ColUpdatedAt:   "Tanggal Diperbarui",
	},
	Required:    []Column{ColName, ColEmail, ColStudentID, ColCategory, ColSubject, ColDescription, ColStatus},
	RowRequired: []Column{ColName, ColEmail, ColSubject},
}

var FormatColumns = Format{
	Name: "columns",
	Columns: []Column{
		ColID, ColName, ColEmail, ColPhone, ColCategory, ColSubject,
		ColDescription, ColStatus, ColAdminNotes, ColCreatedAt, ColUpdatedAt,
	},
	Labels: map[Column]string{
		ColID:          "id",
		ColName:        "name",
		ColEmail:       "email",
		ColPhone:       "phone",
		ColCategory:    "category",
		ColSubject:     "subject",
		ColDescription: "description",
		ColStatus:      "status",
		ColAdminNotes:  "admin_notes",
		ColCreatedAt:   "created_at",
		ColUpdatedAt:   "updated_at",
	},
	Required:    []Column{ColName, ColEmail, ColPhone, ColCategory, ColSubject, ColDescription, ColStatus},
	RowRequired: []Column{ColName, ColEmail, ColSubject},
}

// Formats lists the known formats by name.
var Formats = map[string]Format{
	FormatLabeled.Name: FormatLabeled,
	FormatColumns.Name: FormatColumns,
}

// FormatByName returns the named format; an empty name selects the labelled one.
func FormatByName(name string) (Format, error) {
	if name == "" {
		return FormatLabeled, nil
	}
	f, ok := Formats[strings.ToLower(name)]
	if !ok {
		return Format{}, fmt.Errorf("csvio: unknown format %q (want labeled or columns)", name)
	}
	return f, nil
}

func (f Format) Label(c Column) string {
	if l, ok := f.Labels[c]; ok {
		return l
	}
	return string(c)
}

// HeaderLine is the first line of an export.
func (f Format) HeaderLine() string {
	labels := make([]string, len(f.Columns))
	for i, c := range f.Columns {
		labels[i] = f.Label(c)
	}
	return strings.Join(labels, ",")
}

// FileName returns the export file name for the given instant.
func FileName(now time.Time) string {
	return "tickets_export_" + now.Format("20060102_150405") + ".csv"
}

// MissingHeadersError lists required headers absent from an import file.
type MissingHeadersError struct {
	Missing []string
}

func (e *MissingHeadersError) Error() string {
	return "Missing: " + strings.Join(e.Missing, ", ")
}

// Header maps the columns found in a header row to their positions.
type Header struct {
	format Format
	index  map[Column]int
}

// Bind matches a decoded header row against the format. Unknown columns are ignored.
// All missing required headers are reported at once.
func (f Format) Bind(header []string) (Header, error) {
	byLabel := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if _, dup := byLabel[h]; !dup {
			byLabel[h] = i
		}
	}
	h := Header{format: f, index: make(map[Column]int)}
	for _, c := range f.Columns {
		if i, ok := byLabel[f.Label(c)]; ok {
			h.index[c] = i
		}
	}
	var missing []string
	for _, c := range f.Required {
		if _, ok := h.index[c]; !ok {
			missing = append(missing, f.Label(c))
		}
	}
	if len(missing) > 0 {
		return Header{}, &MissingHeadersError{Missing: missing}
	}
	return h, nil
}

func (h Header) Format() Format {
	return h.format
}

// Has reports whether the header row contained c.
func (h Header) Has(c Column) bool {
	_, ok := h.index[c]
	return ok
}
