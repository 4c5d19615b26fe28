// Package importer creates tickets from a CSV file, one create-request per row.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/psds-microservice/helpdesk-service/internal/csvio"
	"github.com/psds-microservice/helpdesk-service/internal/model"
)

var (
	// ErrDeclined is returned when the confirmation callback refuses the import.
	ErrDeclined = errors.New("import: declined")
	// ErrUnreadable is returned when the file cannot be read as UTF-8 text.
	ErrUnreadable = errors.New("import: file is not readable as text")
)

// Creator issues one create-request against the ticket store.
type Creator interface {
	CreateTicket(ctx context.Context, in model.CreateTicket) (*model.Ticket, error)
}

// ConfirmFunc is shown the number of data rows before anything is sent. Returning false
// aborts the import with no side effects.
type ConfirmFunc func(rows int) bool

// Summary tallies an import. Rows skipped for empty required fields count as errors.
type Summary struct {
	Success int `json:"success_count"`
	Errors  int `json:"error_count"`
}

func (s Summary) String() string {
	return fmt.Sprintf("Berhasil: %d tiket, Gagal: %d tiket", s.Success, s.Errors)
}

type Option func(*Importer)

// WithRefresh registers a callback run once after the row loop, e.g. to reload a listing.
func WithRefresh(fn func(context.Context)) Option {
	return func(im *Importer) { im.refresh = fn }
}

func WithLogger(l *slog.Logger) Option {
	return func(im *Importer) { im.log = l }
}

type Importer struct {
	creator Creator
	format  csvio.Format
	refresh func(context.Context)
	log     *slog.Logger
}

func New(creator Creator, format csvio.Format, opts ...Option) *Importer {
	im := &Importer{creator: creator, format: format, log: slog.Default()}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// ImportReader reads the whole file and imports it.
func (im *Importer) ImportReader(ctx context.Context, r io.Reader, confirm ConfirmFunc) (Summary, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Summary{}, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}
	if !utf8.Valid(data) {
		return Summary{}, ErrUnreadable
	}
	return im.Import(ctx, string(data), confirm)
}

// Import validates the header, asks confirm, then sends the rows sequentially. A missing
// header aborts before confirm is asked. Per-row failures are counted and never stop the loop.
func (im *Importer) Import(ctx context.Context, text string, confirm ConfirmFunc) (Summary, error) {
	if !utf8.ValidString(text) {
		return Summary{}, ErrUnreadable
	}
	doc, err := csvio.Decode(text, im.format)
	if err != nil {
		return Summary{}, err
	}
	if confirm != nil && !confirm(len(doc.Records)) {
		return Summary{}, ErrDeclined
	}

	var sum Summary
	for _, rec := range doc.Records {
		if missing := rec.Missing(); len(missing) > 0 {
			im.log.Warn("import: row skipped", "row", rec.Line, "missing", strings.Join(missing, ","))
			sum.Errors++
			continue
		}
		if _, err := im.creator.CreateTicket(ctx, rec.CreateTicket()); err != nil {
			im.log.Error("import: row failed", "row", rec.Line, "err", err)
			sum.Errors++
			continue
		}
		sum.Success++
	}

	if im.refresh != nil {
		im.refresh(ctx)
	}
	im.log.Info("import: done", "format", im.format.Name, "success", sum.Success, "errors", sum.Errors)
	return sum, nil
}
