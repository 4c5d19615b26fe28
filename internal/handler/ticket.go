package handler

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/psds-microservice/helpdesk-service/internal/csvio"
	"github.com/psds-microservice/helpdesk-service/internal/filter"
	"github.com/psds-microservice/helpdesk-service/internal/importer"
	"github.com/psds-microservice/helpdesk-service/internal/model"
	"github.com/psds-microservice/helpdesk-service/internal/service"
)

// maxImportBytes bounds an uploaded CSV.
const maxImportBytes = 10 << 20

type TicketHandler struct {
	svc service.TicketServicer
	loc *time.Location
}

// NewTicketHandler returns the ticket endpoints. Exported dates are written in loc.
func NewTicketHandler(svc service.TicketServicer, loc *time.Location) *TicketHandler {
	if loc == nil {
		loc = time.Local
	}
	return &TicketHandler{svc: svc, loc: loc}
}

type createTicketRequest struct {
	Name        string `json:"nama"`
	Email       string `json:"email"`
	Phone       string `json:"hp"`
	StudentID   string `json:"nim"`
	Subject     string `json:"subject"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

func (h *TicketHandler) Create(c *gin.Context) {
	var req createTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	ticket, err := h.svc.Create(c.Request.Context(), model.CreateTicket{
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		StudentID:   req.StudentID,
		Subject:     req.Subject,
		Category:    model.TicketCategory(req.Category),
		Description: req.Description,
	})
	if err != nil {
		writeError(c, err, "failed to create ticket")
		return
	}
	c.JSON(http.StatusCreated, ticket)
}

type importTicketRequest struct {
	createTicketRequest
	Status     string  `json:"status"`
	AdminNotes *string `json:"admin_notes"`
}

// AdminCreate stores one imported row. Form rules are skipped; missing category and
// status fall back to the import defaults.
func (h *TicketHandler) AdminCreate(c *gin.Context) {
	var req importTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	ticket, err := h.svc.CreateImported(c.Request.Context(), SessionFrom(c), model.CreateTicket{
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		StudentID:   req.StudentID,
		Subject:     req.Subject,
		Category:    model.TicketCategory(req.Category),
		Description: req.Description,
		Status:      model.TicketStatus(req.Status),
		AdminNotes:  req.AdminNotes,
	})
	if err != nil {
		writeError(c, err, "failed to create ticket")
		return
	}
	c.JSON(http.StatusCreated, ticket)
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return uuid.Nil, false
	}
	return id, true
}

func (h *TicketHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	t, err := h.svc.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err, "failed to get ticket")
		return
	}
	c.JSON(http.StatusOK, t)
}

// ListMine returns the tickets of one submitter, filtered by q and scope.
func (h *TicketHandler) ListMine(c *gin.Context) {
	email := strings.ToLower(strings.TrimSpace(c.Query("email")))
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email is required"})
		return
	}
	scope := filter.Scope(strings.ToUpper(c.DefaultQuery("scope", string(filter.ScopeAll))))
	switch scope {
	case filter.ScopeAll, filter.ScopeActive, filter.ScopeCompleted:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "scope must be ALL, ACTIVE or COMPLETED"})
		return
	}
	items, err := h.svc.ListByEmail(c.Request.Context(), email)
	if err != nil {
		writeError(c, err, "failed to list tickets")
		return
	}
	shown := filter.Apply(items, filter.Student(c.Query("q"), scope))
	c.JSON(http.StatusOK, gin.H{
		"tickets": shown,
		"total":   len(shown),
		"counts":  filter.Count(items),
	})
}

func queryInt(c *gin.Context, key string, min int) int {
	if v := c.Query(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= min {
			return parsed
		}
	}
	return 0
}

// AdminList returns the store page given by limit/offset, narrowed by q and status.
// Counts cover the whole page before narrowing.
func (h *TicketHandler) AdminList(c *gin.Context) {
	status := strings.ToUpper(c.DefaultQuery("status", filter.StatusAll))
	if status != filter.StatusAll && !model.TicketStatus(status).Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}
	items, total, err := h.svc.List(c.Request.Context(), nil, queryInt(c, "limit", 1), queryInt(c, "offset", 0))
	if err != nil {
		writeError(c, err, "failed to list tickets")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"tickets": filter.Apply(items, filter.Admin(c.Query("q"), status)),
		"total":   total,
		"counts":  filter.Count(items),
	})
}

type updateTicketRequest struct {
	Status     *string `json:"status,omitempty"`
	AdminNotes *string `json:"admin_notes,omitempty"`
}

func (h *TicketHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req updateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	upd := service.UpdateTicket{AdminNotes: req.AdminNotes}
	if req.Status != nil {
		s := model.TicketStatus(*req.Status)
		upd.Status = &s
	}
	t, err := h.svc.Update(c.Request.Context(), SessionFrom(c), id, upd)
	if err != nil {
		writeError(c, err, "failed to update ticket")
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *TicketHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), SessionFrom(c), id); err != nil {
		writeError(c, err, "failed to delete ticket")
		return
	}
	c.Status(http.StatusNoContent)
}

func formatParam(c *gin.Context) (csvio.Format, bool) {
	f, err := csvio.FormatByName(c.Query("format"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return csvio.Format{}, false
	}
	return f, true
}

// Export streams every ticket, newest first, as a CSV attachment.
func (h *TicketHandler) Export(c *gin.Context) {
	format, ok := formatParam(c)
	if !ok {
		return
	}
	items, _, err := h.svc.List(c.Request.Context(), nil, 0, 0)
	if err != nil {
		writeError(c, err, "failed to export tickets")
		return
	}
	var buf bytes.Buffer
	if err := csvio.NewEncoder(format, h.loc).Encode(&buf, items); err != nil {
		writeError(c, err, "failed to export tickets")
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+csvio.FileName(time.Now().In(h.loc))+`"`)
	c.Header("X-Ticket-Count", strconv.Itoa(len(items)))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// Import creates tickets from a CSV body. Without confirm=true only the row count is
// reported and nothing is written.
func (h *TicketHandler) Import(c *gin.Context) {
	format, ok := formatParam(c)
	if !ok {
		return
	}
	confirmed := c.Query("confirm") == "true"
	var rows int
	im := importer.New(service.SessionCreator{Tickets: h.svc, Session: SessionFrom(c)}, format)
	body := http.MaxBytesReader(c.Writer, c.Request.Body, maxImportBytes)
	sum, err := im.ImportReader(c.Request.Context(), body, func(n int) bool { rows = n; return confirmed })

	var (
		missing  *csvio.MissingHeadersError
		tooLarge *http.MaxBytesError
	)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"rows": rows, "confirmed": true, "summary": sum})
	case errors.Is(err, importer.ErrDeclined):
		c.JSON(http.StatusOK, gin.H{"rows": rows, "confirmed": false})
	case errors.As(err, &missing):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Header CSV tidak lengkap. " + missing.Error(), "missing": missing.Missing})
	case errors.As(err, &tooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Gagal membaca file CSV", "limit_bytes": tooLarge.Limit})
	case errors.Is(err, importer.ErrUnreadable), errors.Is(err, csvio.ErrEmpty):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Gagal membaca file CSV"})
	default:
		writeError(c, err, "Gagal mengimpor data")
	}
}
