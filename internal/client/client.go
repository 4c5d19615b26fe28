// Package client talks to the helpdesk API over HTTP for the CLI commands.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/psds-microservice/helpdesk-service/internal/auth"
	"github.com/psds-microservice/helpdesk-service/internal/errs"
	"github.com/psds-microservice/helpdesk-service/internal/filter"
	"github.com/psds-microservice/helpdesk-service/internal/model"
	"github.com/psds-microservice/helpdesk-service/internal/validate"
)

const DefaultTimeout = 30 * time.Second

type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout bounds each request. A client passed with WithHTTPClient is copied, not changed.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		hc := *c.httpClient
		hc.Timeout = d
		c.httpClient = &hc
	}
}

// WithSession authenticates admin calls with the session's access token.
func WithSession(sess *auth.Session) Option {
	return func(c *Client) {
		if sess != nil {
			c.token = sess.AccessToken
		}
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// APIError is a non-2xx response. It unwraps to the matching errs sentinel, or to
// validate.FieldErrors for 422 responses.
type APIError struct {
	Status  int
	Message string
	Fields  validate.FieldErrors
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("helpdesk api: status %d", e.Status)
	}
	return fmt.Sprintf("helpdesk api: %s (status %d)", e.Message, e.Status)
}

func (e *APIError) Unwrap() error {
	if len(e.Fields) > 0 {
		return e.Fields
	}
	switch e.Status {
	case http.StatusUnauthorized:
		if e.Message == errs.ErrInvalidCredentials.Error() {
			return errs.ErrInvalidCredentials
		}
		if e.Message == errs.ErrTokenExpired.Error() {
			return errs.ErrTokenExpired
		}
		return errs.ErrUnauthenticated
	case http.StatusForbidden:
		return errs.ErrSelfAction
	case http.StatusNotFound:
		if e.Message == errs.ErrProfileNotFound.Error() {
			return errs.ErrProfileNotFound
		}
		return errs.ErrTicketNotFound
	case http.StatusConflict:
		return errs.ErrAlreadyRegistered
	}
	return nil
}

type errorBody struct {
	Error  string               `json:"error"`
	Fields validate.FieldErrors `json:"fields"`
}

// do sends a request and decodes a JSON response into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string, out interface{}) (*http.Response, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("client: new request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb errorBody
		_ = json.NewDecoder(resp.Body).Decode(&eb)
		return resp, &APIError{Status: resp.StatusCode, Message: eb.Error, Fields: eb.Fields}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return resp, nil
	}
	if raw, ok := out.(*[]byte); ok {
		*raw, err = io.ReadAll(resp.Body)
		return resp, err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp, fmt.Errorf("client: decode %s: %w", path, err)
	}
	return resp, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("client: marshal: %w", err)
		}
		body = bytes.NewReader(b)
	}
	_, err := c.do(ctx, method, path, nil, body, "application/json", out)
	return err
}

// CreateTicket submits a student ticket through the public, validated endpoint.
func (c *Client) CreateTicket(ctx context.Context, in model.CreateTicket) (*model.Ticket, error) {
	var t model.Ticket
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/tickets", in, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// ImportTicket stores one imported row through the admin endpoint. Requires a session.
func (c *Client) ImportTicket(ctx context.Context, in model.CreateTicket) (*model.Ticket, error) {
	var t model.Ticket
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/admin/tickets", in, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) GetTicket(ctx context.Context, id uuid.UUID) (*model.Ticket, error) {
	var t model.Ticket
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/tickets/"+id.String(), nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

type TicketList struct {
	Tickets []model.Ticket `json:"tickets"`
	Total   int64          `json:"total"`
	Counts  filter.Counts  `json:"counts"`
}

// ListTickets returns the submissions of email narrowed by q and scope.
func (c *Client) ListTickets(ctx context.Context, email, q string, scope filter.Scope) (*TicketList, error) {
	query := url.Values{"email": {email}}
	if q != "" {
		query.Set("q", q)
	}
	if scope != "" {
		query.Set("scope", string(scope))
	}
	var out TicketList
	if _, err := c.do(ctx, http.MethodGet, "/api/v1/tickets", query, nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type AdminQuery struct {
	Query  string
	Status string
	Limit  int
	Offset int
}

func (c *Client) ListAdminTickets(ctx context.Context, aq AdminQuery) (*TicketList, error) {
	query := url.Values{}
	if aq.Query != "" {
		query.Set("q", aq.Query)
	}
	if aq.Status != "" {
		query.Set("status", aq.Status)
	}
	if aq.Limit > 0 {
		query.Set("limit", strconv.Itoa(aq.Limit))
	}
	if aq.Offset > 0 {
		query.Set("offset", strconv.Itoa(aq.Offset))
	}
	var out TicketList
	if _, err := c.do(ctx, http.MethodGet, "/api/v1/admin/tickets", query, nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type ticketUpdate struct {
	Status     *model.TicketStatus `json:"status,omitempty"`
	AdminNotes *string             `json:"admin_notes,omitempty"`
}

// UpdateTicket changes status and/or admin notes; nil leaves a field unchanged.
func (c *Client) UpdateTicket(ctx context.Context, id uuid.UUID, status *model.TicketStatus, notes *string) (*model.Ticket, error) {
	var t model.Ticket
	if err := c.doJSON(ctx, http.MethodPut, "/api/v1/admin/tickets/"+id.String(), ticketUpdate{Status: status, AdminNotes: notes}, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) DeleteTicket(ctx context.Context, id uuid.UUID) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/v1/admin/tickets/"+id.String(), nil, nil)
}

// ExportTickets downloads the CSV export and the file name suggested by the server.
func (c *Client) ExportTickets(ctx context.Context, format string) ([]byte, string, error) {
	query := url.Values{}
	if format != "" {
		query.Set("format", format)
	}
	var data []byte
	resp, err := c.do(ctx, http.MethodGet, "/api/v1/admin/tickets/export", query, nil, "", &data)
	if err != nil {
		return nil, "", err
	}
	name := ""
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		name = params["filename"]
	}
	return data, name, nil
}

func (c *Client) SignUp(ctx context.Context, name, email, password, confirm string) (*model.AdminProfile, error) {
	in := map[string]string{"name": name, "email": email, "password": password, "confirm_password": confirm}
	var p model.AdminProfile
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/auth/signup", in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// SignIn returns a new session and uses its token for later calls.
func (c *Client) SignIn(ctx context.Context, email, password string) (*auth.Session, error) {
	var sess auth.Session
	in := map[string]string{"email": email, "password": password}
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/auth/signin", in, &sess); err != nil {
		return nil, err
	}
	c.token = sess.AccessToken
	return &sess, nil
}

func (c *Client) SignOut(ctx context.Context) error {
	if c.token == "" {
		return errs.ErrUnauthenticated
	}
	err := c.doJSON(ctx, http.MethodPost, "/api/v1/auth/signout", nil, nil)
	var apiErr *APIError
	if err == nil || (errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized) {
		c.token = ""
		return nil
	}
	return err
}

func (c *Client) RequestRecovery(ctx context.Context, email string) error {
	return c.doJSON(ctx, http.MethodPost, "/api/v1/auth/recover", map[string]string{"email": email}, nil)
}

func (c *Client) UpdatePassword(ctx context.Context, token, password, confirm string) error {
	in := map[string]string{"token": token, "password": password, "confirm_password": confirm}
	return c.doJSON(ctx, http.MethodPost, "/api/v1/auth/password", in, nil)
}

type SessionInfo struct {
	Session *auth.Session       `json:"session"`
	Profile *model.AdminProfile `json:"profile"`
}

func (c *Client) Session(ctx context.Context) (*SessionInfo, error) {
	var out SessionInfo
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/auth/session", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ImportCreator sends each imported row to ImportTicket.
type ImportCreator struct {
	Client *Client
}

func (ic ImportCreator) CreateTicket(ctx context.Context, in model.CreateTicket) (*model.Ticket, error) {
	return ic.Client.ImportTicket(ctx, in)
}
