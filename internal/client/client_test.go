package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psds-microservice/helpdesk-service/internal/auth"
	"github.com/psds-microservice/helpdesk-service/internal/client"
	"github.com/psds-microservice/helpdesk-service/internal/csvio"
	"github.com/psds-microservice/helpdesk-service/internal/errs"
	"github.com/psds-microservice/helpdesk-service/internal/filter"
	"github.com/psds-microservice/helpdesk-service/internal/importer"
	"github.com/psds-microservice/helpdesk-service/internal/model"
	"github.com/psds-microservice/helpdesk-service/internal/validate"
)

func Test_CreateTicket_Posts_Public_Endpoint(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/tickets", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))

		var in model.CreateTicket
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(model.Ticket{ID: uuid.New(), Name: in.Name, Status: model.TicketStatusSubmitted})
	}))
	defer srv.Close()

	got, err := client.New(srv.URL).CreateTicket(context.Background(), model.CreateTicket{Name: "Budi"})
	require.NoError(t, err)
	assert.Equal(t, "Budi", got.Name)
	assert.Equal(t, model.TicketStatusSubmitted, got.Status)
}

func Test_APIError_Unwraps_Field_Errors(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"error":"validation failed","fields":{"description":"Deskripsi minimal 20 karakter"}}`)
	}))
	defer srv.Close()

	_, err := client.New(srv.URL).CreateTicket(context.Background(), model.CreateTicket{})
	var fields validate.FieldErrors
	require.True(t, errors.As(err, &fields))
	assert.Equal(t, "Deskripsi minimal 20 karakter", fields["description"])
}

func Test_APIError_Maps_Status_To_Sentinel(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		status  int
		message string
		want    error
	}{
		{"unauthenticated", http.StatusUnauthorized, "authenticated session required", errs.ErrUnauthenticated},
		{"bad credentials", http.StatusUnauthorized, errs.ErrInvalidCredentials.Error(), errs.ErrInvalidCredentials},
		{"expired token", http.StatusUnauthorized, errs.ErrTokenExpired.Error(), errs.ErrTokenExpired},
		{"self action", http.StatusForbidden, errs.ErrSelfAction.Error(), errs.ErrSelfAction},
		{"ticket missing", http.StatusNotFound, errs.ErrTicketNotFound.Error(), errs.ErrTicketNotFound},
		{"profile missing", http.StatusNotFound, errs.ErrProfileNotFound.Error(), errs.ErrProfileNotFound},
		{"conflict", http.StatusConflict, errs.ErrAlreadyRegistered.Error(), errs.ErrAlreadyRegistered},
	}
	for _, testCase := range cases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			err := &client.APIError{Status: testCase.status, Message: testCase.message}
			assert.ErrorIs(t, err, testCase.want)
		})
	}
}

func Test_SignIn_Stores_Token_For_Admin_Calls(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/auth/signin":
			_ = json.NewEncoder(w).Encode(auth.Session{AccessToken: "tok", UserID: uuid.New(), ExpiresAt: time.Now().Add(time.Hour)})
		case "/api/v1/admin/tickets/" + id.String():
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			assert.Equal(t, http.MethodDelete, r.Method)
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := client.New(srv.URL)
	sess, err := c.SignIn(context.Background(), "admin@kampus.ac.id", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "tok", sess.AccessToken)
	require.NoError(t, c.DeleteTicket(context.Background(), id))
}

func Test_SignOut_Without_Session(t *testing.T) {
	t.Parallel()

	err := client.New("http://127.0.0.1:0").SignOut(context.Background())
	assert.ErrorIs(t, err, errs.ErrUnauthenticated)
}

func Test_ListTickets_Sends_Filters(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "budi@kampus.ac.id", r.URL.Query().Get("email"))
		assert.Equal(t, "wifi", r.URL.Query().Get("q"))
		assert.Equal(t, "ACTIVE", r.URL.Query().Get("scope"))
		_, _ = io.WriteString(w, `{"tickets":[{"subject":"Wifi mati","status":"DIAJUKAN"}],"total":1,"counts":{"ALL":3,"active":2,"completed":1}}`)
	}))
	defer srv.Close()

	list, err := client.New(srv.URL).ListTickets(context.Background(), "budi@kampus.ac.id", "wifi", filter.ScopeActive)
	require.NoError(t, err)
	require.Len(t, list.Tickets, 1)
	assert.Equal(t, "Wifi mati", list.Tickets[0].Subject)
	assert.Equal(t, 3, list.Counts.All)
	assert.Equal(t, 1, list.Counts.Completed)
}

func Test_ExportTickets_Returns_Attachment_Name(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "columns", r.URL.Query().Get("format"))
		w.Header().Set("Content-Disposition", `attachment; filename="tickets_export_20240102_030405.csv"`)
		w.Header().Set("Content-Type", "text/csv")
		_, _ = io.WriteString(w, csvio.FormatColumns.HeaderLine())
	}))
	defer srv.Close()

	data, name, err := client.New(srv.URL, client.WithSession(&auth.Session{AccessToken: "tok"})).ExportTickets(context.Background(), "columns")
	require.NoError(t, err)
	assert.Equal(t, "tickets_export_20240102_030405.csv", name)
	assert.Equal(t, csvio.FormatColumns.HeaderLine(), string(data))
}

func Test_ImportCreator_Drives_Importer_Over_HTTP(t *testing.T) {
	t.Parallel()

	var created []model.CreateTicket
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/admin/tickets", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		var in model.CreateTicket
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		created = append(created, in)
		if in.Name == "Gagal" {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, `{"error":"failed to create ticket"}`)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(model.Ticket{ID: uuid.New(), Name: in.Name})
	}))
	defer srv.Close()

	text := "ID,Nama,Email,NIM,Kategori,Subjek,Deskripsi,Status,Catatan Admin,Tanggal Dibuat,Tanggal Diperbarui\n" +
		`,"Budi",budi@kampus.ac.id,123,Wifi,"Wifi mati","Tidak bisa konek",,,,` + "\n" +
		`,"Gagal",gagal@kampus.ac.id,456,Account,"Lupa","Lupa password",,,,`

	c := client.New(srv.URL, client.WithSession(&auth.Session{AccessToken: "tok"}))
	sum, err := importer.New(client.ImportCreator{Client: c}, csvio.FormatLabeled).Import(context.Background(), text, nil)
	require.NoError(t, err)
	assert.Equal(t, importer.Summary{Success: 1, Errors: 1}, sum)
	require.Len(t, created, 2)
	assert.Equal(t, model.TicketStatusSubmitted, created[0].Status)
	assert.Equal(t, "123", created[0].StudentID)
}

func Test_WithTimeout_Leaves_Shared_Client_Untouched(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	shared := &http.Client{}
	cl := client.New(srv.URL, client.WithHTTPClient(shared), client.WithTimeout(50*time.Millisecond))

	_, err := cl.GetTicket(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Zero(t, shared.Timeout)
}
