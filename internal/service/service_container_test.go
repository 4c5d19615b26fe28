//go:build container
// +build container

package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psds-microservice/helpdesk-service/internal/auth"
	"github.com/psds-microservice/helpdesk-service/internal/csvio"
	"github.com/psds-microservice/helpdesk-service/internal/errs"
	"github.com/psds-microservice/helpdesk-service/internal/importer"
	"github.com/psds-microservice/helpdesk-service/internal/model"
	"github.com/psds-microservice/helpdesk-service/internal/service"
	"github.com/psds-microservice/helpdesk-service/internal/testhelpers"
)

func adminSession(id uuid.UUID) *auth.Session {
	return &auth.Session{AccessToken: "t", UserID: id, Email: "admin@kampus.ac.id", ExpiresAt: time.Now().Add(time.Hour)}
}

func submission(email, subject string) model.CreateTicket {
	return model.CreateTicket{
		Name:        "Budi Santoso",
		Email:       email,
		Phone:       "0812 3456 7890",
		Subject:     subject,
		Category:    model.CategoryWifi,
		Description: "Wifi di perpustakaan putus setiap lima menit",
	}
}

func Test_TicketService_Lifecycle(t *testing.T) {
	db := testhelpers.Postgres(t)
	svc := service.NewTicketService(db, nil)
	ctx := context.Background()

	first, err := svc.Create(ctx, submission("Budi@Kampus.ac.id", "Wifi putus"))
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, first.ID)
	assert.Equal(t, model.TicketStatusSubmitted, first.Status)
	assert.Equal(t, "budi@kampus.ac.id", first.Email)
	assert.Equal(t, "081234567890", first.Phone)

	second, err := svc.Create(ctx, submission("ani@kampus.ac.id", "Wifi lambat"))
	require.NoError(t, err)

	items, total, err := svc.List(ctx, nil, 0, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, items, 2)
	assert.Equal(t, second.ID, items[0].ID)

	mine, err := svc.ListByEmail(ctx, "BUDI@kampus.ac.id")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, first.ID, mine[0].ID)

	status := model.TicketStatusApproved
	_, err = svc.Update(ctx, nil, first.ID, service.UpdateTicket{Status: &status})
	assert.ErrorIs(t, err, errs.ErrUnauthenticated)

	notes := "  Router diganti besok  "
	sess := adminSession(uuid.New())
	updated, err := svc.Update(ctx, sess, first.ID, service.UpdateTicket{Status: &status, AdminNotes: &notes})
	require.NoError(t, err)
	assert.Equal(t, model.TicketStatusApproved, updated.Status)
	require.NotNil(t, updated.AdminNotes)
	assert.Equal(t, "Router diganti besok", *updated.AdminNotes)
	assert.True(t, updated.UpdatedAt.After(first.UpdatedAt))

	empty := ""
	cleared, err := svc.Update(ctx, sess, first.ID, service.UpdateTicket{AdminNotes: &empty})
	require.NoError(t, err)
	assert.Nil(t, cleared.AdminNotes)

	bad := model.TicketStatus("DONE")
	_, err = svc.Update(ctx, sess, first.ID, service.UpdateTicket{Status: &bad})
	assert.ErrorIs(t, err, errs.ErrInvalidStatus)

	_, err = svc.Update(ctx, sess, uuid.New(), service.UpdateTicket{Status: &status})
	assert.ErrorIs(t, err, errs.ErrTicketNotFound)

	require.NoError(t, svc.Delete(ctx, sess, first.ID))
	_, err = svc.GetByID(ctx, first.ID)
	assert.ErrorIs(t, err, errs.ErrTicketNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, sess, first.ID), errs.ErrTicketNotFound)
}

func Test_TicketService_Create_Rejects_Invalid_Form(t *testing.T) {
	db := testhelpers.Postgres(t)
	svc := service.NewTicketService(db, nil)

	in := submission("budi@kampus.ac.id", "Wifi")
	in.Category = model.CategoryOther
	_, err := svc.Create(context.Background(), in)
	require.Error(t, err)

	_, total, err := svc.List(context.Background(), nil, 0, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func Test_Export_Then_Import_Round_Trips_Through_The_Store(t *testing.T) {
	db := testhelpers.Postgres(t)
	svc := service.NewTicketService(db, nil)
	ctx := context.Background()
	sess := adminSession(uuid.New())

	notes := `Kabel "LAN" dicek, lalu
diganti`
	_, err := svc.CreateImported(ctx, sess, model.CreateTicket{
		Name: "Citra, S.Kom", Email: "citra@kampus.ac.id", Phone: "081298765432",
		Subject: "Internet lab", Category: model.CategoryHardware,
		Description: "Port LAN di lab 3 mati", Status: model.TicketStatusInProgress, AdminNotes: &notes,
	})
	require.NoError(t, err)
	_, err = svc.CreateImported(ctx, sess, model.CreateTicket{Name: "Dodi", Email: "dodi@kampus.ac.id", Subject: "Lupa sandi"})
	require.NoError(t, err)

	before, _, err := svc.List(ctx, nil, 0, 0)
	require.NoError(t, err)
	text := csvio.NewEncoder(csvio.FormatColumns, time.Local).EncodeString(before)

	var asked int
	sum, err := importer.New(service.SessionCreator{Tickets: svc, Session: sess}, csvio.FormatColumns).
		Import(ctx, text, func(rows int) bool { asked = rows; return true })
	require.NoError(t, err)
	assert.Equal(t, 2, asked)
	assert.Equal(t, importer.Summary{Success: 2}, sum)

	after, total, err := svc.List(ctx, nil, 0, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)

	var copied *model.Ticket
	for i := range after {
		if after[i].Name == "Citra, S.Kom" && after[i].ID != before[0].ID && after[i].ID != before[1].ID {
			copied = &after[i]
		}
	}
	require.NotNil(t, copied)
	assert.Equal(t, model.TicketStatusInProgress, copied.Status)
	require.NotNil(t, copied.AdminNotes)
	assert.Equal(t, notes, *copied.AdminNotes)

	dodi, err := svc.ListByEmail(ctx, "dodi@kampus.ac.id")
	require.NoError(t, err)
	for _, d := range dodi {
		assert.Equal(t, model.CategoryOther, d.Category)
		assert.Equal(t, model.TicketStatusSubmitted, d.Status)
		assert.True(t, strings.HasPrefix(d.Subject, "Lupa"))
	}
}

func Test_AdminService_Refuses_Self_Action(t *testing.T) {
	db := testhelpers.Postgres(t)
	provider := auth.NewDBProvider(db, time.Hour, time.Hour, nil)
	admins := service.NewAdminService(db)
	ctx := context.Background()

	owner, err := provider.SignUp(ctx, "Owner", "owner@kampus.ac.id", "secret1")
	require.NoError(t, err)
	other, err := provider.SignUp(ctx, "Staff", "staff@kampus.ac.id", "secret1")
	require.NoError(t, err)
	assert.Equal(t, model.RoleSuperAdmin, owner.Role)
	assert.Equal(t, model.RoleAdmin, other.Role)

	sess := adminSession(owner.ID)
	role := model.RoleSuperAdmin
	_, err = admins.Update(ctx, sess, owner.ID, service.UpdateProfile{Role: &role})
	assert.ErrorIs(t, err, errs.ErrSelfAction)
	assert.ErrorIs(t, admins.Delete(ctx, sess, owner.ID), errs.ErrSelfAction)

	promoted, err := admins.Update(ctx, sess, other.ID, service.UpdateProfile{Role: &role})
	require.NoError(t, err)
	assert.Equal(t, model.RoleSuperAdmin, promoted.Role)

	invalid := model.AdminRole("root")
	_, err = admins.Update(ctx, sess, other.ID, service.UpdateProfile{Role: &invalid})
	assert.ErrorIs(t, err, errs.ErrInvalidRole)

	require.NoError(t, admins.Delete(ctx, sess, other.ID))
	_, err = admins.Get(ctx, sess, other.ID)
	assert.ErrorIs(t, err, errs.ErrProfileNotFound)

	_, err = provider.SignIn(ctx, "staff@kampus.ac.id", "secret1")
	assert.ErrorIs(t, err, errs.ErrInvalidCredentials)

	list, err := admins.List(ctx, sess)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
