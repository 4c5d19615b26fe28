package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/psds-microservice/helpdesk-service/internal/errs"
	"github.com/psds-microservice/helpdesk-service/internal/validate"
)

func Test_WriteError_Maps_Errors_To_Status(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name string
		err  error
		want int
	}{
		{"fields", validate.FieldErrors{"nama": "Nama wajib diisi"}, http.StatusUnprocessableEntity},
		{"ticket not found", fmt.Errorf("get: %w", errs.ErrTicketNotFound), http.StatusNotFound},
		{"record not found", gorm.ErrRecordNotFound, http.StatusNotFound},
		{"no session", errs.ErrUnauthenticated, http.StatusUnauthorized},
		{"expired", errs.ErrTokenExpired, http.StatusUnauthorized},
		{"self", errs.ErrSelfAction, http.StatusForbidden},
		{"bad status", errs.ErrInvalidStatus, http.StatusBadRequest},
		{"nothing to change", errs.ErrNoChanges, http.StatusBadRequest},
		{"duplicate", gorm.ErrDuplicatedKey, http.StatusConflict},
		{"unknown", fmt.Errorf("connection reset"), http.StatusInternalServerError},
	}
	for _, testCase := range cases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			writeError(c, testCase.err, "Gagal memuat data")
			assert.Equal(t, testCase.want, rec.Code)
			if testCase.want == http.StatusInternalServerError {
				assert.JSONEq(t, `{"error":"Gagal memuat data"}`, rec.Body.String())
			}
		})
	}
}

func Test_BearerToken(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "abc", bearerToken("Bearer abc"))
	assert.Equal(t, "abc", bearerToken("bearer  abc "))
	assert.Empty(t, bearerToken("Basic abc"))
	assert.Empty(t, bearerToken(""))
}

func Test_Ready_Reports_Failed_Check(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name  string
		check func(context.Context) error
		want  int
	}{
		{"no check", nil, http.StatusOK},
		{"healthy", func(context.Context) error { return nil }, http.StatusOK},
		{"db down", func(context.Context) error { return errors.New("connection refused") }, http.StatusServiceUnavailable},
	}
	for _, testCase := range cases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)
			Ready(testCase.check)(c)
			assert.Equal(t, testCase.want, rec.Code)
		})
	}
}
