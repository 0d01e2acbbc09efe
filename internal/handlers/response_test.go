package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	pkgerrors "github.com/tablemate/backoffice-backend/internal/pkg/errors"
	"github.com/tablemate/backoffice-backend/internal/services"
)

func TestRespondServiceError_StatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("bad input: %w", pkgerrors.ErrInvalidArgument), http.StatusBadRequest},
		{fmt.Errorf("missing: %w", pkgerrors.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("model down: %w", services.ErrOverloaded), http.StatusServiceUnavailable},
		{errors.New("something else"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		RespondServiceError(c, "test_code", tc.err)
		if rec.Code != tc.want {
			t.Fatalf("RespondServiceError(%v) wrote %d, want %d", tc.err, rec.Code, tc.want)
		}
	}
}

func TestTenantAndUserHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	// Absent headers are valid and resolve to zero identity.
	if id, ok := tenantID(c); !ok || id.String() == "" {
		t.Fatalf("absent tenant header must be accepted")
	}
	if user, ok := userID(c); !ok || user != nil {
		t.Fatalf("absent user header must resolve to nil")
	}

	c.Request.Header.Set("X-Tenant-ID", "not-a-uuid")
	if _, ok := tenantID(c); ok {
		t.Fatalf("malformed tenant header must be rejected")
	}
	c.Request.Header.Set("X-User-ID", "also-not-a-uuid")
	if _, ok := userID(c); ok {
		t.Fatalf("malformed user header must be rejected")
	}
}
