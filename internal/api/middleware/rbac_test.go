package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func runRBAC(t *testing.T, role string, allowed ...string) error {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPut, "/api/reports/1/status", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if role != "" {
		c.Set("role", role)
	}

	h := RBAC(allowed...)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	return h(c)
}

func TestRBAC_AllowedRole(t *testing.T) {
	if err := runRBAC(t, "admin", "admin"); err != nil {
		t.Fatalf("admin rejected: %v", err)
	}
}

func TestRBAC_ForbiddenRole(t *testing.T) {
	err := runRBAC(t, "member", "admin")
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", err)
	}
}

func TestRBAC_MissingRole(t *testing.T) {
	err := runRBAC(t, "", "admin")
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without a role, got %v", err)
	}
}

func TestRBAC_MultipleRoles(t *testing.T) {
	if err := runRBAC(t, "member", "admin", "member"); err != nil {
		t.Fatalf("member rejected on a member route: %v", err)
	}
}
