package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func newAppContext(t *testing.T, user *AppUser) *AppContext {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	return &AppContext{e.NewContext(req, rec), &App{}, user}
}

func TestHasPermission(t *testing.T) {
	tests := []struct {
		name       string
		user       *AppUser
		permission string
		want       bool
	}{
		{
			name:       "nil user",
			user:       nil,
			permission: PermViewScreenings,
			want:       false,
		},
		{
			name:       "granted",
			user:       &AppUser{Permissions: []string{PermViewScreenings, PermViewEntities}},
			permission: PermViewScreenings,
			want:       true,
		},
		{
			name:       "not granted",
			user:       &AppUser{Permissions: []string{PermViewEntities}},
			permission: PermDeleteScreenings,
			want:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasPermission(tt.user, tt.permission); got != tt.want {
				t.Errorf("HasPermission() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRequirePermission(t *testing.T) {
	handler := func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}

	tests := []struct {
		name       string
		user       *AppUser
		wantStatus int
	}{
		{
			name:       "no user",
			user:       nil,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "missing permission",
			user:       &AppUser{Permissions: []string{PermViewEntities}},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "has permission",
			user:       &AppUser{Permissions: []string{PermCreateScreenings}},
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cc := newAppContext(t, tt.user)
			err := RequirePermission(PermCreateScreenings)(handler)(cc)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := cc.Response().Status; got != tt.wantStatus {
				t.Errorf("status = %d, want %d", got, tt.wantStatus)
			}
		})
	}
}

func TestCanViewScreening(t *testing.T) {
	tests := []struct {
		name        string
		user        *AppUser
		requestedBy string
		want        bool
	}{
		{
			name:        "nil user",
			user:        nil,
			requestedBy: "42",
			want:        false,
		},
		{
			name:        "owner",
			user:        &AppUser{UserID: 42},
			requestedBy: "42",
			want:        true,
		},
		{
			name:        "other user without view-all",
			user:        &AppUser{UserID: 7},
			requestedBy: "42",
			want:        false,
		},
		{
			name:        "other user with view-all",
			user:        &AppUser{UserID: 7, Permissions: []string{PermViewAllScreenings}},
			requestedBy: "42",
			want:        true,
		},
		{
			name:        "unattributed run",
			user:        &AppUser{UserID: 7},
			requestedBy: "",
			want:        false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanViewScreening(tt.user, tt.requestedBy); got != tt.want {
				t.Errorf("CanViewScreening() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRequireAnyPermission(t *testing.T) {
	handler := func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}

	cc := newAppContext(t, &AppUser{Permissions: []string{PermViewAllScreenings}})
	err := RequireAnyPermission(PermViewScreenings, PermViewAllScreenings)(handler)(cc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := cc.Response().Status; got != http.StatusOK {
		t.Errorf("status = %d, want %d", got, http.StatusOK)
	}
}
