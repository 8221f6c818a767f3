package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestRequireRole(t *testing.T) {
	app := fiber.New()
	app.Get("/s/admin/ping", UserContextMiddleware(), RequireRole("admin"), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	tests := []struct {
		name       string
		userID     string
		roles      string
		wantStatus int
	}{
		{"admin role passes", "user-1", "admin", fiber.StatusOK},
		{"admin among several roles passes", "user-1", "coach, admin", fiber.StatusOK},
		{"coach role blocked", "user-1", "coach", fiber.StatusForbidden},
		{"no roles blocked", "user-1", "", fiber.StatusForbidden},
		{"missing user context rejected first", "", "admin", fiber.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/s/admin/ping", nil)
			if tt.userID != "" {
				req.Header.Set("X-User-ID", tt.userID)
			}
			if tt.roles != "" {
				req.Header.Set("X-User-Roles", tt.roles)
			}

			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
		})
	}
}
