package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/orgatreeker/orgatreeker-backend/internal/models"
)

func newPreferencesApp(repo *stubProfileRepo) *fiber.App {
	handler := NewPreferencesHandler(repo)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", "42")
		return c.Next()
	})
	app.Get("/api/v1/preferences", handler.GetPreferences)
	app.Put("/api/v1/preferences", handler.UpdatePreferences)
	return app
}

func TestGetPreferencesReturnsStoredValues(t *testing.T) {
	repo := &stubProfileRepo{profile: &models.Profile{
		Theme: "dark", Currency: "EUR", DateFormat: "DD/MM/YYYY",
	}}
	app := newPreferencesApp(repo)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/preferences", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var payload map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload["theme"] != "dark" || payload["currency"] != "EUR" || payload["date_format"] != "DD/MM/YYYY" {
		t.Fatalf("unexpected preferences %+v", payload)
	}
}

func TestUpdatePreferencesForwardsPartialChange(t *testing.T) {
	repo := &stubProfileRepo{profile: &models.Profile{
		Theme: "system", Currency: "USD", DateFormat: "MM/DD/YYYY",
	}}
	app := newPreferencesApp(repo)

	body := `{"theme":"dark"}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/preferences", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if repo.lastPartial.Theme == nil || *repo.lastPartial.Theme != "dark" {
		t.Fatal("expected theme update to be forwarded")
	}
	if repo.lastPartial.Currency != nil {
		t.Fatal("expected untouched fields to stay nil")
	}
}

func TestUpdatePreferencesValidatesValues(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"unknown theme", `{"theme":"sepia"}`},
		{"lowercase currency", `{"currency":"usd"}`},
		{"unknown date format", `{"date_format":"DD.MM.YYYY"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &stubProfileRepo{profile: &models.Profile{}}
			app := newPreferencesApp(repo)

			req := httptest.NewRequest(http.MethodPut, "/api/v1/preferences", strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")

			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusUnprocessableEntity {
				t.Fatalf("expected 422, got %d", resp.StatusCode)
			}
		})
	}
}
