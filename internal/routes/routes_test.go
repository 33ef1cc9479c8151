package routes

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/clubcal/clubcal-backend/internal/config"
	"github.com/clubcal/clubcal-backend/internal/database"
	"github.com/clubcal/clubcal-backend/internal/handlers"
	"github.com/clubcal/clubcal-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testApp(t *testing.T) *fiber.App {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	cfg := &config.Config{
		JWTSecret:        "test-secret",
		JWTAccessExpiry:  15 * time.Minute,
		JWTRefreshExpiry: 168 * time.Hour,
		InviteExpiry:     168 * time.Hour,
		AppBaseURL:       "http://localhost:3000",
		UploadDir:        t.TempDir(),
	}

	planService := services.NewPlanService(db)
	if err := planService.Seed(); err != nil {
		t.Fatalf("failed to seed plans: %v", err)
	}
	authService := services.NewAuthService(db, cfg)
	clubService := services.NewClubService(db, planService)
	inviteService := services.NewInviteService(db, cfg, planService, nil)
	calendarService := services.NewCalendarService(db, planService)

	app := fiber.New()
	Setup(app, cfg,
		handlers.NewAuthHandler(authService),
		handlers.NewClubHandler(clubService, planService, cfg),
		handlers.NewInviteHandler(inviteService, clubService),
		handlers.NewCalendarHandler(calendarService, clubService, cfg),
		handlers.NewFeedHandler(calendarService),
		handlers.NewHealthHandler(db),
	)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func register(t *testing.T, app *fiber.App, email string) string {
	t.Helper()
	resp := doJSON(t, app, "POST", "/api/auth/register", "", map[string]string{
		"email": email, "password": "correct horse",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register %s: status %d", email, resp.StatusCode)
	}
	var body struct {
		AccessToken string `json:"access_token"`
	}
	decode(t, resp, &body)
	return body.AccessToken
}

func TestHealth(t *testing.T) {
	app := testApp(t)
	resp := doJSON(t, app, "GET", "/api/health", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health: status %d", resp.StatusCode)
	}
}

func TestClubEndpoints(t *testing.T) {
	app := testApp(t)
	token := register(t, app, "owner@example.com")

	// JWT is required on club routes.
	resp := doJSON(t, app, "POST", "/api/clubs", "", map[string]string{"name": "Riverside FC"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("unauthenticated create: status %d, want 401", resp.StatusCode)
	}

	resp = doJSON(t, app, "POST", "/api/clubs", token, map[string]string{"name": "Riverside FC"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create club: status %d", resp.StatusCode)
	}
	var club struct {
		Slug string `json:"slug"`
		Role string `json:"role"`
	}
	decode(t, resp, &club)
	if club.Slug != "riverside-fc" || club.Role != "owner" {
		t.Errorf("unexpected club: %+v", club)
	}

	resp = doJSON(t, app, "POST", "/api/clubs", token, map[string]string{"name": "Riverside FC"})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("duplicate club: status %d, want 409", resp.StatusCode)
	}

	resp = doJSON(t, app, "GET", "/api/clubs/riverside-fc", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("get club: status %d", resp.StatusCode)
	}

	// Strangers and missing clubs look identical.
	stranger := register(t, app, "stranger@example.com")
	resp = doJSON(t, app, "GET", "/api/clubs/riverside-fc", stranger, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("stranger get: status %d, want 404", resp.StatusCode)
	}
	resp = doJSON(t, app, "GET", "/api/clubs/nope", token, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing club: status %d, want 404", resp.StatusCode)
	}
}

func TestInviteEndpoints(t *testing.T) {
	app := testApp(t)
	owner := register(t, app, "owner@example.com")
	coach := register(t, app, "coach@example.com")
	outsider := register(t, app, "outsider@example.com")

	resp := doJSON(t, app, "POST", "/api/clubs", owner, map[string]string{"name": "Riverside FC"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create club: status %d", resp.StatusCode)
	}

	resp = doJSON(t, app, "POST", "/api/clubs/riverside-fc/invites", owner, map[string]string{"email": "coach@example.com"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("issue invite: status %d", resp.StatusCode)
	}
	var invite struct {
		InviteURL string `json:"invite_url"`
	}
	decode(t, resp, &invite)
	token := invite.InviteURL[strings.Index(invite.InviteURL, "token=")+len("token="):]

	// Public info needs no auth.
	resp = doJSON(t, app, "GET", "/api/invite-info?token="+token, "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("invite-info: status %d", resp.StatusCode)
	}
	resp = doJSON(t, app, "GET", "/api/invite-info?token=ffffffffffffffffffffffffffffffff", "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("invite-info unknown token: status %d, want 404", resp.StatusCode)
	}

	// Wrong account: 403, and the invite stays usable.
	resp = doJSON(t, app, "POST", "/api/accept-invite", outsider, map[string]string{"token": token})
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("mismatched accept: status %d, want 403", resp.StatusCode)
	}

	resp = doJSON(t, app, "POST", "/api/accept-invite", coach, map[string]string{"token": token})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("accept: status %d", resp.StatusCode)
	}
	var accepted struct {
		Success  bool   `json:"success"`
		ClubSlug string `json:"club_slug"`
	}
	decode(t, resp, &accepted)
	if !accepted.Success || accepted.ClubSlug != "riverside-fc" {
		t.Errorf("unexpected accept response: %+v", accepted)
	}

	// Consumed: a second accept of the same token 404s.
	resp = doJSON(t, app, "POST", "/api/accept-invite", coach, map[string]string{"token": token})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("re-accept: status %d, want 404", resp.StatusCode)
	}

	// The members page is owner only.
	resp = doJSON(t, app, "GET", "/api/clubs/riverside-fc/members", coach, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("coach members page: status %d, want 403", resp.StatusCode)
	}
	resp = doJSON(t, app, "GET", "/api/clubs/riverside-fc/members", owner, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("members page: status %d", resp.StatusCode)
	}
	var page struct {
		Members   []struct{ Role string } `json:"members"`
		SeatsUsed int                     `json:"seats_used"`
	}
	decode(t, resp, &page)
	if len(page.Members) != 2 {
		t.Errorf("members = %d, want owner plus coach", len(page.Members))
	}
	if page.SeatsUsed != 1 {
		t.Errorf("seats used = %d, want 1", page.SeatsUsed)
	}
}

func TestCalendarAndFeedEndpoints(t *testing.T) {
	app := testApp(t)
	owner := register(t, app, "owner@example.com")

	resp := doJSON(t, app, "POST", "/api/clubs", owner, map[string]string{"name": "Riverside FC"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create club: status %d", resp.StatusCode)
	}

	resp = doJSON(t, app, "POST", "/api/clubs/riverside-fc/calendars", owner, map[string]string{"team_name": "U12 Tigers"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create calendar: status %d", resp.StatusCode)
	}
	var cal struct {
		ID string `json:"id"`
	}
	decode(t, resp, &cal)

	resp = doJSON(t, app, "POST", "/api/calendars/"+cal.ID+"/events", owner, map[string]any{
		"date": time.Now().Add(48 * time.Hour).Format(time.RFC3339), "opponent": "Hilltop United", "location": "Riverside Park", "is_home": true,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add event: status %d", resp.StatusCode)
	}

	// The feed is public and carries the calendar content type.
	resp = doJSON(t, app, "GET", "/api/cal/"+cal.ID, "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("feed: status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Errorf("feed content type = %q", ct)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "Hilltop United") {
		t.Error("feed missing the match")
	}

	resp = doJSON(t, app, "GET", "/api/cal/not-a-uuid", "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("bad feed id: status %d, want 404", resp.StatusCode)
	}

	resp = doJSON(t, app, "GET", "/api/calendars/"+cal.ID+"/pdf", owner, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("pdf: status %d", resp.StatusCode)
	}
	pdfBody, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !bytes.HasPrefix(pdfBody, []byte("%PDF")) {
		t.Error("pdf endpoint did not return a PDF")
	}

	resp = doJSON(t, app, "DELETE", "/api/calendars/"+cal.ID, owner, nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("delete calendar: status %d", resp.StatusCode)
	}
	resp = doJSON(t, app, "GET", "/api/cal/"+cal.ID, "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("feed after delete: status %d, want 404", resp.StatusCode)
	}
}

func TestInviteRememberAndCallback(t *testing.T) {
	app := testApp(t)

	resp := doJSON(t, app, "POST", "/api/invite/remember", "", map[string]string{"token": "abc123"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("remember: status %d", resp.StatusCode)
	}
	var cookie string
	for _, c := range resp.Cookies() {
		if c.Name == "pending_invite_token" {
			cookie = c.Value
		}
	}
	if cookie != "abc123" {
		t.Fatalf("cookie value = %q", cookie)
	}

	req := httptest.NewRequest("GET", "/auth/callback", nil)
	req.AddCookie(&http.Cookie{Name: "pending_invite_token", Value: cookie})
	cb, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("callback: %v", err)
	}
	if cb.StatusCode != http.StatusFound {
		t.Fatalf("callback status %d, want 302", cb.StatusCode)
	}
	if loc := cb.Header.Get("Location"); loc != "/invite?token=abc123" {
		t.Errorf("callback location = %q", loc)
	}

	// Without the cookie the callback lands on the dashboard.
	cb2 := doJSON(t, app, "GET", "/auth/callback", "", nil)
	if loc := cb2.Header.Get("Location"); loc != "/dashboard" {
		t.Errorf("plain callback location = %q", loc)
	}
}
