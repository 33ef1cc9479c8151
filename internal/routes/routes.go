package routes

import (
	"time"

	"github.com/clubcal/clubcal-backend/internal/config"
	"github.com/clubcal/clubcal-backend/internal/handlers"
	"github.com/clubcal/clubcal-backend/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	clubHandler *handlers.ClubHandler,
	inviteHandler *handlers.InviteHandler,
	calendarHandler *handlers.CalendarHandler,
	feedHandler *handlers.FeedHandler,
	healthHandler *handlers.HealthHandler,
) {
	// Uploaded club logos.
	app.Static("/uploads", cfg.UploadDir)

	// Post-confirmation redirect target for the sign-up flow.
	app.Get("/auth/callback", authHandler.Callback)

	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Health)

	// Public calendar feed: the id is the capability, no JWT.
	api.Get("/cal/:id", feedHandler.ICS)

	// Public invite endpoints (pre-authentication).
	api.Get("/invite-info", inviteHandler.Info)
	api.Post("/invite/remember", inviteHandler.Remember)

	// Auth is public, with a stricter rate limit: 10 req/min per IP
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)

	// Protected routes (JWT required) - apply middleware to individual routes
	// so public routes above stay public.
	jwt := middleware.JWTProtected(cfg)

	api.Get("/auth/me", jwt, authHandler.Me)
	api.Post("/auth/logout", jwt, authHandler.Logout)
	api.Delete("/auth/account", jwt, authHandler.DeleteAccount)

	api.Post("/accept-invite", jwt, inviteHandler.Accept)

	clubs := api.Group("/clubs", jwt)
	clubs.Post("/", clubHandler.Create)
	clubs.Get("/", clubHandler.List)
	clubs.Get("/:slug", clubHandler.Get)
	clubs.Put("/:slug", clubHandler.Update)
	clubs.Post("/:slug/logo", clubHandler.UploadLogo)
	clubs.Get("/:slug/plan", clubHandler.Plan)

	clubs.Get("/:slug/members", inviteHandler.Members)
	clubs.Post("/:slug/invites", inviteHandler.Issue)
	clubs.Delete("/:slug/invites/:id", inviteHandler.Revoke)

	clubs.Get("/:slug/calendars", calendarHandler.ListForClub)
	clubs.Post("/:slug/calendars", calendarHandler.Create)

	calendars := api.Group("/calendars", jwt)
	calendars.Get("/:id", calendarHandler.Get)
	calendars.Delete("/:id", calendarHandler.Delete)
	calendars.Get("/:id/pdf", calendarHandler.PDF)
	calendars.Post("/:id/events", calendarHandler.AddEvent)
	calendars.Put("/:id/events/:eventID", calendarHandler.UpdateEvent)
	calendars.Post("/:id/events/:eventID/cancel", calendarHandler.ToggleCancelEvent)
	calendars.Delete("/:id/events/:eventID", calendarHandler.DeleteEvent)
}
