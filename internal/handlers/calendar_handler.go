package handlers

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/clubcal/clubcal-backend/internal/config"
	"github.com/clubcal/clubcal-backend/internal/dto"
	"github.com/clubcal/clubcal-backend/internal/feed"
	"github.com/clubcal/clubcal-backend/internal/httpauth"
	"github.com/clubcal/clubcal-backend/internal/models"
	"github.com/clubcal/clubcal-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type CalendarHandler struct {
	calendarService *services.CalendarService
	clubService     *services.ClubService
	cfg             *config.Config
}

func NewCalendarHandler(calendarService *services.CalendarService, clubService *services.ClubService, cfg *config.Config) *CalendarHandler {
	return &CalendarHandler{calendarService: calendarService, clubService: clubService, cfg: cfg}
}

func (h *CalendarHandler) Create(c *fiber.Ctx) error {
	userID, err := httpauth.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	club, _, err := h.clubService.GetForUser(c.Params("slug"), userID)
	if err != nil {
		return clubError(c, err)
	}

	var req dto.CreateCalendarRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	cal, err := h.calendarService.Create(club, userID, strings.TrimSpace(req.TeamName))
	if err != nil {
		if errors.Is(err, services.ErrTeamNameRequired) {
			return badRequest(c, err.Error())
		}
		if errors.Is(err, services.ErrCalendarLimitReached) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return storeFailure(c, err)
	}

	resp, err := services.CalendarResponse(cal)
	if err != nil {
		return storeFailure(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *CalendarHandler) ListForClub(c *fiber.Ctx) error {
	userID, err := httpauth.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	club, _, err := h.clubService.GetForUser(c.Params("slug"), userID)
	if err != nil {
		return clubError(c, err)
	}

	calendars, err := h.calendarService.ListForClub(club.ID)
	if err != nil {
		return storeFailure(c, err)
	}

	resps := make([]dto.CalendarResponse, 0, len(calendars))
	for i := range calendars {
		resp, err := services.CalendarResponse(&calendars[i])
		if err != nil {
			return storeFailure(c, err)
		}
		resps = append(resps, *resp)
	}
	return c.JSON(resps)
}

func (h *CalendarHandler) Get(c *fiber.Ctx) error {
	cal, err := h.memberCalendar(c)
	if err != nil {
		return err
	}

	resp, err := services.CalendarResponse(cal)
	if err != nil {
		return storeFailure(c, err)
	}
	return c.JSON(resp)
}

func (h *CalendarHandler) Delete(c *fiber.Ctx) error {
	userID, err := httpauth.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Calendar id is required")
	}

	cal, err := h.calendarService.Get(id)
	if errors.Is(err, services.ErrCalendarNotFound) {
		// Idempotent: deleting an already-gone calendar is fine.
		return c.JSON(fiber.Map{"ok": true})
	} else if err != nil {
		return storeFailure(c, err)
	}

	if _, err := h.clubService.RoleInClub(cal.ClubID, userID); err != nil {
		return clubError(c, err)
	}

	if err := h.calendarService.Delete(id); err != nil {
		return storeFailure(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (h *CalendarHandler) AddEvent(c *fiber.Ctx) error {
	cal, err := h.memberCalendar(c)
	if err != nil {
		return err
	}

	var req dto.EventRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	events, err := h.calendarService.AddEvent(cal, &req)
	if err != nil {
		return storeFailure(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(events)
}

func (h *CalendarHandler) UpdateEvent(c *fiber.Ctx) error {
	cal, err := h.memberCalendar(c)
	if err != nil {
		return err
	}

	var req dto.EventRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	events, err := h.calendarService.UpdateEvent(cal, c.Params("eventID"), &req)
	if err != nil {
		return eventError(c, err)
	}
	return c.JSON(events)
}

func (h *CalendarHandler) ToggleCancelEvent(c *fiber.Ctx) error {
	cal, err := h.memberCalendar(c)
	if err != nil {
		return err
	}

	events, err := h.calendarService.ToggleCancel(cal, c.Params("eventID"))
	if err != nil {
		return eventError(c, err)
	}
	return c.JSON(events)
}

func (h *CalendarHandler) DeleteEvent(c *fiber.Ctx) error {
	cal, err := h.memberCalendar(c)
	if err != nil {
		return err
	}

	events, err := h.calendarService.DeleteEvent(cal, c.Params("eventID"))
	if err != nil {
		return eventError(c, err)
	}
	return c.JSON(events)
}

// PDF renders the printable snapshot with the owning club's branding.
func (h *CalendarHandler) PDF(c *fiber.Ctx) error {
	cal, err := h.memberCalendar(c)
	if err != nil {
		return err
	}

	var club models.Club
	opts := feed.PDFOptions{TeamName: cal.TeamName}
	if err := h.clubService.LoadClub(cal.ClubID, &club); err == nil {
		opts.ClubName = club.Name
		opts.PrimaryColor = club.PrimaryColor
		opts.SecondaryColor = club.SecondaryColor
		opts.Logo, opts.LogoFormat = h.readLogo(club.LogoURL)
	}

	events, err := cal.DecodeEvents()
	if err != nil {
		return storeFailure(c, err)
	}

	out, err := feed.PDF(opts, events)
	if err != nil {
		return storeFailure(c, err)
	}

	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+cal.TeamName+`.pdf"`)
	return c.Send(out)
}

// memberCalendar loads the calendar from :id and verifies the caller belongs
// to the owning club. It writes the error response itself and returns a
// non-nil error when the request is already answered.
func (h *CalendarHandler) memberCalendar(c *fiber.Ctx) (*models.Calendar, error) {
	userID, err := httpauth.GetUserID(c)
	if err != nil {
		return nil, unauthorized(c)
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, badRequest(c, "Calendar id is required")
	}

	cal, err := h.calendarService.Get(id)
	if err != nil {
		return nil, c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Calendar not found",
		})
	}

	if _, err := h.clubService.RoleInClub(cal.ClubID, userID); err != nil {
		return nil, clubError(c, err)
	}
	return cal, nil
}

func (h *CalendarHandler) readLogo(logoURL string) ([]byte, string) {
	rel, ok := strings.CutPrefix(logoURL, "/uploads/")
	if !ok {
		return nil, ""
	}
	data, err := os.ReadFile(filepath.Join(h.cfg.UploadDir, filepath.FromSlash(rel)))
	if err != nil {
		return nil, ""
	}
	format := "png"
	if strings.HasSuffix(rel, ".jpg") || strings.HasSuffix(rel, ".jpeg") {
		format = "jpg"
	}
	return data, format
}

func eventError(c *fiber.Ctx, err error) error {
	if errors.Is(err, services.ErrEventNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}
	return storeFailure(c, err)
}
