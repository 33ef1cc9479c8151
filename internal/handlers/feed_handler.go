package handlers

import (
	"time"

	"github.com/clubcal/clubcal-backend/internal/dto"
	"github.com/clubcal/clubcal-backend/internal/feed"
	"github.com/clubcal/clubcal-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// FeedHandler serves the public iCalendar feed. No authentication: the
// calendar id is the capability.
type FeedHandler struct {
	calendarService *services.CalendarService
}

func NewFeedHandler(calendarService *services.CalendarService) *FeedHandler {
	return &FeedHandler{calendarService: calendarService}
}

func (h *FeedHandler) ICS(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Calendar not found",
		})
	}

	cal, err := h.calendarService.Get(id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Calendar not found",
		})
	}

	events, err := cal.DecodeEvents()
	if err != nil {
		return storeFailure(c, err)
	}

	out, err := feed.ICS(cal.TeamName, events, time.Now())
	if err != nil {
		return storeFailure(c, err)
	}

	c.Set(fiber.HeaderContentType, "text/calendar; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+cal.TeamName+`.ics"`)
	return c.Send(out)
}
