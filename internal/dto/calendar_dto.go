package dto

import (
	"time"

	"github.com/clubcal/clubcal-backend/internal/models"
	"github.com/google/uuid"
)

type CreateCalendarRequest struct {
	TeamName string `json:"team_name"`
}

type CalendarResponse struct {
	ID        uuid.UUID              `json:"id"`
	TeamName  string                 `json:"team_name"`
	AdminSlug string                 `json:"admin_slug"`
	ClubID    uuid.UUID              `json:"club_id"`
	IsPremium bool                   `json:"is_premium"`
	Events    []models.CalendarEvent `json:"events"`
	CreatedAt time.Time              `json:"created_at"`
}

type EventRequest struct {
	Date     time.Time `json:"date"`
	Opponent string    `json:"opponent"`
	Location string    `json:"location"`
	IsHome   bool      `json:"is_home"`
}
