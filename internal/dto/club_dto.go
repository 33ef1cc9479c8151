package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateClubRequest struct {
	Name           string `json:"name"`
	Address        string `json:"address"`
	PrimaryColor   string `json:"primary_color"`
	SecondaryColor string `json:"secondary_color"`
}

type UpdateClubRequest struct {
	Name           string `json:"name"`
	Address        string `json:"address"`
	PrimaryColor   string `json:"primary_color"`
	SecondaryColor string `json:"secondary_color"`
}

type ClubResponse struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Slug           string    `json:"slug"`
	Address        string    `json:"address"`
	LogoURL        string    `json:"logo_url"`
	PrimaryColor   string    `json:"primary_color"`
	SecondaryColor string    `json:"secondary_color"`
	OwnerID        uuid.UUID `json:"owner_id"`
	Role           string    `json:"role"`
	CreatedAt      time.Time `json:"created_at"`
}

type MemberResponse struct {
	ID       uuid.UUID `json:"id"`
	UserID   uuid.UUID `json:"user_id"`
	Role     string    `json:"role"`
	FullName string    `json:"full_name"`
	Email    string    `json:"email"`
}

type PlanResponse struct {
	Name                string     `json:"name"`
	MaxCoaches          int        `json:"max_coaches"`
	MaxCalendarsPerClub int        `json:"max_calendars_per_club"`
	Status              string     `json:"status"`
	CurrentPeriodEnd    *time.Time `json:"current_period_end"`
}
