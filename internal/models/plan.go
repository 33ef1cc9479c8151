package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Plan bounds what a club may do. Read-only at runtime; rows are seeded at
// boot and billing lives elsewhere.
type Plan struct {
	ID                  uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name                string         `gorm:"not null;size:50;uniqueIndex" json:"name"`
	MaxCoaches          int            `gorm:"not null" json:"max_coaches"`
	MaxCalendarsPerClub int            `gorm:"not null" json:"max_calendars_per_club"`
	Features            datatypes.JSON `gorm:"type:jsonb;default:'{}'" json:"features"`
	CreatedAt           time.Time      `json:"created_at"`
}

type Subscription struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ClubID           uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex" json:"club_id"`
	PlanID           uuid.UUID  `gorm:"type:uuid;not null" json:"plan_id"`
	Status           string     `gorm:"not null;default:'active';size:50" json:"status"`
	CurrentPeriodEnd *time.Time `json:"current_period_end"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	Club             Club       `gorm:"foreignKey:ClubID" json:"-"`
	Plan             Plan       `gorm:"foreignKey:PlanID" json:"-"`
}
