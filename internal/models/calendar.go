package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// CalendarEvent is one match in a calendar's embedded event list. Events are
// stored as a JSON array on the calendar row, not as a separate relation;
// edits overwrite in place by id.
type CalendarEvent struct {
	ID        string    `json:"id"`
	Date      time.Time `json:"date"`
	Opponent  string    `json:"opponent"`
	Location  string    `json:"location"`
	IsHome    bool      `json:"is_home"`
	Cancelled bool      `json:"cancelled"`
}

type Calendar struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TeamName  string         `gorm:"not null;size:255" json:"team_name"`
	AdminSlug string         `gorm:"not null;size:12;uniqueIndex" json:"admin_slug"`
	Events    datatypes.JSON `gorm:"type:jsonb;default:'[]'" json:"events"`
	IsPremium bool           `gorm:"default:false" json:"is_premium"`
	ClubID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"club_id"`
	CreatedBy uuid.UUID      `gorm:"type:uuid" json:"created_by"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	Club      Club           `gorm:"foreignKey:ClubID" json:"-"`
}

// DecodeEvents parses the embedded event list. A present-but-malformed list
// is an error, distinct from an empty one.
func (c *Calendar) DecodeEvents() ([]CalendarEvent, error) {
	if len(c.Events) == 0 {
		return []CalendarEvent{}, nil
	}
	var events []CalendarEvent
	if err := json.Unmarshal(c.Events, &events); err != nil {
		return nil, fmt.Errorf("calendar %s has malformed events: %w", c.ID, err)
	}
	if events == nil {
		events = []CalendarEvent{}
	}
	return events, nil
}

// SetEvents replaces the embedded event list.
func (c *Calendar) SetEvents(events []CalendarEvent) error {
	b, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("failed to encode events: %w", err)
	}
	c.Events = datatypes.JSON(b)
	return nil
}
