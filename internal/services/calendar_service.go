package services

import (
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/clubcal/clubcal-backend/internal/dto"
	"github.com/clubcal/clubcal-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrCalendarNotFound     = errors.New("calendar not found")
	ErrCalendarLimitReached = errors.New("calendar limit reached, upgrade your plan")
	ErrEventNotFound        = errors.New("event not found")
	ErrTeamNameRequired     = errors.New("team name is required")
)

const adminSlugLength = 12

// CalendarService is CRUD over a club's team calendars and their embedded
// event lists. Event updates are whole-list overwrites: the array is read,
// mutated in memory and written back, with no optimistic locking. Concurrent
// editors can lose each other's changes; accepted limitation.
type CalendarService struct {
	db    *gorm.DB
	plans *PlanService
}

func NewCalendarService(db *gorm.DB, plans *PlanService) *CalendarService {
	return &CalendarService{db: db, plans: plans}
}

// Create adds a calendar to the club, bounded by the plan's per-club limit.
func (s *CalendarService) Create(club *models.Club, userID uuid.UUID, teamName string) (*models.Calendar, error) {
	if teamName == "" {
		return nil, ErrTeamNameRequired
	}

	plan, err := s.plans.PlanForClub(club.ID)
	if err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.Model(&models.Calendar{}).Where("club_id = ?", club.ID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to count calendars: %w", err)
	}
	if int(count) >= plan.MaxCalendarsPerClub {
		return nil, ErrCalendarLimitReached
	}

	slug, err := newAdminSlug()
	if err != nil {
		return nil, err
	}

	cal := models.Calendar{
		ID:        uuid.New(),
		TeamName:  teamName,
		AdminSlug: slug,
		ClubID:    club.ID,
		CreatedBy: userID,
	}
	if err := cal.SetEvents([]models.CalendarEvent{}); err != nil {
		return nil, err
	}

	if err := s.db.Create(&cal).Error; err != nil {
		return nil, fmt.Errorf("failed to create calendar: %w", err)
	}
	return &cal, nil
}

// ListForClub returns the club's calendars.
func (s *CalendarService) ListForClub(clubID uuid.UUID) ([]models.Calendar, error) {
	var calendars []models.Calendar
	if err := s.db.Where("club_id = ?", clubID).Order("created_at").Find(&calendars).Error; err != nil {
		return nil, fmt.Errorf("failed to list calendars: %w", err)
	}
	return calendars, nil
}

// Get loads a calendar by id. No membership check: callers that serve
// member-only views must verify against the owning club themselves; the
// public feed deliberately reads through here with only the id as capability.
func (s *CalendarService) Get(id uuid.UUID) (*models.Calendar, error) {
	var cal models.Calendar
	if err := s.db.First(&cal, "id = ?", id).Error; err != nil {
		return nil, ErrCalendarNotFound
	}
	return &cal, nil
}

// AddEvent appends a match to the calendar's event list.
func (s *CalendarService) AddEvent(cal *models.Calendar, req *dto.EventRequest) ([]models.CalendarEvent, error) {
	events, err := cal.DecodeEvents()
	if err != nil {
		return nil, err
	}

	events = append(events, models.CalendarEvent{
		ID:        uuid.New().String(),
		Date:      req.Date,
		Opponent:  req.Opponent,
		Location:  req.Location,
		IsHome:    req.IsHome,
		Cancelled: false,
	})

	if err := s.saveEvents(cal, events); err != nil {
		return nil, err
	}
	return events, nil
}

// UpdateEvent overwrites a match in place by id, preserving its cancelled flag.
func (s *CalendarService) UpdateEvent(cal *models.Calendar, eventID string, req *dto.EventRequest) ([]models.CalendarEvent, error) {
	events, err := cal.DecodeEvents()
	if err != nil {
		return nil, err
	}

	found := false
	for i := range events {
		if events[i].ID == eventID {
			events[i].Date = req.Date
			events[i].Opponent = req.Opponent
			events[i].Location = req.Location
			events[i].IsHome = req.IsHome
			found = true
			break
		}
	}
	if !found {
		return nil, ErrEventNotFound
	}

	if err := s.saveEvents(cal, events); err != nil {
		return nil, err
	}
	return events, nil
}

// ToggleCancel flips a match's cancelled flag: cancel when active, restore
// when cancelled.
func (s *CalendarService) ToggleCancel(cal *models.Calendar, eventID string) ([]models.CalendarEvent, error) {
	events, err := cal.DecodeEvents()
	if err != nil {
		return nil, err
	}

	found := false
	for i := range events {
		if events[i].ID == eventID {
			events[i].Cancelled = !events[i].Cancelled
			found = true
			break
		}
	}
	if !found {
		return nil, ErrEventNotFound
	}

	if err := s.saveEvents(cal, events); err != nil {
		return nil, err
	}
	return events, nil
}

// DeleteEvent removes a match from the list.
func (s *CalendarService) DeleteEvent(cal *models.Calendar, eventID string) ([]models.CalendarEvent, error) {
	events, err := cal.DecodeEvents()
	if err != nil {
		return nil, err
	}

	kept := events[:0]
	found := false
	for _, e := range events {
		if e.ID == eventID {
			found = true
			continue
		}
		kept = append(kept, e)
	}
	if !found {
		return nil, ErrEventNotFound
	}

	if err := s.saveEvents(cal, kept); err != nil {
		return nil, err
	}
	return kept, nil
}

// Delete removes the calendar row. References (feed URLs) go stale with it;
// no explicit cleanup.
func (s *CalendarService) Delete(id uuid.UUID) error {
	if err := s.db.Delete(&models.Calendar{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete calendar: %w", err)
	}
	return nil
}

func (s *CalendarService) saveEvents(cal *models.Calendar, events []models.CalendarEvent) error {
	if err := cal.SetEvents(events); err != nil {
		return err
	}
	if err := s.db.Model(cal).Update("events", cal.Events).Error; err != nil {
		return fmt.Errorf("failed to save events: %w", err)
	}
	return nil
}

// CalendarResponse builds the API view of a calendar with decoded events.
func CalendarResponse(cal *models.Calendar) (*dto.CalendarResponse, error) {
	events, err := cal.DecodeEvents()
	if err != nil {
		return nil, err
	}
	return &dto.CalendarResponse{
		ID:        cal.ID,
		TeamName:  cal.TeamName,
		AdminSlug: cal.AdminSlug,
		ClubID:    cal.ClubID,
		IsPremium: cal.IsPremium,
		Events:    events,
		CreatedAt: cal.CreatedAt,
	}, nil
}

const slugAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// newAdminSlug returns 12 random lowercase-alphanumeric characters.
func newAdminSlug() (string, error) {
	raw := make([]byte, adminSlugLength)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate admin slug: %w", err)
	}
	out := make([]byte, adminSlugLength)
	for i, b := range raw {
		out[i] = slugAlphabet[int(b)%len(slugAlphabet)]
	}
	return string(out), nil
}
