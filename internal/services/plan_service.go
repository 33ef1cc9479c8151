package services

import (
	"errors"
	"fmt"

	"github.com/clubcal/clubcal-backend/internal/dto"
	"github.com/clubcal/clubcal-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Plan limits when a club somehow has no subscription row.
const (
	defaultMaxCoaches   = 3
	defaultMaxCalendars = 5
)

// PlanService reads plan limits. Plans are seeded at boot and read-only at
// runtime; billing integration is out of scope.
type PlanService struct {
	db *gorm.DB
}

func NewPlanService(db *gorm.DB) *PlanService {
	return &PlanService{db: db}
}

// Seed inserts the built-in plans when missing.
func (s *PlanService) Seed() error {
	plans := []models.Plan{
		{ID: uuid.New(), Name: "free", MaxCoaches: 3, MaxCalendarsPerClub: 5},
		{ID: uuid.New(), Name: "premium", MaxCoaches: 10, MaxCalendarsPerClub: 20},
	}
	for _, p := range plans {
		var existing models.Plan
		err := s.db.Where("name = ?", p.Name).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := s.db.Create(&p).Error; err != nil {
				return fmt.Errorf("failed to seed plan %s: %w", p.Name, err)
			}
		} else if err != nil {
			return fmt.Errorf("failed to check plan %s: %w", p.Name, err)
		}
	}
	return nil
}

// PlanForClub resolves the club's plan through its subscription, falling back
// to the built-in defaults when either row is missing.
func (s *PlanService) PlanForClub(clubID uuid.UUID) (*models.Plan, error) {
	var sub models.Subscription
	err := s.db.Where("club_id = ?", clubID).First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.Plan{Name: "free", MaxCoaches: defaultMaxCoaches, MaxCalendarsPerClub: defaultMaxCalendars}, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}

	var plan models.Plan
	if err := s.db.First(&plan, "id = ?", sub.PlanID).Error; err != nil {
		return &models.Plan{Name: "free", MaxCoaches: defaultMaxCoaches, MaxCalendarsPerClub: defaultMaxCalendars}, nil
	}
	return &plan, nil
}

// PlanPage is the owner-facing plan view: limits plus subscription status.
func (s *PlanService) PlanPage(clubID uuid.UUID) (*dto.PlanResponse, error) {
	plan, err := s.PlanForClub(clubID)
	if err != nil {
		return nil, err
	}

	resp := &dto.PlanResponse{
		Name:                plan.Name,
		MaxCoaches:          plan.MaxCoaches,
		MaxCalendarsPerClub: plan.MaxCalendarsPerClub,
		Status:              "active",
	}

	var sub models.Subscription
	if err := s.db.Where("club_id = ?", clubID).First(&sub).Error; err == nil {
		resp.Status = sub.Status
		resp.CurrentPeriodEnd = sub.CurrentPeriodEnd
	}
	return resp, nil
}

// AttachFreePlan creates the club's subscription row on the free plan.
func (s *PlanService) AttachFreePlan(tx *gorm.DB, clubID uuid.UUID) error {
	var plan models.Plan
	if err := tx.Where("name = ?", "free").First(&plan).Error; err != nil {
		return fmt.Errorf("free plan not seeded: %w", err)
	}
	sub := models.Subscription{
		ID:     uuid.New(),
		ClubID: clubID,
		PlanID: plan.ID,
		Status: "active",
	}
	return tx.Create(&sub).Error
}
