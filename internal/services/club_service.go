package services

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/clubcal/clubcal-backend/internal/dto"
	"github.com/clubcal/clubcal-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrClubNotFound = errors.New("club not found")
	ErrSlugTaken    = errors.New("a club with this name already exists")
	ErrNotOwner     = errors.New("only the club owner can do this")
	ErrNotMember    = errors.New("you are not a member of this club")
	ErrNameRequired = errors.New("club name is required")
)

type ClubService struct {
	db    *gorm.DB
	plans *PlanService
}

func NewClubService(db *gorm.DB, plans *PlanService) *ClubService {
	return &ClubService{db: db, plans: plans}
}

// Create inserts the club, its owner membership and a free-plan subscription
// in one transaction. The slug is derived from the name.
func (s *ClubService) Create(ownerID uuid.UUID, req *dto.CreateClubRequest) (*models.Club, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrNameRequired
	}

	club := models.Club{
		ID:             uuid.New(),
		Name:           name,
		Slug:           Slugify(name),
		Address:        strings.TrimSpace(req.Address),
		PrimaryColor:   req.PrimaryColor,
		SecondaryColor: req.SecondaryColor,
		OwnerID:        ownerID,
	}

	var existing models.Club
	if err := s.db.Where("slug = ?", club.Slug).First(&existing).Error; err == nil {
		return nil, ErrSlugTaken
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&club).Error; err != nil {
			return fmt.Errorf("failed to create club: %w", err)
		}
		member := models.ClubMember{
			ID:     uuid.New(),
			ClubID: club.ID,
			UserID: ownerID,
			Role:   models.RoleOwner,
		}
		if err := tx.Create(&member).Error; err != nil {
			return fmt.Errorf("failed to create owner membership: %w", err)
		}
		return s.plans.AttachFreePlan(tx, club.ID)
	})
	if err != nil {
		return nil, err
	}

	return &club, nil
}

// ListForUser returns the clubs the user belongs to, with their role.
func (s *ClubService) ListForUser(userID uuid.UUID) ([]dto.ClubResponse, error) {
	var memberships []models.ClubMember
	if err := s.db.Where("user_id = ?", userID).Find(&memberships).Error; err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}

	clubs := make([]dto.ClubResponse, 0, len(memberships))
	for _, m := range memberships {
		var club models.Club
		if err := s.db.First(&club, "id = ?", m.ClubID).Error; err != nil {
			continue
		}
		clubs = append(clubs, clubResponse(&club, m.Role))
	}
	return clubs, nil
}

// GetForUser loads a club by slug and verifies membership.
func (s *ClubService) GetForUser(slug string, userID uuid.UUID) (*models.Club, string, error) {
	var club models.Club
	if err := s.db.Where("slug = ?", slug).First(&club).Error; err != nil {
		return nil, "", ErrClubNotFound
	}

	role, err := s.RoleInClub(club.ID, userID)
	if err != nil {
		return nil, "", err
	}
	return &club, role, nil
}

// GetForOwner loads a club by slug and verifies the caller owns it.
func (s *ClubService) GetForOwner(slug string, userID uuid.UUID) (*models.Club, error) {
	club, _, err := s.GetForUser(slug, userID)
	if err != nil {
		return nil, err
	}
	if club.OwnerID != userID {
		return nil, ErrNotOwner
	}
	return club, nil
}

// LoadClub fills dst with the club row for id.
func (s *ClubService) LoadClub(id uuid.UUID, dst *models.Club) error {
	if err := s.db.First(dst, "id = ?", id).Error; err != nil {
		return ErrClubNotFound
	}
	return nil
}

// RoleInClub returns the user's role or ErrNotMember.
func (s *ClubService) RoleInClub(clubID, userID uuid.UUID) (string, error) {
	var member models.ClubMember
	err := s.db.Where("club_id = ? AND user_id = ?", clubID, userID).First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotMember
	} else if err != nil {
		return "", fmt.Errorf("failed to check membership: %w", err)
	}
	return member.Role, nil
}

// Update mutates name, address and brand colors. Slug is immutable: feed and
// invite links embed it.
func (s *ClubService) Update(club *models.Club, req *dto.UpdateClubRequest) error {
	updates := map[string]interface{}{}
	if name := strings.TrimSpace(req.Name); name != "" {
		updates["name"] = name
	}
	updates["address"] = strings.TrimSpace(req.Address)
	if req.PrimaryColor != "" {
		updates["primary_color"] = req.PrimaryColor
	}
	if req.SecondaryColor != "" {
		updates["secondary_color"] = req.SecondaryColor
	}

	if err := s.db.Model(club).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update club: %w", err)
	}
	return nil
}

// SetLogoURL records the stored logo location.
func (s *ClubService) SetLogoURL(club *models.Club, url string) error {
	if err := s.db.Model(club).Update("logo_url", url).Error; err != nil {
		return fmt.Errorf("failed to update logo: %w", err)
	}
	return nil
}

func clubResponse(club *models.Club, role string) dto.ClubResponse {
	return dto.ClubResponse{
		ID:             club.ID,
		Name:           club.Name,
		Slug:           club.Slug,
		Address:        club.Address,
		LogoURL:        club.LogoURL,
		PrimaryColor:   club.PrimaryColor,
		SecondaryColor: club.SecondaryColor,
		OwnerID:        club.OwnerID,
		Role:           role,
		CreatedAt:      club.CreatedAt,
	}
}

// ClubResponse builds the API view of a club for the given role.
func ClubResponse(club *models.Club, role string) dto.ClubResponse {
	return clubResponse(club, role)
}

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives a URL slug from a club name: lowercase, non-alphanumerics
// collapsed to dashes, trimmed. Falls back to "club" for degenerate input.
func Slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = nonSlugChars.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return "club"
	}
	return slug
}
