package services

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/clubcal/clubcal-backend/internal/config"
	"github.com/clubcal/clubcal-backend/internal/dto"
	"github.com/clubcal/clubcal-backend/internal/mailer"
	"github.com/clubcal/clubcal-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrInviteNotFound   = errors.New("invitation not found")
	ErrInviteExpired    = errors.New("invitation expired")
	ErrEmailMismatch    = errors.New("this invitation is for a different email address")
	ErrSeatLimitReached = errors.New("coach limit reached, upgrade your plan")
	ErrEmailRequired    = errors.New("coach email is required")
)

// InviteService governs the coach invitation lifecycle: issue, public info,
// accept, revoke. Invite lookups bypass membership checks on purpose: until
// acceptance the token itself is the capability, since the invitee has no
// relationship to the club yet.
type InviteService struct {
	db     *gorm.DB
	cfg    *config.Config
	plans  *PlanService
	mailer *mailer.Mailer
	now    func() time.Time
}

func NewInviteService(db *gorm.DB, cfg *config.Config, plans *PlanService, m *mailer.Mailer) *InviteService {
	return &InviteService{db: db, cfg: cfg, plans: plans, mailer: m, now: time.Now}
}

// Issue creates a pending invite for the given club. Caller must already be
// verified as the club owner. Seat accounting counts accepted coaches plus
// pending non-expired invites.
func (s *InviteService) Issue(club *models.Club, email string) (*dto.InviteResponse, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, ErrEmailRequired
	}

	plan, err := s.plans.PlanForClub(club.ID)
	if err != nil {
		return nil, err
	}

	used, err := s.SeatsUsed(club.ID)
	if err != nil {
		return nil, err
	}
	if used >= plan.MaxCoaches {
		return nil, ErrSeatLimitReached
	}

	token, err := newInviteToken()
	if err != nil {
		return nil, err
	}

	invite := models.ClubInvite{
		ID:        uuid.New(),
		ClubID:    club.ID,
		Email:     email,
		Role:      models.RoleCoach,
		Token:     token,
		ExpiresAt: s.now().Add(s.cfg.InviteExpiry),
	}

	if err := s.db.Create(&invite).Error; err != nil {
		return nil, fmt.Errorf("failed to create invite: %w", err)
	}

	inviteURL := s.cfg.AppBaseURL + "/invite?token=" + token

	// Best effort: the link is returned to the caller either way.
	if s.mailer != nil {
		if err := s.mailer.SendInvite(email, club.Name, inviteURL); err != nil {
			slog.Error("failed to send invite email", "error", err, "club_id", club.ID.String())
		}
	}

	return &dto.InviteResponse{
		ID:        invite.ID,
		Email:     invite.Email,
		Role:      invite.Role,
		ExpiresAt: invite.ExpiresAt,
		InviteURL: inviteURL,
	}, nil
}

// Revoke deletes a still-pending invite. Caller must already be verified as
// the club owner.
func (s *InviteService) Revoke(clubID, inviteID uuid.UUID) error {
	result := s.db.Where("id = ? AND club_id = ?", inviteID, clubID).Delete(&models.ClubInvite{})
	if result.Error != nil {
		return fmt.Errorf("failed to revoke invite: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrInviteNotFound
	}
	return nil
}

// PublicInfo returns the pre-authentication view of an invite: club name,
// inviter display name and the invited email. No auth required; the token is
// the capability.
func (s *InviteService) PublicInfo(token string) (*dto.InviteInfoResponse, error) {
	var invite models.ClubInvite
	if err := s.db.Where("token = ?", token).First(&invite).Error; err != nil {
		return nil, ErrInviteNotFound
	}

	if s.now().After(invite.ExpiresAt) {
		return nil, ErrInviteExpired
	}

	var club models.Club
	if err := s.db.First(&club, "id = ?", invite.ClubID).Error; err != nil {
		return nil, ErrInviteNotFound
	}

	inviterName := "The club owner"
	var owner models.Profile
	if err := s.db.First(&owner, "id = ?", club.OwnerID).Error; err == nil {
		if owner.FullName != "" {
			inviterName = owner.FullName
		} else if owner.Email != "" {
			inviterName = owner.Email
		}
	}

	return &dto.InviteInfoResponse{
		ClubName:     club.Name,
		InviterName:  inviterName,
		InvitedEmail: invite.Email,
	}, nil
}

// Accept admits the authenticated user into the invite's club. Gates, in
// order: token exists, not expired, invited email matches the authenticated
// email (case-insensitive). Admission is an idempotent insert: the unique
// (club_id, user_id) index plus ON CONFLICT DO NOTHING means two racing
// accepts both succeed and exactly one membership row exists.
func (s *InviteService) Accept(token string, userID uuid.UUID, userEmail string) (*dto.AcceptInviteResponse, error) {
	var invite models.ClubInvite
	if err := s.db.Where("token = ?", token).First(&invite).Error; err != nil {
		return nil, ErrInviteNotFound
	}

	if s.now().After(invite.ExpiresAt) {
		return nil, ErrInviteExpired
	}

	if !strings.EqualFold(invite.Email, userEmail) {
		return nil, ErrEmailMismatch
	}

	member := models.ClubMember{
		ID:     uuid.New(),
		ClubID: invite.ClubID,
		UserID: userID,
		Role:   invite.Role,
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "club_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(&member).Error
	if err != nil {
		// Membership insert failed: leave the invite intact for retry.
		return nil, fmt.Errorf("failed to join club: %w", err)
	}

	// Membership is established (or already existed), so consume the invite.
	if err := s.db.Where("token = ?", token).Delete(&models.ClubInvite{}).Error; err != nil {
		slog.Error("failed to delete consumed invite", "error", err, "club_id", invite.ClubID.String())
	}

	var club models.Club
	if err := s.db.First(&club, "id = ?", invite.ClubID).Error; err != nil {
		return nil, fmt.Errorf("failed to load club: %w", err)
	}

	return &dto.AcceptInviteResponse{
		Success:  true,
		ClubSlug: club.Slug,
		ClubName: club.Name,
	}, nil
}

// SeatsUsed counts coach members plus pending non-expired invites.
func (s *InviteService) SeatsUsed(clubID uuid.UUID) (int, error) {
	var coaches int64
	err := s.db.Model(&models.ClubMember{}).
		Where("club_id = ? AND role = ?", clubID, models.RoleCoach).
		Count(&coaches).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count coaches: %w", err)
	}

	var pending int64
	err = s.db.Model(&models.ClubInvite{}).
		Where("club_id = ? AND expires_at > ?", clubID, s.now()).
		Count(&pending).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count pending invites: %w", err)
	}

	return int(coaches + pending), nil
}

// MembersPage assembles the owner-facing members view: members with display
// names (profile falling back to the user record), pending invites and seat
// usage against the plan limit.
func (s *InviteService) MembersPage(club *models.Club) (*dto.MembersPageResponse, error) {
	var members []models.ClubMember
	if err := s.db.Where("club_id = ?", club.ID).Find(&members).Error; err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	memberResponses := make([]dto.MemberResponse, 0, len(members))
	for _, m := range members {
		resp := dto.MemberResponse{ID: m.ID, UserID: m.UserID, Role: m.Role}

		var profile models.Profile
		if err := s.db.First(&profile, "id = ?", m.UserID).Error; err == nil {
			resp.FullName = profile.FullName
			resp.Email = profile.Email
		} else {
			var user models.User
			if err := s.db.First(&user, "id = ?", m.UserID).Error; err == nil {
				resp.Email = user.Email
			}
		}
		memberResponses = append(memberResponses, resp)
	}

	var invites []models.ClubInvite
	err := s.db.Where("club_id = ? AND expires_at > ?", club.ID, s.now()).
		Order("created_at").Find(&invites).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list invites: %w", err)
	}

	inviteResponses := make([]dto.InviteResponse, 0, len(invites))
	for _, inv := range invites {
		inviteResponses = append(inviteResponses, dto.InviteResponse{
			ID:        inv.ID,
			Email:     inv.Email,
			Role:      inv.Role,
			ExpiresAt: inv.ExpiresAt,
		})
	}

	plan, err := s.plans.PlanForClub(club.ID)
	if err != nil {
		return nil, err
	}

	used, err := s.SeatsUsed(club.ID)
	if err != nil {
		return nil, err
	}

	return &dto.MembersPageResponse{
		Members:    memberResponses,
		Invites:    inviteResponses,
		SeatsUsed:  used,
		MaxCoaches: plan.MaxCoaches,
		CanInvite:  used < plan.MaxCoaches,
	}, nil
}

// newInviteToken returns 128 bits of randomness as 32 hex characters.
func newInviteToken() (string, error) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate invite token: %w", err)
	}
	return hex.EncodeToString(raw), nil
}
