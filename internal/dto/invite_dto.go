package dto

import (
	"time"

	"github.com/google/uuid"
)

type IssueInviteRequest struct {
	Email string `json:"email"`
}

type InviteResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
	InviteURL string    `json:"invite_url,omitempty"`
}

// InviteInfoResponse is the public, pre-authentication view of an invite.
type InviteInfoResponse struct {
	ClubName     string `json:"club_name"`
	InviterName  string `json:"inviter_name"`
	InvitedEmail string `json:"invited_email"`
}

type AcceptInviteRequest struct {
	Token string `json:"token"`
}

type AcceptInviteResponse struct {
	Success  bool   `json:"success"`
	ClubSlug string `json:"club_slug"`
	ClubName string `json:"club_name"`
}

type MembersPageResponse struct {
	Members    []MemberResponse `json:"members"`
	Invites    []InviteResponse `json:"invites"`
	SeatsUsed  int              `json:"seats_used"`
	MaxCoaches int              `json:"max_coaches"`
	CanInvite  bool             `json:"can_invite"`
}

type RememberInviteRequest struct {
	Token string `json:"token"`
}
