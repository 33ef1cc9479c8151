package models

import (
	"time"

	"github.com/google/uuid"
)

// Club roles. A club has exactly one owner, set at creation.
const (
	RoleOwner = "owner"
	RoleCoach = "coach"
)

type Club struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name           string    `gorm:"not null;size:255" json:"name"`
	Slug           string    `gorm:"not null;size:255;uniqueIndex" json:"slug"`
	Address        string    `gorm:"type:text" json:"address"`
	LogoURL        string    `gorm:"type:text" json:"logo_url"`
	PrimaryColor   string    `gorm:"size:7" json:"primary_color"`
	SecondaryColor string    `gorm:"size:7" json:"secondary_color"`
	OwnerID        uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ClubMember is unique per (club, user). The unique index is the backstop
// that keeps two concurrent invite acceptances from inserting twice.
type ClubMember struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ClubID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_club_members_club_user" json:"club_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_club_members_club_user" json:"user_id"`
	Role      string    `gorm:"size:20;not null;default:'coach'" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	Club      Club      `gorm:"foreignKey:ClubID" json:"-"`
	User      User      `gorm:"foreignKey:UserID" json:"-"`
}

// ClubInvite is a pending coach invitation. The token is the capability: a
// 128-bit random value rendered as hex. Rows are deleted on acceptance and
// simply ignored once expired.
type ClubInvite struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ClubID    uuid.UUID `gorm:"type:uuid;not null;index" json:"club_id"`
	Email     string    `gorm:"not null;size:255" json:"email"`
	Role      string    `gorm:"size:20;not null;default:'coach'" json:"role"`
	Token     string    `gorm:"not null;size:32;uniqueIndex" json:"-"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	Club      Club      `gorm:"foreignKey:ClubID" json:"-"`
}
