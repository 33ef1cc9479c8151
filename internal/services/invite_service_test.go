package services

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/clubcal/clubcal-backend/internal/models"
)

func newTestInviteService(t *testing.T) (*InviteService, *PlanService) {
	t.Helper()
	db := testDB(t)
	plans := seededPlans(t, db)
	return NewInviteService(db, testConfig(), plans, nil), plans
}

func TestIssueAndAccept(t *testing.T) {
	svc, plans := newTestInviteService(t)
	owner := seedUser(t, svc.db, "owner@example.com")
	club := seedClub(t, svc.db, plans, owner.ID, "Riverside FC")

	invite, err := svc.Issue(club, "coach@example.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if invite.Role != models.RoleCoach {
		t.Errorf("role = %q, want %q", invite.Role, models.RoleCoach)
	}
	if !strings.Contains(invite.InviteURL, "/invite?token=") {
		t.Errorf("invite URL %q missing token path", invite.InviteURL)
	}

	token := strings.TrimPrefix(invite.InviteURL, "http://localhost:3000/invite?token=")
	if len(token) != 32 {
		t.Fatalf("token length = %d, want 32", len(token))
	}

	// Case-insensitive email gate: the account was registered with different
	// casing than the invite.
	coach := seedUser(t, svc.db, "Coach@Example.com")
	resp, err := svc.Accept(token, coach.ID, "Coach@Example.com")
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if !resp.Success || resp.ClubSlug != "riverside-fc" || resp.ClubName != "Riverside FC" {
		t.Errorf("unexpected response: %+v", resp)
	}

	var member models.ClubMember
	if err := svc.db.Where("club_id = ? AND user_id = ?", club.ID, coach.ID).First(&member).Error; err != nil {
		t.Fatalf("membership row missing: %v", err)
	}
	if member.Role != models.RoleCoach {
		t.Errorf("member role = %q, want coach", member.Role)
	}

	// The invite is consumed.
	var count int64
	svc.db.Model(&models.ClubInvite{}).Where("club_id = ?", club.ID).Count(&count)
	if count != 0 {
		t.Errorf("invite rows after accept = %d, want 0", count)
	}
}

func TestIssueRequiresEmail(t *testing.T) {
	svc, plans := newTestInviteService(t)
	owner := seedUser(t, svc.db, "owner@example.com")
	club := seedClub(t, svc.db, plans, owner.ID, "Riverside FC")

	if _, err := svc.Issue(club, "   "); !errors.Is(err, ErrEmailRequired) {
		t.Errorf("Issue with blank email = %v, want ErrEmailRequired", err)
	}
}

func TestAcceptUnknownToken(t *testing.T) {
	svc, _ := newTestInviteService(t)
	user := seedUser(t, svc.db, "coach@example.com")

	if _, err := svc.Accept("deadbeefdeadbeefdeadbeefdeadbeef", user.ID, user.Email); !errors.Is(err, ErrInviteNotFound) {
		t.Errorf("Accept unknown token = %v, want ErrInviteNotFound", err)
	}
}

func TestAcceptExpiredInvite(t *testing.T) {
	svc, plans := newTestInviteService(t)
	owner := seedUser(t, svc.db, "owner@example.com")
	club := seedClub(t, svc.db, plans, owner.ID, "Riverside FC")

	issued := time.Now()
	svc.now = func() time.Time { return issued }
	if _, err := svc.Issue(club, "coach@example.com"); err != nil {
		t.Fatalf("Issue: %v", err)
	}

	var invite models.ClubInvite
	if err := svc.db.Where("club_id = ?", club.ID).First(&invite).Error; err != nil {
		t.Fatalf("invite row missing: %v", err)
	}

	// One minute past expiry.
	svc.now = func() time.Time { return invite.ExpiresAt.Add(time.Minute) }

	coach := seedUser(t, svc.db, "coach@example.com")
	if _, err := svc.Accept(invite.Token, coach.ID, coach.Email); !errors.Is(err, ErrInviteExpired) {
		t.Fatalf("Accept expired = %v, want ErrInviteExpired", err)
	}
	if _, err := svc.PublicInfo(invite.Token); !errors.Is(err, ErrInviteExpired) {
		t.Errorf("PublicInfo expired = %v, want ErrInviteExpired", err)
	}

	// No membership was created and the row is still there (just ignored).
	var members int64
	svc.db.Model(&models.ClubMember{}).Where("club_id = ? AND user_id = ?", club.ID, coach.ID).Count(&members)
	if members != 0 {
		t.Errorf("members after expired accept = %d, want 0", members)
	}
}

func TestAcceptEmailMismatch(t *testing.T) {
	svc, plans := newTestInviteService(t)
	owner := seedUser(t, svc.db, "owner@example.com")
	club := seedClub(t, svc.db, plans, owner.ID, "Riverside FC")

	if _, err := svc.Issue(club, "invited@example.com"); err != nil {
		t.Fatalf("Issue: %v", err)
	}
	var invite models.ClubInvite
	svc.db.Where("club_id = ?", club.ID).First(&invite)

	other := seedUser(t, svc.db, "someone-else@example.com")
	if _, err := svc.Accept(invite.Token, other.ID, other.Email); !errors.Is(err, ErrEmailMismatch) {
		t.Fatalf("Accept with wrong email = %v, want ErrEmailMismatch", err)
	}

	// The invite survives a mismatched attempt so the right person can still
	// use it.
	var count int64
	svc.db.Model(&models.ClubInvite{}).Where("id = ?", invite.ID).Count(&count)
	if count != 1 {
		t.Errorf("invite rows after mismatch = %d, want 1", count)
	}
}

func TestAcceptIdempotentForExistingMember(t *testing.T) {
	svc, plans := newTestInviteService(t)
	owner := seedUser(t, svc.db, "owner@example.com")
	club := seedClub(t, svc.db, plans, owner.ID, "Riverside FC")
	coach := seedUser(t, svc.db, "coach@example.com")

	for i := 0; i < 2; i++ {
		if _, err := svc.Issue(club, coach.Email); err != nil {
			t.Fatalf("Issue #%d: %v", i+1, err)
		}
	}

	var invites []models.ClubInvite
	svc.db.Where("club_id = ?", club.ID).Find(&invites)
	if len(invites) != 2 {
		t.Fatalf("invite rows = %d, want 2", len(invites))
	}

	for _, inv := range invites {
		if _, err := svc.Accept(inv.Token, coach.ID, coach.Email); err != nil {
			t.Fatalf("Accept token %s: %v", inv.Token, err)
		}
	}

	var members int64
	svc.db.Model(&models.ClubMember{}).Where("club_id = ? AND user_id = ?", club.ID, coach.ID).Count(&members)
	if members != 1 {
		t.Errorf("membership rows = %d, want exactly 1", members)
	}
}

func TestConcurrentAccept(t *testing.T) {
	svc, plans := newTestInviteService(t)
	owner := seedUser(t, svc.db, "owner@example.com")
	club := seedClub(t, svc.db, plans, owner.ID, "Riverside FC")
	coach := seedUser(t, svc.db, "coach@example.com")

	if _, err := svc.Issue(club, coach.Email); err != nil {
		t.Fatalf("Issue: %v", err)
	}
	var invite models.ClubInvite
	svc.db.Where("club_id = ?", club.ID).First(&invite)

	const racers = 8
	var wg sync.WaitGroup
	results := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = svc.Accept(invite.Token, coach.ID, coach.Email)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
		} else if !errors.Is(err, ErrInviteNotFound) {
			// Losers may observe the consumed invite; anything else is a bug.
			t.Errorf("unexpected accept error: %v", err)
		}
	}
	if succeeded == 0 {
		t.Fatal("no accept succeeded")
	}

	var members int64
	svc.db.Model(&models.ClubMember{}).Where("club_id = ? AND user_id = ?", club.ID, coach.ID).Count(&members)
	if members != 1 {
		t.Errorf("membership rows = %d, want exactly 1", members)
	}
}

func TestSeatLimit(t *testing.T) {
	svc, plans := newTestInviteService(t)
	owner := seedUser(t, svc.db, "owner@example.com")
	club := seedClub(t, svc.db, plans, owner.ID, "Riverside FC")

	// Free plan: 3 coach seats. The owner does not consume one.
	for i := 0; i < 3; i++ {
		if _, err := svc.Issue(club, "coach"+string(rune('a'+i))+"@example.com"); err != nil {
			t.Fatalf("Issue #%d: %v", i+1, err)
		}
	}

	if _, err := svc.Issue(club, "coachd@example.com"); !errors.Is(err, ErrSeatLimitReached) {
		t.Fatalf("Issue over limit = %v, want ErrSeatLimitReached", err)
	}

	used, err := svc.SeatsUsed(club.ID)
	if err != nil {
		t.Fatalf("SeatsUsed: %v", err)
	}
	if used != 3 {
		t.Errorf("SeatsUsed = %d, want 3", used)
	}

	// Expired invites stop counting against the limit.
	svc.now = func() time.Time { return time.Now().Add(testConfig().InviteExpiry + time.Hour) }
	if _, err := svc.Issue(club, "coachd@example.com"); err != nil {
		t.Errorf("Issue after invites expired: %v", err)
	}
}

func TestRevoke(t *testing.T) {
	svc, plans := newTestInviteService(t)
	owner := seedUser(t, svc.db, "owner@example.com")
	club := seedClub(t, svc.db, plans, owner.ID, "Riverside FC")

	issued, err := svc.Issue(club, "coach@example.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	var invite models.ClubInvite
	svc.db.First(&invite, "id = ?", issued.ID)

	if err := svc.Revoke(club.ID, issued.ID); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if err := svc.Revoke(club.ID, issued.ID); !errors.Is(err, ErrInviteNotFound) {
		t.Errorf("second Revoke = %v, want ErrInviteNotFound", err)
	}

	coach := seedUser(t, svc.db, "coach@example.com")
	if _, err := svc.Accept(invite.Token, coach.ID, coach.Email); !errors.Is(err, ErrInviteNotFound) {
		t.Errorf("Accept after revoke = %v, want ErrInviteNotFound", err)
	}
}

func TestPublicInfo(t *testing.T) {
	svc, plans := newTestInviteService(t)
	owner := seedUser(t, svc.db, "owner@example.com")
	club := seedClub(t, svc.db, plans, owner.ID, "Riverside FC")

	if _, err := svc.Issue(club, "coach@example.com"); err != nil {
		t.Fatalf("Issue: %v", err)
	}
	var invite models.ClubInvite
	svc.db.Where("club_id = ?", club.ID).First(&invite)

	// No profile row: the inviter name falls back to the generic label.
	info, err := svc.PublicInfo(invite.Token)
	if err != nil {
		t.Fatalf("PublicInfo: %v", err)
	}
	if info.ClubName != "Riverside FC" || info.InvitedEmail != "coach@example.com" {
		t.Errorf("unexpected info: %+v", info)
	}
	if info.InviterName != "The club owner" {
		t.Errorf("inviter name = %q, want fallback", info.InviterName)
	}

	if err := svc.db.Create(&models.Profile{ID: owner.ID, Email: owner.Email, FullName: "Alex Owner"}).Error; err != nil {
		t.Fatalf("failed to create profile: %v", err)
	}
	info, err = svc.PublicInfo(invite.Token)
	if err != nil {
		t.Fatalf("PublicInfo: %v", err)
	}
	if info.InviterName != "Alex Owner" {
		t.Errorf("inviter name = %q, want profile name", info.InviterName)
	}
}

func TestMembersPage(t *testing.T) {
	svc, plans := newTestInviteService(t)
	owner := seedUser(t, svc.db, "owner@example.com")
	club := seedClub(t, svc.db, plans, owner.ID, "Riverside FC")

	if _, err := svc.Issue(club, "coach@example.com"); err != nil {
		t.Fatalf("Issue: %v", err)
	}

	page, err := svc.MembersPage(club)
	if err != nil {
		t.Fatalf("MembersPage: %v", err)
	}
	if len(page.Members) != 1 || page.Members[0].Role != models.RoleOwner {
		t.Errorf("members = %+v, want just the owner", page.Members)
	}
	if page.Members[0].Email != owner.Email {
		t.Errorf("member email = %q, want user-row fallback %q", page.Members[0].Email, owner.Email)
	}
	if len(page.Invites) != 1 {
		t.Errorf("invites = %d, want 1", len(page.Invites))
	}
	if page.SeatsUsed != 1 || page.MaxCoaches != 3 || !page.CanInvite {
		t.Errorf("seats: used=%d max=%d canInvite=%v", page.SeatsUsed, page.MaxCoaches, page.CanInvite)
	}
}
