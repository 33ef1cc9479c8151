package services

import (
	"errors"
	"testing"

	"github.com/clubcal/clubcal-backend/internal/dto"
	"github.com/clubcal/clubcal-backend/internal/models"
)

func newTestAuthService(t *testing.T) *AuthService {
	t.Helper()
	return NewAuthService(testDB(t), testConfig())
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newTestAuthService(t)

	resp, err := svc.Register(&dto.RegisterRequest{
		Email: "  Owner@Example.COM ", Password: "correct horse", FullName: "Alex Owner",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if resp.User.Email != "owner@example.com" {
		t.Errorf("email = %q, want normalized lowercase", resp.User.Email)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Error("token pair missing")
	}

	if _, err := svc.Register(&dto.RegisterRequest{Email: "owner@example.com", Password: "correct horse"}); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("duplicate register = %v, want ErrEmailTaken", err)
	}
	if _, err := svc.Register(&dto.RegisterRequest{Email: "short@example.com", Password: "short"}); err == nil {
		t.Error("short password accepted")
	}

	login, err := svc.Login(&dto.LoginRequest{Email: "OWNER@example.com", Password: "correct horse"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if login.User.FullName != "Alex Owner" {
		t.Errorf("login full name = %q", login.User.FullName)
	}

	if _, err := svc.Login(&dto.LoginRequest{Email: "owner@example.com", Password: "wrong"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password = %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.Login(&dto.LoginRequest{Email: "nobody@example.com", Password: "whatever"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email = %v, want ErrInvalidCredentials", err)
	}
}

func TestRefreshRotation(t *testing.T) {
	svc := newTestAuthService(t)

	reg, err := svc.Register(&dto.RegisterRequest{Email: "owner@example.com", Password: "correct horse"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	refreshed, err := svc.Refresh(&dto.RefreshRequest{RefreshToken: reg.RefreshToken})
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if refreshed.RefreshToken == reg.RefreshToken {
		t.Error("refresh token was not rotated")
	}

	// The old token is revoked after rotation.
	if _, err := svc.Refresh(&dto.RefreshRequest{RefreshToken: reg.RefreshToken}); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("reused token = %v, want ErrInvalidToken", err)
	}

	if err := svc.Logout(&dto.LogoutRequest{RefreshToken: refreshed.RefreshToken}); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := svc.Refresh(&dto.RefreshRequest{RefreshToken: refreshed.RefreshToken}); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("token after logout = %v, want ErrInvalidToken", err)
	}
}

func TestDeleteAccount(t *testing.T) {
	svc := newTestAuthService(t)
	plans := seededPlans(t, svc.db)

	reg, err := svc.Register(&dto.RegisterRequest{Email: "owner@example.com", Password: "correct horse"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	userID := reg.User.ID

	if err := svc.DeleteAccount(userID, "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password = %v, want ErrInvalidCredentials", err)
	}

	// Owning a club blocks deletion.
	club := seedClub(t, svc.db, plans, userID, "Riverside FC")
	if err := svc.DeleteAccount(userID, "correct horse"); !errors.Is(err, ErrOwnsClubs) {
		t.Errorf("owner delete = %v, want ErrOwnsClubs", err)
	}

	if err := svc.db.Delete(&models.Club{}, "id = ?", club.ID).Error; err != nil {
		t.Fatalf("failed to drop club: %v", err)
	}
	if err := svc.DeleteAccount(userID, "correct horse"); err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}

	if _, err := svc.Me(userID); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Me after delete = %v, want ErrUserNotFound", err)
	}
	var tokens int64
	svc.db.Model(&models.RefreshToken{}).Where("user_id = ?", userID).Count(&tokens)
	if tokens != 0 {
		t.Errorf("refresh tokens after delete = %d, want 0", tokens)
	}
}
