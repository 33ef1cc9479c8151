package services

import (
	"testing"
	"time"

	"github.com/clubcal/clubcal-backend/internal/config"
	"github.com/clubcal/clubcal-backend/internal/database"
	"github.com/clubcal/clubcal-backend/internal/dto"
	"github.com/clubcal/clubcal-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	// One connection keeps the in-memory database alive and shared across
	// goroutines.
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:        "test-secret",
		JWTAccessExpiry:  15 * time.Minute,
		JWTRefreshExpiry: 168 * time.Hour,
		InviteExpiry:     168 * time.Hour,
		AppBaseURL:       "http://localhost:3000",
	}
}

func seedUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := models.User{ID: uuid.New(), Email: email, Password: "x"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to seed user %s: %v", email, err)
	}
	return &user
}

// seedClub creates a club through the service so the owner membership and
// free subscription come with it. Plans must already be seeded.
func seedClub(t *testing.T, db *gorm.DB, plans *PlanService, ownerID uuid.UUID, name string) *models.Club {
	t.Helper()
	clubs := NewClubService(db, plans)
	club, err := clubs.Create(ownerID, &dto.CreateClubRequest{Name: name})
	if err != nil {
		t.Fatalf("failed to seed club %s: %v", name, err)
	}
	return club
}

func seededPlans(t *testing.T, db *gorm.DB) *PlanService {
	t.Helper()
	plans := NewPlanService(db)
	if err := plans.Seed(); err != nil {
		t.Fatalf("failed to seed plans: %v", err)
	}
	return plans
}
