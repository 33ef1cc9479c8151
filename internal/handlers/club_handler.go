package handlers

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/clubcal/clubcal-backend/internal/config"
	"github.com/clubcal/clubcal-backend/internal/dto"
	"github.com/clubcal/clubcal-backend/internal/httpauth"
	"github.com/clubcal/clubcal-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type ClubHandler struct {
	clubService *services.ClubService
	planService *services.PlanService
	cfg         *config.Config
}

func NewClubHandler(clubService *services.ClubService, planService *services.PlanService, cfg *config.Config) *ClubHandler {
	return &ClubHandler{clubService: clubService, planService: planService, cfg: cfg}
}

func (h *ClubHandler) Create(c *fiber.Ctx) error {
	userID, err := httpauth.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.CreateClubRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	club, err := h.clubService.Create(userID, &req)
	if err != nil {
		if errors.Is(err, services.ErrSlugTaken) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		if errors.Is(err, services.ErrNameRequired) {
			return badRequest(c, err.Error())
		}
		return storeFailure(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(services.ClubResponse(club, "owner"))
}

func (h *ClubHandler) List(c *fiber.Ctx) error {
	userID, err := httpauth.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	clubs, err := h.clubService.ListForUser(userID)
	if err != nil {
		return storeFailure(c, err)
	}
	return c.JSON(clubs)
}

func (h *ClubHandler) Get(c *fiber.Ctx) error {
	userID, err := httpauth.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	club, role, err := h.clubService.GetForUser(c.Params("slug"), userID)
	if err != nil {
		return clubError(c, err)
	}
	return c.JSON(services.ClubResponse(club, role))
}

func (h *ClubHandler) Update(c *fiber.Ctx) error {
	userID, err := httpauth.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	club, err := h.clubService.GetForOwner(c.Params("slug"), userID)
	if err != nil {
		return clubError(c, err)
	}

	var req dto.UpdateClubRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if err := h.clubService.Update(club, &req); err != nil {
		return storeFailure(c, err)
	}
	return c.JSON(services.ClubResponse(club, "owner"))
}

// UploadLogo saves the club logo under the uploads dir (served at /uploads)
// and records its URL on the club row.
func (h *ClubHandler) UploadLogo(c *fiber.Ctx) error {
	userID, err := httpauth.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	club, err := h.clubService.GetForOwner(c.Params("slug"), userID)
	if err != nil {
		return clubError(c, err)
	}

	file, err := c.FormFile("logo")
	if err != nil {
		return badRequest(c, "A logo file is required")
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext != ".png" && ext != ".jpg" && ext != ".jpeg" {
		return badRequest(c, "Logo must be a PNG or JPEG image")
	}

	dir := filepath.Join(h.cfg.UploadDir, club.ID.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return storeFailure(c, err)
	}

	dest := filepath.Join(dir, "logo"+ext)
	if err := c.SaveFile(file, dest); err != nil {
		return storeFailure(c, err)
	}

	logoURL := "/uploads/" + club.ID.String() + "/logo" + ext
	if err := h.clubService.SetLogoURL(club, logoURL); err != nil {
		return storeFailure(c, err)
	}

	return c.JSON(fiber.Map{"logo_url": logoURL})
}

func (h *ClubHandler) Plan(c *fiber.Ctx) error {
	userID, err := httpauth.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	club, err := h.clubService.GetForOwner(c.Params("slug"), userID)
	if err != nil {
		return clubError(c, err)
	}

	plan, err := h.planService.PlanPage(club.ID)
	if err != nil {
		return storeFailure(c, err)
	}
	return c.JSON(plan)
}

// clubError maps the shared club-access errors to status codes.
func clubError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrClubNotFound), errors.Is(err, services.ErrNotMember):
		// Non-members get the same 404 as a missing club: membership is not
		// disclosed through status codes.
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Club not found",
		})
	case errors.Is(err, services.ErrNotOwner):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	default:
		return storeFailure(c, err)
	}
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error: true, Message: "Unauthorized",
	})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error: true, Message: msg,
	})
}

// storeFailure surfaces the backend error message when available.
func storeFailure(c *fiber.Ctx, err error) error {
	msg := "Internal server error"
	if err != nil {
		msg = err.Error()
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Error: true, Message: msg,
	})
}
