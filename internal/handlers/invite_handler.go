package handlers

import (
	"errors"
	"time"

	"github.com/clubcal/clubcal-backend/internal/dto"
	"github.com/clubcal/clubcal-backend/internal/httpauth"
	"github.com/clubcal/clubcal-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type InviteHandler struct {
	inviteService *services.InviteService
	clubService   *services.ClubService
}

func NewInviteHandler(inviteService *services.InviteService, clubService *services.ClubService) *InviteHandler {
	return &InviteHandler{inviteService: inviteService, clubService: clubService}
}

// Members returns the owner-facing members page: members, pending invites
// and seat usage.
func (h *InviteHandler) Members(c *fiber.Ctx) error {
	userID, err := httpauth.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	club, err := h.clubService.GetForOwner(c.Params("slug"), userID)
	if err != nil {
		return clubError(c, err)
	}

	page, err := h.inviteService.MembersPage(club)
	if err != nil {
		return storeFailure(c, err)
	}
	return c.JSON(page)
}

// Issue creates a coach invitation. Owner only; seat-limited by plan.
func (h *InviteHandler) Issue(c *fiber.Ctx) error {
	userID, err := httpauth.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	club, err := h.clubService.GetForOwner(c.Params("slug"), userID)
	if err != nil {
		return clubError(c, err)
	}

	var req dto.IssueInviteRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	invite, err := h.inviteService.Issue(club, req.Email)
	if err != nil {
		if errors.Is(err, services.ErrEmailRequired) {
			return badRequest(c, err.Error())
		}
		if errors.Is(err, services.ErrSeatLimitReached) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return storeFailure(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(invite)
}

// Revoke deletes a still-pending invite before its expiry.
func (h *InviteHandler) Revoke(c *fiber.Ctx) error {
	userID, err := httpauth.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	club, err := h.clubService.GetForOwner(c.Params("slug"), userID)
	if err != nil {
		return clubError(c, err)
	}

	inviteID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid invite id")
	}

	if err := h.inviteService.Revoke(club.ID, inviteID); err != nil {
		if errors.Is(err, services.ErrInviteNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return storeFailure(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

// Info is the public pre-authentication invite view, keyed by token only.
func (h *InviteHandler) Info(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		return badRequest(c, "Missing token")
	}

	info, err := h.inviteService.PublicInfo(token)
	if err != nil {
		return inviteError(c, err)
	}
	return c.JSON(info)
}

// Accept admits the authenticated caller into the invite's club.
func (h *InviteHandler) Accept(c *fiber.Ctx) error {
	userID, err := httpauth.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	userEmail, err := httpauth.GetUserEmail(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.AcceptInviteRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Token == "" {
		return badRequest(c, "Missing token")
	}

	resp, err := h.inviteService.Accept(req.Token, userID, userEmail)
	if err != nil {
		return inviteError(c, err)
	}
	return c.JSON(resp)
}

// Remember stashes an invite token in a short-lived cookie so acceptance can
// resume after the sign-up detour.
func (h *InviteHandler) Remember(c *fiber.Ctx) error {
	var req dto.RememberInviteRequest
	if err := c.BodyParser(&req); err != nil || req.Token == "" {
		return badRequest(c, "Missing token")
	}

	c.Cookie(&fiber.Cookie{
		Name:     pendingInviteCookie,
		Value:    req.Token,
		Path:     "/",
		Expires:  time.Now().Add(15 * time.Minute),
		HTTPOnly: true,
		SameSite: "Lax",
	})
	return c.JSON(fiber.Map{"ok": true})
}

func inviteError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInviteNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Invitation not found or invalid",
		})
	case errors.Is(err, services.ErrInviteExpired):
		return c.Status(fiber.StatusGone).JSON(dto.ErrorResponse{
			Error: true, Message: "Invitation expired",
		})
	case errors.Is(err, services.ErrEmailMismatch):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: true, Message: "This invitation is for a different email address",
		})
	default:
		return storeFailure(c, err)
	}
}
