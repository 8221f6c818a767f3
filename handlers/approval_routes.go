// handlers/approval_routes.go
package handlers

import (
	"errors"

	"coach-trust-system/middleware"
	"coach-trust-system/models"
	"coach-trust-system/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func approvalStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrOrgNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrInvalidTrack),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrUnknownDocument):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func SetupApprovalRoutes(app *fiber.App, approvalService *services.ApprovalService) {
	adminGroup := app.Group("/s/admin", middleware.UserContextMiddleware(), middleware.RequireRole("admin"))

	// Which reviewer may write which track is decided at the gateway/roles
	// layer; this service records whichever reviewer id arrives.
	adminGroup.Post("/orgs/:id/review", func(c *fiber.Ctx) error {
		orgID := c.Params("id")
		if _, err := uuid.Parse(orgID); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid organization ID"})
		}

		var req struct {
			Track  models.ReviewTrack  `json:"track"`
			Status models.ReviewStatus `json:"status"`
			Note   string              `json:"note"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}

		reviewerID := c.Locals("user_id").(string)

		res, err := approvalService.Submit(orgID, req.Track, req.Status, reviewerID, req.Note)
		if err != nil {
			return c.Status(approvalStatus(err)).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(res)
	})

	adminGroup.Post("/orgs/:id/documents", func(c *fiber.Ctx) error {
		orgID := c.Params("id")
		if _, err := uuid.Parse(orgID); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid organization ID"})
		}

		var req struct {
			Name  string `json:"name"`
			Value bool   `json:"value"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}

		res, err := approvalService.SetDocumentFlag(orgID, req.Name, req.Value)
		if err != nil {
			return c.Status(approvalStatus(err)).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"ok": true, "final_status": res.FinalStatus, "ready_to_post": res.ReadyToPost})
	})

	// Host callback once OTP state changes — ready_to_post can flip without
	// any reviewer touching a track.
	adminGroup.Post("/orgs/:id/contact-verification", func(c *fiber.Ctx) error {
		orgID := c.Params("id")
		if _, err := uuid.Parse(orgID); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid organization ID"})
		}

		var req struct {
			PhoneVerified bool `json:"phone_verified"`
			EmailVerified bool `json:"email_verified"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}

		res, err := approvalService.RefreshContactFlags(orgID, req.PhoneVerified, req.EmailVerified)
		if err != nil {
			return c.Status(approvalStatus(err)).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(res)
	})

	adminGroup.Get("/orgs/:id/review", func(c *fiber.Ctx) error {
		orgID := c.Params("id")
		if _, err := uuid.Parse(orgID); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid organization ID"})
		}

		rec, err := approvalService.GetReview(orgID)
		if err != nil {
			return c.Status(approvalStatus(err)).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(rec)
	})
}
