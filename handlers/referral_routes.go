// handlers/referral_routes.go
package handlers

import (
	"errors"

	"coach-trust-system/middleware"
	"coach-trust-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupReferralRoutes(app *fiber.App, referralService *services.ReferralService, ledgerService *services.LedgerService) {
	securedGroup := app.Group("/s", middleware.UserContextMiddleware())

	securedGroup.Get("/user/referral", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		stats, err := referralService.GetStats(userID)
		if err != nil {
			if errors.Is(err, services.ErrUserNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to get referral stats",
				"cause": err.Error(),
			})
		}
		return c.JSON(stats)
	})

	// Manual claim retry — the same path the reconciliation sweep takes.
	securedGroup.Post("/user/referral/claim", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		res, err := referralService.Award(userID)
		if err != nil {
			if errors.Is(err, services.ErrUserNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "referral claim failed",
				"cause": err.Error(),
			})
		}
		return c.JSON(res)
	})

	securedGroup.Get("/user/rewards", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		limit := c.QueryInt("limit", 50)

		grants, err := ledgerService.GetUserGrants(userID, limit)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch rewards"})
		}
		return c.JSON(grants)
	})

	// Admin endpoints
	adminGroup := app.Group("/s/admin", middleware.UserContextMiddleware(), middleware.RequireRole("admin"))

	adminGroup.Post("/rewards/grant", func(c *fiber.Ctx) error {
		var req struct {
			UserID    string `json:"user_id"`
			ActionKey string `json:"action_key"`
			Points    int64  `json:"points"`
			Coins     int64  `json:"coins"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}
		if req.UserID == "" || req.ActionKey == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "user_id and action_key are required"})
		}

		res, err := ledgerService.Grant(req.UserID, req.ActionKey, req.Points, req.Coins)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrEmptyGrant), errors.Is(err, services.ErrNegativeGrant):
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
			case errors.Is(err, services.ErrUserNotFound):
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
			default:
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "grant failed",
					"cause": err.Error(),
				})
			}
		}
		return c.JSON(res)
	})
}
