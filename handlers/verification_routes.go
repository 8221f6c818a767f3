// handlers/verification_routes.go
package handlers

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strconv"

	"coach-trust-system/middleware"
	"coach-trust-system/models"
	"coach-trust-system/services"
	"coach-trust-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// verificationStatus maps the expected domain outcomes to HTTP codes.
// Everything here is a normal client-visible state; only unknown errors
// surface as 500.
func verificationStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidStage),
		errors.Is(err, services.ErrUnknownRequirement),
		errors.Is(err, services.ErrInvalidLanguage):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrStageNotCurrent):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrContactNotVerified):
		return fiber.StatusForbidden
	case errors.Is(err, services.ErrUserNotFound):
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

func SetupVerificationRoutes(app *fiber.App, verificationService *services.VerificationService) {
	// Requirement sets are static config — no user context needed.
	app.Get("/verification/stages/:stage/requirements", func(c *fiber.Ctx) error {
		stage, err := strconv.Atoi(c.Params("stage"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid stage"})
		}
		names, err := verificationService.ListRequirements(stage)
		if err != nil {
			return c.Status(verificationStatus(err)).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{
			"stage":        stage,
			"requirements": names,
		})
	})

	securedGroup := app.Group("/s", middleware.UserContextMiddleware())

	securedGroup.Get("/user/verification/progress", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		progress, err := verificationService.GetProgress(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to get progress",
				"cause": err.Error(),
			})
		}
		return c.JSON(progress)
	})

	securedGroup.Get("/user/verification/stages/:stage", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		stage, err := strconv.Atoi(c.Params("stage"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid stage"})
		}

		score, max, err := verificationService.EvaluateStage(userID, stage)
		if err != nil {
			return c.Status(verificationStatus(err)).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{
			"stage":     stage,
			"score":     score,
			"max_score": max,
		})
	})

	securedGroup.Post("/user/verification/requirements", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var req struct {
			Stage       int    `json:"stage"`
			Name        string `json:"name"`
			EvidenceRef string `json:"evidence_ref"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}

		if err := verificationService.RecordRequirement(userID, req.Stage, req.Name, req.EvidenceRef); err != nil {
			return c.Status(verificationStatus(err)).JSON(fiber.Map{"error": err.Error()})
		}

		score, max, _ := verificationService.EvaluateStage(userID, req.Stage)
		return c.JSON(fiber.Map{
			"ok":        true,
			"stage":     req.Stage,
			"score":     score,
			"max_score": max,
		})
	})

	securedGroup.Post("/user/verification/stages/:stage/complete", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		stage, err := strconv.Atoi(c.Params("stage"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid stage"})
		}

		res, err := verificationService.CompleteStage(userID, stage)
		if err != nil {
			return c.Status(verificationStatus(err)).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(res)
	})

	securedGroup.Post("/user/verification/handle", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var req struct {
			Handle      string `json:"handle"`
			DisplayName string `json:"display_name"`
		}
		if err := c.BodyParser(&req); err != nil || req.Handle == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "handle is required"})
		}
		if req.DisplayName == "" {
			req.DisplayName = req.Handle
		}

		pageSlug, err := verificationService.CreateHandle(userID, req.Handle, req.DisplayName)
		if err != nil {
			return c.Status(verificationStatus(err)).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"slug": pageSlug})
	})

	securedGroup.Post("/user/verification/language", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var req struct {
			Language string `json:"language"`
		}
		if err := c.BodyParser(&req); err != nil || req.Language == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "language is required"})
		}

		normalized, err := verificationService.SetPreferredLanguage(userID, req.Language)
		if err != nil {
			return c.Status(verificationStatus(err)).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"language": normalized})
	})

	securedGroup.Post("/user/verification/documents", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		documentType := c.FormValue("document_type")
		if documentType == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "document_type is required"})
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file is required"})
		}

		key := fmt.Sprintf("evidence/%s/%s%s", userID, uuid.NewString(), filepath.Ext(fileHeader.Filename))

		var fileURL string
		if utils.R2Enabled() {
			fileURL, err = utils.UploadEvidenceToR2(fileHeader, key)
		} else {
			fileURL, err = utils.SaveEvidenceLocally(fileHeader, key)
		}
		if err != nil {
			log.Printf("Evidence upload failed for %s: %v", userID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to store document"})
		}

		doc, err := verificationService.RecordEvidenceUpload(
			userID, documentType, key, fileURL, fileHeader.Filename, fileHeader.Size,
		)
		if err != nil {
			// Document stored; the requirement could not be recorded (e.g. gating).
			return c.Status(verificationStatus(err)).JSON(fiber.Map{
				"error":    err.Error(),
				"document": doc,
			})
		}
		return c.Status(fiber.StatusCreated).JSON(doc)
	})

	securedGroup.Get("/user/verification/documents", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var docs []models.EvidenceDocument
		if err := verificationService.DB.
			Where("external_user_id = ?", userID).
			Order("uploaded_at DESC").
			Find(&docs).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch documents"})
		}
		return c.JSON(docs)
	})
}
