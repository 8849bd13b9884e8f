package handlers

import (
	"log"

	"ratehub/internal/middleware"
	"ratehub/internal/models"
	"ratehub/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// RatingHandler handles HTTP requests for rating submission.
type RatingHandler struct {
	ratingService *services.RatingService
	validate      *validator.Validate
}

// NewRatingHandler creates a new RatingHandler.
func NewRatingHandler(ratingService *services.RatingService) *RatingHandler {
	return &RatingHandler{
		ratingService: ratingService,
		validate:      newValidator(),
	}
}

// RegisterRoutes registers the rating routes. Only the user role may submit.
func (h *RatingHandler) RegisterRoutes(router fiber.Router, authRequired fiber.Handler) {
	ratingRoutes := router.Group("/ratings", authRequired)
	ratingRoutes.Post("/", middleware.RequireRoles(models.RoleUser), h.HandleSubmitRating)
}

// SubmitRatingRequest represents the request body for a rating submission.
type SubmitRatingRequest struct {
	StoreID string `json:"storeId" validate:"required"`
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
}

// HandleSubmitRating upserts the caller's rating for a store and returns the
// store's new average.
func (h *RatingHandler) HandleSubmitRating(c *fiber.Ctx) error {
	var req SubmitRatingRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing rating request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}

	userID, _ := c.Locals("user_id").(string)
	rating, average, err := h.ratingService.Submit(userID, req.StoreID, req.Rating)
	if err != nil {
		log.Printf("Error submitting rating for store %s: %v", req.StoreID, err)
		return serviceError(c, err, "Could not submit rating")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Rating submitted successfully",
		"rating":  rating,
		"store": fiber.Map{
			"id":            req.StoreID,
			"averageRating": average,
		},
	})
}
