package handlers

import (
	"log"

	"ratehub/internal/middleware"
	"ratehub/internal/models"
	"ratehub/internal/repositories"
	"ratehub/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// StoreHandler handles HTTP requests for the store directory and the
// store-owner analytics view.
type StoreHandler struct {
	directoryService *services.DirectoryService
	ratingService    *services.RatingService
	validate         *validator.Validate
}

// NewStoreHandler creates a new StoreHandler.
func NewStoreHandler(directoryService *services.DirectoryService, ratingService *services.RatingService) *StoreHandler {
	return &StoreHandler{
		directoryService: directoryService,
		ratingService:    ratingService,
		validate:         newValidator(),
	}
}

// RegisterRoutes registers the store routes. All of them require a token;
// creation is admin-only and the owner dashboard is store_owner-only.
// The owner route must be registered before the :id route.
func (h *StoreHandler) RegisterRoutes(router fiber.Router, authRequired fiber.Handler) {
	storeRoutes := router.Group("/stores", authRequired)
	storeRoutes.Post("/", middleware.RequireRoles(models.RoleAdmin), h.HandleCreateStore)
	storeRoutes.Get("/", h.HandleGetStores)
	storeRoutes.Get("/owner/ratings", middleware.RequireRoles(models.RoleStoreOwner), h.HandleMyRatings)
	storeRoutes.Get("/:id", h.HandleGetStoreByID)
}

// CreateStoreRequest represents the request body for store creation. Owner
// credentials are optional unless the deployment requires them.
type CreateStoreRequest struct {
	Name          string `json:"name" validate:"required,min=20,max=60"`
	Email         string `json:"email" validate:"required,email"`
	Address       string `json:"address" validate:"max=400"`
	OwnerEmail    string `json:"ownerEmail" validate:"omitempty,email"`
	OwnerPassword string `json:"ownerPassword" validate:"omitempty,min=8,max=16,strongpw"`
}

// HandleCreateStore creates a store and, when owner credentials are present,
// its linked owner account.
func (h *StoreHandler) HandleCreateStore(c *fiber.Ctx) error {
	var req CreateStoreRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing create-store request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}
	if req.OwnerEmail != "" && req.OwnerPassword == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "ownerPassword is required when ownerEmail is provided",
		})
	}

	store, owner, err := h.directoryService.CreateStore(services.CreateStoreInput{
		Name:          req.Name,
		Email:         req.Email,
		Address:       req.Address,
		OwnerEmail:    req.OwnerEmail,
		OwnerPassword: req.OwnerPassword,
	})
	if err != nil {
		log.Printf("Error creating store: %v", err)
		return serviceError(c, err, "Could not create store")
	}

	response := fiber.Map{
		"message": "Store created successfully",
		"store":   store,
	}
	if owner != nil {
		response["owner"] = fiber.Map{
			"id":    owner.ID,
			"email": owner.Email,
		}
	}
	return c.Status(fiber.StatusCreated).JSON(response)
}

// HandleGetStores lists stores with their average rating and, for callers
// with the user role, the caller's own rating per store.
func (h *StoreHandler) HandleGetStores(c *fiber.Ctx) error {
	filters := repositories.StoreFilters{
		Name:    c.Query("name"),
		Email:   c.Query("email"),
		Address: c.Query("address"),
	}
	sort := repositories.StoreSort{
		Field: c.Query("sortBy", "name"),
		Order: c.Query("sortOrder", "asc"),
	}

	viewerID := ""
	if role, _ := c.Locals("role").(string); role == string(models.RoleUser) {
		viewerID, _ = c.Locals("user_id").(string)
	}

	stores, err := h.directoryService.ListStores(filters, sort, viewerID)
	if err != nil {
		log.Printf("Error listing stores: %v", err)
		return serviceError(c, err, "Could not retrieve stores")
	}
	return c.JSON(stores)
}

// HandleGetStoreByID returns a single store with its ratings and average.
func (h *StoreHandler) HandleGetStoreByID(c *fiber.Ctx) error {
	storeID := c.Params("id")
	store, err := h.directoryService.GetStore(storeID)
	if err != nil {
		log.Printf("Error getting store %s: %v", storeID, err)
		return serviceError(c, err, "Could not retrieve store")
	}

	ratings, err := h.ratingService.ListForStore(storeID)
	if err != nil {
		log.Printf("Error listing ratings for store %s: %v", storeID, err)
		return serviceError(c, err, "Could not retrieve store ratings")
	}
	average, err := h.ratingService.AverageFor(storeID)
	if err != nil {
		log.Printf("Error computing average for store %s: %v", storeID, err)
		return serviceError(c, err, "Could not retrieve store ratings")
	}

	return c.JSON(fiber.Map{
		"store":         store,
		"ratings":       ratings,
		"averageRating": average,
		"totalRatings":  len(ratings),
	})
}

// HandleMyRatings returns the owner dashboard for the caller's own store,
// resolved from the token.
func (h *StoreHandler) HandleMyRatings(c *fiber.Ctx) error {
	storeID, _ := c.Locals("store_id").(string)
	if storeID == "" {
		log.Printf("Store owner %v has no store link in token", c.Locals("user_id"))
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Store not linked to this owner. Please contact admin.",
		})
	}

	dashboard, err := h.ratingService.Dashboard(storeID)
	if err != nil {
		log.Printf("Error building owner dashboard for store %s: %v", storeID, err)
		return serviceError(c, err, "Could not retrieve store ratings")
	}
	return c.JSON(dashboard)
}
