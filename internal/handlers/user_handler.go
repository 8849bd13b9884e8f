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

// UserHandler handles the admin-only user directory endpoints.
type UserHandler struct {
	directoryService *services.DirectoryService
	validate         *validator.Validate
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(directoryService *services.DirectoryService) *UserHandler {
	return &UserHandler{
		directoryService: directoryService,
		validate:         newValidator(),
	}
}

// RegisterRoutes registers the user routes; every one of them is admin-only.
func (h *UserHandler) RegisterRoutes(router fiber.Router, authRequired fiber.Handler) {
	userRoutes := router.Group("/users", authRequired, middleware.RequireRoles(models.RoleAdmin))
	userRoutes.Get("/dashboard-stats", h.HandleDashboardStats)
	userRoutes.Post("/repair-store-links", h.HandleRepairStoreLinks)
	userRoutes.Post("/", h.HandleCreateUser)
	userRoutes.Get("/", h.HandleGetUsers)
	userRoutes.Get("/:id", h.HandleGetUserByID)
}

// HandleDashboardStats returns the platform-wide totals for the admin
// dashboard.
func (h *UserHandler) HandleDashboardStats(c *fiber.Ctx) error {
	stats, err := h.directoryService.GetDashboardStats()
	if err != nil {
		log.Printf("Error getting dashboard stats: %v", err)
		return serviceError(c, err, "Could not retrieve dashboard stats")
	}
	return c.JSON(stats)
}

// CreateUserRequest represents the request body for admin user creation.
// The store fields apply only to store_owner accounts.
type CreateUserRequest struct {
	Name     string `json:"name" validate:"required,min=20,max=60"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=16,strongpw"`
	Address  string `json:"address" validate:"max=400"`
	Role     string `json:"role" validate:"omitempty,oneof=admin user store_owner"`

	StoreName    string `json:"storeName" validate:"omitempty,min=20,max=60"`
	StoreEmail   string `json:"storeEmail" validate:"omitempty,email"`
	StoreAddress string `json:"storeAddress" validate:"omitempty,max=400"`
}

// HandleCreateUser creates an account with any role. A store_owner with
// store fields goes through the transactional store-and-link flow.
func (h *UserHandler) HandleCreateUser(c *fiber.Ctx) error {
	var req CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing create-user request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}

	user, err := h.directoryService.CreateUser(services.CreateUserInput{
		Name:         req.Name,
		Email:        req.Email,
		Password:     req.Password,
		Address:      req.Address,
		Role:         req.Role,
		StoreName:    req.StoreName,
		StoreEmail:   req.StoreEmail,
		StoreAddress: req.StoreAddress,
	})
	if err != nil {
		log.Printf("Error creating user: %v", err)
		return serviceError(c, err, "Could not create user")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User created successfully",
		"user":    user,
	})
}

// HandleGetUsers lists users with the standard substring filters.
func (h *UserHandler) HandleGetUsers(c *fiber.Ctx) error {
	filters := repositories.UserFilters{
		Name:    c.Query("name"),
		Email:   c.Query("email"),
		Address: c.Query("address"),
		Role:    c.Query("role"),
	}

	users, err := h.directoryService.ListUsers(filters)
	if err != nil {
		log.Printf("Error listing users: %v", err)
		return serviceError(c, err, "Could not retrieve users")
	}
	return c.JSON(users)
}

// HandleGetUserByID returns a single user.
func (h *UserHandler) HandleGetUserByID(c *fiber.Ctx) error {
	userID := c.Params("id")
	user, err := h.directoryService.GetUser(userID)
	if err != nil {
		log.Printf("Error getting user %s: %v", userID, err)
		return serviceError(c, err, "Could not retrieve user")
	}
	return c.JSON(user)
}

// HandleRepairStoreLinks runs the idempotent linkage repair sweep and
// reports what it examined, fixed and could not resolve.
func (h *UserHandler) HandleRepairStoreLinks(c *fiber.Ctx) error {
	report, err := h.directoryService.RepairStoreLinks()
	if err != nil {
		log.Printf("Error repairing store links: %v", err)
		return serviceError(c, err, "Could not repair store links")
	}
	return c.JSON(fiber.Map{
		"message": "Repair sweep completed",
		"report":  report,
	})
}
