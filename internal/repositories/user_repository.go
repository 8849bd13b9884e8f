package repositories

import "ratehub/internal/models"

// UserFilters are optional case-insensitive substring filters for user listings.
type UserFilters struct {
	Name    string
	Email   string
	Address string
	Role    string
}

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(user *models.User) error
	GetByEmail(email string) (*models.User, error)
	GetByID(id string) (*models.User, error)
	GetAll(filters UserFilters) ([]models.User, error)
	GetByRole(role models.Role) ([]models.User, error)
	UpdatePassword(id string, hashedPassword string) error
	UpdateStoreID(id string, storeID string) error
	Count() (int64, error)
}
