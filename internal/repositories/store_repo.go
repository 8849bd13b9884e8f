package repositories

import "ratehub/internal/models"

// StoreFilters are optional case-insensitive substring filters for store listings.
type StoreFilters struct {
	Name    string
	Email   string
	Address string
}

// StoreSort selects the listing order. Field must be one of the allow-listed
// sortable fields; anything else falls back to name ascending.
type StoreSort struct {
	Field string
	Order string
}

// StoreRepository defines the interface for store data access.
type StoreRepository interface {
	Create(store *models.Store) error
	// CreateWithOwner creates the owner user and the store and links them
	// bidirectionally inside a single transaction.
	CreateWithOwner(store *models.Store, owner *models.User) error
	GetByEmail(email string) (*models.Store, error)
	GetByID(id string) (*models.Store, error)
	GetByOwnerID(ownerID string) (*models.Store, error)
	GetAll(filters StoreFilters, sort StoreSort) ([]models.Store, error)
	SetOwner(id string, ownerID string) error
	Count() (int64, error)
}
