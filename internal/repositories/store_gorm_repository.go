package repositories

import (
	"fmt"
	"strings"

	"ratehub/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// storeSortColumns is the allow-list of fields the database can order by.
// Rating order is applied by the caller after aggregate annotation.
var storeSortColumns = map[string]string{
	"name":    "name",
	"email":   "email",
	"address": "address",
}

// GORMStoreRepository is a GORM implementation of StoreRepository.
type GORMStoreRepository struct {
	db *gorm.DB
}

// NewGORMStoreRepository creates a new instance of GORMStoreRepository.
func NewGORMStoreRepository(db *gorm.DB) *GORMStoreRepository {
	return &GORMStoreRepository{
		db: db,
	}
}

// Create creates a new store in the database.
func (r *GORMStoreRepository) Create(store *models.Store) error {
	if store.ID == "" {
		store.ID = uuid.New().String()
	}
	if err := r.db.Create(store).Error; err != nil {
		return fmt.Errorf("failed to create store: %w", err)
	}
	return nil
}

// CreateWithOwner creates the owner user and the store and links them
// bidirectionally in one transaction. Either both records exist fully
// linked afterwards or neither does.
func (r *GORMStoreRepository) CreateWithOwner(store *models.Store, owner *models.User) error {
	if owner.ID == "" {
		owner.ID = uuid.New().String()
	}
	if store.ID == "" {
		store.ID = uuid.New().String()
	}
	store.OwnerID = &owner.ID
	owner.StoreID = &store.ID
	owner.Role = models.RoleStoreOwner

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(owner).Error; err != nil {
			return fmt.Errorf("failed to create store owner: %w", err)
		}
		if err := tx.Create(store).Error; err != nil {
			return fmt.Errorf("failed to create store: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to create store with owner: %w", err)
	}
	return nil
}

// GetByEmail retrieves a store by its email (stored lower-cased).
func (r *GORMStoreRepository) GetByEmail(email string) (*models.Store, error) {
	var store models.Store
	if err := r.db.First(&store, "email = ?", strings.ToLower(email)).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("store with email %s: %w", email, gorm.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to get store by email %s: %w", email, err)
	}
	return &store, nil
}

// GetByID retrieves a store by its ID.
func (r *GORMStoreRepository) GetByID(id string) (*models.Store, error) {
	var store models.Store
	if err := r.db.First(&store, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("store with ID %s: %w", id, gorm.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to get store by ID %s: %w", id, err)
	}
	return &store, nil
}

// GetByOwnerID retrieves the store owned by the given user.
func (r *GORMStoreRepository) GetByOwnerID(ownerID string) (*models.Store, error) {
	var store models.Store
	if err := r.db.First(&store, "owner_id = ?", ownerID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("store owned by user %s: %w", ownerID, gorm.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to get store by owner %s: %w", ownerID, err)
	}
	return &store, nil
}

// GetAll retrieves stores matching the filters, ordered by the requested
// field. Filters combine with AND and match substrings regardless of case.
func (r *GORMStoreRepository) GetAll(filters StoreFilters, sort StoreSort) ([]models.Store, error) {
	query := r.db.Model(&models.Store{})
	if filters.Name != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(filters.Name)+"%")
	}
	if filters.Email != "" {
		query = query.Where("LOWER(email) LIKE ?", "%"+strings.ToLower(filters.Email)+"%")
	}
	if filters.Address != "" {
		query = query.Where("LOWER(address) LIKE ?", "%"+strings.ToLower(filters.Address)+"%")
	}

	column, ok := storeSortColumns[sort.Field]
	if !ok {
		column = "name"
	}
	direction := "ASC"
	if strings.EqualFold(sort.Order, "desc") {
		direction = "DESC"
	}

	var stores []models.Store
	if err := query.Order(column + " " + direction).Find(&stores).Error; err != nil {
		return nil, fmt.Errorf("failed to list stores: %w", err)
	}
	return stores, nil
}

// SetOwner backfills the owner reference on a store.
func (r *GORMStoreRepository) SetOwner(id string, ownerID string) error {
	res := r.db.Model(&models.Store{}).Where("id = ?", id).Update("owner_id", ownerID)
	if res.Error != nil {
		return fmt.Errorf("failed to set owner %s on store %s: %w", ownerID, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("store with ID %s: %w", id, gorm.ErrRecordNotFound)
	}
	return nil
}

// Count returns the total number of stores.
func (r *GORMStoreRepository) Count() (int64, error) {
	var count int64
	if err := r.db.Model(&models.Store{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count stores: %w", err)
	}
	return count, nil
}
