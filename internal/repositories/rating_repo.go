package repositories

import "ratehub/internal/models"

// StoreAggregate is the read-side rating summary for one store.
type StoreAggregate struct {
	Average float64
	Total   int64
}

// RatingRepository defines the interface for rating data access.
type RatingRepository interface {
	// Upsert inserts the rating or, when a row for (user, store) already
	// exists, overwrites its value in place. Single atomic conditional
	// write keyed on the unique pair, never read-then-write.
	Upsert(rating *models.Rating) (*models.Rating, error)
	GetByUserAndStore(userID, storeID string) (*models.Rating, error)
	AverageFor(storeID string) (float64, error)
	CountFor(storeID string) (int64, error)
	// CountsByValue returns how many ratings the store has per value.
	// Values with no ratings are absent from the map.
	CountsByValue(storeID string) (map[int]int64, error)
	// ListForStore returns the owner-view rows, most recent first.
	ListForStore(storeID string) ([]models.StoreRating, error)
	// ByUser returns storeID -> value for every rating the user submitted.
	ByUser(userID string) (map[string]int, error)
	// AggregatesByStore returns storeID -> aggregate for all rated stores.
	AggregatesByStore() (map[string]StoreAggregate, error)
	Count() (int64, error)
}
