package repositories

import (
	"fmt"
	"time"

	"ratehub/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMRatingRepository is a GORM implementation of RatingRepository.
type GORMRatingRepository struct {
	db *gorm.DB
}

// NewGORMRatingRepository creates a new instance of GORMRatingRepository.
func NewGORMRatingRepository(db *gorm.DB) *GORMRatingRepository {
	return &GORMRatingRepository{
		db: db,
	}
}

// Upsert writes the rating through an ON CONFLICT clause on the
// (user_id, store_id) unique index, so two concurrent submissions from the
// same user can never produce two rows. Returns the row as stored.
func (r *GORMRatingRepository) Upsert(rating *models.Rating) (*models.Rating, error) {
	if rating.ID == "" {
		rating.ID = uuid.New().String()
	}
	err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "store_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"value":      rating.Value,
			"updated_at": time.Now(),
		}),
	}).Create(rating).Error
	if err != nil {
		return nil, fmt.Errorf("failed to upsert rating: %w", err)
	}

	// Reload: on conflict the pre-existing row (with its original ID and
	// creation timestamp) is the one that was updated.
	var stored models.Rating
	if err := r.db.First(&stored, "user_id = ? AND store_id = ?", rating.UserID, rating.StoreID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload rating after upsert: %w", err)
	}
	return &stored, nil
}

// GetByUserAndStore retrieves the single rating for a (user, store) pair.
func (r *GORMRatingRepository) GetByUserAndStore(userID, storeID string) (*models.Rating, error) {
	var rating models.Rating
	if err := r.db.First(&rating, "user_id = ? AND store_id = ?", userID, storeID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("rating for user %s on store %s: %w", userID, storeID, gorm.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to get rating for user %s on store %s: %w", userID, storeID, err)
	}
	return &rating, nil
}

// AverageFor returns the raw mean of the store's rating values, 0 when the
// store has no ratings.
func (r *GORMRatingRepository) AverageFor(storeID string) (float64, error) {
	var avg float64
	err := r.db.Model(&models.Rating{}).
		Where("store_id = ?", storeID).
		Select("COALESCE(AVG(value), 0)").
		Scan(&avg).Error
	if err != nil {
		return 0, fmt.Errorf("failed to compute average for store %s: %w", storeID, err)
	}
	return avg, nil
}

// CountFor returns how many ratings the store has.
func (r *GORMRatingRepository) CountFor(storeID string) (int64, error) {
	var count int64
	if err := r.db.Model(&models.Rating{}).Where("store_id = ?", storeID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count ratings for store %s: %w", storeID, err)
	}
	return count, nil
}

// CountsByValue returns rating counts grouped by value for one store.
func (r *GORMRatingRepository) CountsByValue(storeID string) (map[int]int64, error) {
	var rows []struct {
		Value int
		Count int64
	}
	err := r.db.Model(&models.Rating{}).
		Select("value, COUNT(*) AS count").
		Where("store_id = ?", storeID).
		Group("value").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute distribution for store %s: %w", storeID, err)
	}

	counts := make(map[int]int64, len(rows))
	for _, row := range rows {
		counts[row.Value] = row.Count
	}
	return counts, nil
}

// ListForStore returns the store's ratings joined with the rater's identity,
// most recent first.
func (r *GORMRatingRepository) ListForStore(storeID string) ([]models.StoreRating, error) {
	var rows []models.StoreRating
	err := r.db.Table("ratings").
		Select("ratings.id AS rating_id, users.name AS user_name, users.email AS user_email, users.address AS user_address, ratings.value, ratings.created_at AS submitted_at").
		Joins("JOIN users ON users.id = ratings.user_id").
		Where("ratings.store_id = ?", storeID).
		Order("ratings.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list ratings for store %s: %w", storeID, err)
	}
	return rows, nil
}

// ByUser returns a map of storeID to the value this user gave it.
func (r *GORMRatingRepository) ByUser(userID string) (map[string]int, error) {
	var rows []struct {
		StoreID string
		Value   int
	}
	err := r.db.Model(&models.Rating{}).
		Select("store_id, value").
		Where("user_id = ?", userID).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list ratings by user %s: %w", userID, err)
	}

	ratings := make(map[string]int, len(rows))
	for _, row := range rows {
		ratings[row.StoreID] = row.Value
	}
	return ratings, nil
}

// AggregatesByStore returns the average and count per store in one grouped
// query, for annotating store listings.
func (r *GORMRatingRepository) AggregatesByStore() (map[string]StoreAggregate, error) {
	var rows []struct {
		StoreID string
		Average float64
		Total   int64
	}
	err := r.db.Model(&models.Rating{}).
		Select("store_id, AVG(value) AS average, COUNT(*) AS total").
		Group("store_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute store aggregates: %w", err)
	}

	aggregates := make(map[string]StoreAggregate, len(rows))
	for _, row := range rows {
		aggregates[row.StoreID] = StoreAggregate{Average: row.Average, Total: row.Total}
	}
	return aggregates, nil
}

// Count returns the total number of ratings.
func (r *GORMRatingRepository) Count() (int64, error) {
	var count int64
	if err := r.db.Model(&models.Rating{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count ratings: %w", err)
	}
	return count, nil
}
