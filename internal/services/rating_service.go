package services

import (
	"encoding/json"
	"fmt"
	"log"
	"math"

	"ratehub/internal/models"
	"ratehub/internal/repositories"
	"ratehub/pkg/rabbitmq"
)

// RatingService owns the one-rating-per-user-per-store invariant and the
// read-side aggregates derived from it.
type RatingService struct {
	ratingRepo repositories.RatingRepository
	storeRepo  repositories.StoreRepository
	mqClient   *rabbitmq.Client
}

// NewRatingService creates a new RatingService. mqClient may be nil; event
// publication is then skipped.
func NewRatingService(ratingRepo repositories.RatingRepository, storeRepo repositories.StoreRepository, mqClient *rabbitmq.Client) *RatingService {
	return &RatingService{
		ratingRepo: ratingRepo,
		storeRepo:  storeRepo,
		mqClient:   mqClient,
	}
}

// roundToOneDecimal is the fixed precision of every exposed average.
func roundToOneDecimal(v float64) float64 {
	return math.Round(v*10) / 10
}

// OwnerDashboard is the aggregated view a store owner sees for their store.
type OwnerDashboard struct {
	StoreID       string               `json:"storeId"`
	Ratings       []models.StoreRating `json:"ratings"`
	AverageRating float64              `json:"averageRating"`
	TotalRatings  int64                `json:"totalRatings"`
	Distribution  map[int]int64        `json:"distribution"`
}

// Submit upserts the caller's rating for a store. The write is a single
// conditional operation keyed on the (user, store) unique index; concurrent
// submissions converge on whichever commit lands last. Returns the stored
// rating and the store's new average.
func (s *RatingService) Submit(userID, storeID string, value int) (*models.Rating, float64, error) {
	if value < 1 || value > 5 {
		return nil, 0, fmt.Errorf("rating must be between 1 and 5: %w", ErrInvalidInput)
	}
	if _, err := s.storeRepo.GetByID(storeID); err != nil {
		return nil, 0, fmt.Errorf("store %s: %w", storeID, ErrNotFound)
	}

	rating, err := s.ratingRepo.Upsert(&models.Rating{
		UserID:  userID,
		StoreID: storeID,
		Value:   value,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to submit rating: %w", err)
	}

	publishEvent(s.mqClient, "rating.submitted", map[string]interface{}{
		"ratingID": rating.ID,
		"userID":   userID,
		"storeID":  storeID,
		"value":    value,
	})

	average, err := s.AverageFor(storeID)
	if err != nil {
		return nil, 0, err
	}
	return rating, average, nil
}

// AverageFor returns the store's mean rating with one fractional digit of
// precision, 0 when the store has no ratings.
func (s *RatingService) AverageFor(storeID string) (float64, error) {
	avg, err := s.ratingRepo.AverageFor(storeID)
	if err != nil {
		return 0, err
	}
	return roundToOneDecimal(avg), nil
}

// DistributionFor returns the count of ratings per value. All five buckets
// are always present, zero-filled when absent.
func (s *RatingService) DistributionFor(storeID string) (map[int]int64, error) {
	counts, err := s.ratingRepo.CountsByValue(storeID)
	if err != nil {
		return nil, err
	}

	distribution := make(map[int]int64, 5)
	for value := 1; value <= 5; value++ {
		distribution[value] = counts[value]
	}
	return distribution, nil
}

// ListForStore returns the store's ratings with rater identity, most recent
// first.
func (s *RatingService) ListForStore(storeID string) ([]models.StoreRating, error) {
	return s.ratingRepo.ListForStore(storeID)
}

// Dashboard assembles the owner analytics view for a store. The storeID comes
// from the owner's token; a dangling reference surfaces as ErrNotFound rather
// than a crash.
func (s *RatingService) Dashboard(storeID string) (*OwnerDashboard, error) {
	if _, err := s.storeRepo.GetByID(storeID); err != nil {
		return nil, fmt.Errorf("store %s: %w", storeID, ErrNotFound)
	}

	ratings, err := s.ListForStore(storeID)
	if err != nil {
		return nil, err
	}
	average, err := s.AverageFor(storeID)
	if err != nil {
		return nil, err
	}
	distribution, err := s.DistributionFor(storeID)
	if err != nil {
		return nil, err
	}

	return &OwnerDashboard{
		StoreID:       storeID,
		Ratings:       ratings,
		AverageRating: average,
		TotalRatings:  int64(len(ratings)),
		Distribution:  distribution,
	}, nil
}

// publishEvent pushes a platform event to RabbitMQ. Publication is
// best-effort: a broker failure never fails the request that triggered it.
func publishEvent(mqClient *rabbitmq.Client, eventType string, payload map[string]interface{}) {
	if mqClient == nil {
		log.Println("RabbitMQ client is not initialized. Skipping message publication.")
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Failed to marshal %s event: %v", eventType, err)
		return
	}
	if err := mqClient.Publish(eventType, body); err != nil {
		log.Printf("Warning: Failed to publish %s event: %v", eventType, err)
	}
}
