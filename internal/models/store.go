package models

import "gorm.io/gorm"

// Store represents a rateable store.
type Store struct {
	ID         string  `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name       string  `json:"name" gorm:"type:varchar(60)" validate:"required,min=20,max=60"`
	Email      string  `json:"email" gorm:"uniqueIndex;type:varchar(255)" validate:"required,email"`
	Address    string  `json:"address" gorm:"type:varchar(400)" validate:"max=400"`
	OwnerID    *string `json:"ownerId" gorm:"type:varchar(36)"` // a User with role store_owner
	gorm.Model `json:"-"`
}

// StoreListing is a Store annotated with read-side aggregates for list views.
// UserRating is the viewer's own rating and is only populated for role=user.
type StoreListing struct {
	Store
	AverageRating float64 `json:"rating"`
	TotalRatings  int64   `json:"totalRatings"`
	UserRating    *int    `json:"userRating,omitempty"`
}
