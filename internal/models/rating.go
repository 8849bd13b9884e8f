package models

import "time"

// Rating is a single user's 1-5 score for a store. The composite unique
// index keeps at most one row per (user, store) pair; resubmission updates
// the row in place.
type Rating struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID    string    `json:"userId" gorm:"uniqueIndex:idx_user_store;type:varchar(36)"`
	StoreID   string    `json:"storeId" gorm:"uniqueIndex:idx_user_store;type:varchar(36)"`
	Value     int       `json:"rating" validate:"required,min=1,max=5"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// StoreRating is the join-shaped row a store owner sees: the rating plus the
// rater's identity. Which of the identity fields reach the wire is the
// caller's choice.
type StoreRating struct {
	RatingID    string    `json:"id"`
	UserName    string    `json:"name"`
	UserEmail   string    `json:"email"`
	UserAddress string    `json:"address"`
	Value       int       `json:"rating"`
	SubmittedAt time.Time `json:"submittedAt"`
}
