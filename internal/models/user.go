package models

import (
	"strings"

	"gorm.io/gorm"
)

// Role is the closed set of account roles. Tokens and authorization checks
// always use the canonical lowercase form; roles are never compared as
// free-form text.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleUser       Role = "user"
	RoleStoreOwner Role = "store_owner"
)

// NormalizeRole canonicalizes a role string to its lowercase form.
// Unknown values fall back to RoleUser.
func NormalizeRole(raw string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleAdmin:
		return RoleAdmin
	case RoleStoreOwner:
		return RoleStoreOwner
	default:
		return RoleUser
	}
}

// User represents an account on the platform.
type User struct {
	ID         string  `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name       string  `json:"name" gorm:"type:varchar(60)" validate:"required,min=20,max=60"`
	Email      string  `json:"email" gorm:"uniqueIndex;type:varchar(255)" validate:"required,email"`
	Password   string  `json:"-" gorm:"type:varchar(255)"` // bcrypt hash, never serialized
	Address    string  `json:"address" gorm:"type:varchar(400)" validate:"max=400"`
	Role       Role    `json:"role" gorm:"type:varchar(20);default:user"`
	StoreID    *string `json:"storeId" gorm:"type:varchar(36)"` // set only when Role == store_owner
	gorm.Model `json:"-"`
}
