package models

import (
	"strings"
	"time"
)

// UserRole determines which dashboard a user gets
type UserRole string

const (
	RoleBuyer  UserRole = "buyer"
	RoleDealer UserRole = "dealer"
)

// IsValid reports whether the role is one of the known roles
func (r UserRole) IsValid() bool {
	return r == RoleBuyer || r == RoleDealer
}

// DealerInfo holds showroom details supplied at dealer registration
type DealerInfo struct {
	ShowroomName    string `json:"showroom_name"`
	ShowroomAddress string `json:"showroom_address"`
}

// User represents a registered marketplace account
type User struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	Phone        string      `json:"phone,omitempty"`
	Role         UserRole    `json:"role"`
	DealerInfo   *DealerInfo `json:"dealer_info,omitempty"`
	DealerID     string      `json:"dealer_id,omitempty"` // catalog dealer this account manages
	PasswordHash string      `json:"-"`                   // Never serialize
	CreatedAt    time.Time   `json:"created_at"`
}

// IsDealer returns true if the user has the dealer role
func (u *User) IsDealer() bool {
	return u != nil && u.Role == RoleDealer
}

// HasRole checks if the user has the required role
func (u *User) HasRole(required UserRole) bool {
	if u == nil {
		return false
	}
	return u.Role == required
}

// NormalizeEmail lowercases and trims an email so lookups are case-insensitive
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// LoginRequest represents a login attempt
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterBuyerRequest represents a buyer sign-up
type RegisterBuyerRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// RegisterDealerRequest represents a dealer sign-up
type RegisterDealerRequest struct {
	ShowroomName    string `json:"showroom_name"`
	ShowroomAddress string `json:"showroom_address"`
	OwnerName       string `json:"owner_name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Password        string `json:"password"`
}
