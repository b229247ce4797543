package models

import "time"

type UserRole string

const (
	RoleSuperAdmin      UserRole = "SUPER_ADMIN"
	RoleRestaurantOwner UserRole = "RESTAURANT_OWNER"
	RoleDiner           UserRole = "DINER"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleRestaurantOwner, RoleDiner:
		return true
	}
	return false
}

type User struct {
	ID           string
	Email        string
	PasswordHash []byte
	FirstName    string
	LastName     string
	Phone        *string
	Role         UserRole
	IsActive     bool
	AvatarURL    *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Session is one refresh-token login of a user.
type Session struct {
	ID               string
	UserID           string
	RefreshTokenHash []byte
	IPAddress        string
	UserAgent        string
	CreatedAt        time.Time
	LastSeenAt       time.Time
	ExpiresAt        time.Time
}

type UserStats struct {
	TotalUsers       int64 `json:"totalUsers"`
	SuperAdmins      int64 `json:"superAdmins"`
	RestaurantOwners int64 `json:"restaurantOwners"`
	ActiveUsers      int64 `json:"activeUsers"`
}
