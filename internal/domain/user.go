package domain

// UserRole enumerates supported roles.
type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

// Contact is the part of a user account notifications need.
type Contact struct {
	UserID string
	Email  string
	Name   string
	Locale string
}
