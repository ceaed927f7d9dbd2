package models

// Role defines the access level of a user.
type Role string

const (
	RoleUser  Role = "user"
	RoleStaff Role = "staff"
)

// User represents a registered account. Accounts are created at registration
// or auto-provisioned during an anonymous booking, and are never deleted in-band.
type User struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Username     string `gorm:"uniqueIndex;not null" json:"username"`
	PasswordHash string `gorm:"column:password;not null" json:"-"`
	Name         string `gorm:"not null" json:"name"`
	Role         Role   `gorm:"type:varchar(20);not null;default:user" json:"role"`
	Phone        string `json:"phone,omitempty"`
	Email        string `json:"email,omitempty"`
}

// IsStaff reports whether the user may access staff-only endpoints.
func (u *User) IsStaff() bool {
	return u.Role == RoleStaff
}
