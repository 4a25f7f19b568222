package domain

import "time"

// User roles.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is an account that can authenticate and own uploads. Password holds
// the bcrypt hash, never the plaintext.
type User struct {
	ID        string    `gorm:"type:text;primaryKey" json:"id"`
	Username  string    `gorm:"type:text;not null;uniqueIndex:idx_users_username" json:"username"`
	Password  string    `gorm:"type:text;not null" json:"-"`
	Email     *string   `gorm:"type:text;uniqueIndex:idx_users_email" json:"email,omitempty"`
	Role      string    `gorm:"type:text;not null;default:user" json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName returns the database table name for User.
func (User) TableName() string {
	return "users"
}
