package domain

import "time"

// User is a registered board member. The password hash never leaves the
// server; json:"-" keeps it out of every response body.
type User struct {
	ID           string    `gorm:"primarykey;size:36" json:"id"`
	Name         string    `gorm:"size:100;not null" json:"name"`
	Email        string    `gorm:"size:254;not null;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"size:60;not null" json:"-"`
	ProfilePic   string    `gorm:"size:500" json:"profilePic,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// TableName returns the table name for the User model.
func (User) TableName() string {
	return "users"
}
