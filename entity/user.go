package entity

import "time"

type User struct {
	ID        string    `json:"id" bson:"_id,omitempty"`
	FirstName string    `json:"first_name" bson:"first_name"`
	LastName  string    `json:"last_name" bson:"last_name"`
	Email     string    `json:"email" bson:"email"`
	Login     string    `json:"login" bson:"login"`
	Phone     string    `json:"phone" bson:"phone"`
	Role      string    `json:"role" bson:"role"`
	ChatID    string    `json:"telegram_chat_id" bson:"telegram_chat_id"`
	Approved  bool      `json:"approved" bson:"approved"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

const (
	UserRole  = "user"
	AdminRole = "admin"
)

func (u *User) IsAdmin() bool {
	return u.Role == AdminRole
}

// HasChatRoute reports whether the user can be reached over Telegram.
func (u *User) HasChatRoute() bool {
	return u.ChatID != ""
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}
