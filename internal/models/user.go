package models

import "time"

// Типы пользователей.
const (
	UserTypeEmployee = "Employee"
	UserTypeAdmin    = "Admin"
)

// User зарегистрированный пользователь хранилища.
type User struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// IsAdmin сообщает, является ли пользователь администратором.
func (u User) IsAdmin() bool {
	return u.Type == UserTypeAdmin
}
