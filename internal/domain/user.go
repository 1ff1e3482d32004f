package domain

import "time"

// User описывает пользователя системы
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string // Никогда не покидает слой аутентификации
	CreatedAt    time.Time
}

func NewUser(username, email, passwordHash string) *User {
	return &User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
	}
}
