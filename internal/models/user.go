package models

import "time"

// User представляет зарегистрированного пользователя
type User struct {
	CreatedAt    time.Time `json:"created_at"`    // время регистрации
	ID           string    `json:"id"`            // UUID пользователя
	FirstName    string    `json:"first_name"`    // имя
	LastName     string    `json:"last_name"`     // фамилия
	Username     string    `json:"username"`      // уникальный username
	PasswordHash string    `json:"-"`             // bcrypt хеш пароля, никогда не отдается клиенту
}
