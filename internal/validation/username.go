package validation

import (
	"fmt"
	"regexp"
)

// UsernamePattern определяет допустимый формат username
// Только латинские буквы (a-z, A-Z), цифры (0-9), нижнее подчеркивание (_)
var UsernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

const (
	// MinUsernameLen минимальная длина username
	MinUsernameLen = 3
	// MaxUsernameLen максимальная длина username
	MaxUsernameLen = 32

	// MinPasswordLen минимальная длина пароля
	MinPasswordLen = 6
	// MaxPasswordLen bcrypt игнорирует все, что длиннее 72 байт
	MaxPasswordLen = 72

	// MaxNameLen ограничение для имени и фамилии
	MaxNameLen = 100
)

// ValidateUsername проверяет, что username соответствует требованиям
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("username cannot be empty")
	}

	if len(username) < MinUsernameLen {
		return fmt.Errorf("username must be at least %d characters long", MinUsernameLen)
	}

	if len(username) > MaxUsernameLen {
		return fmt.Errorf("username must not exceed %d characters", MaxUsernameLen)
	}

	if !UsernamePattern.MatchString(username) {
		return fmt.Errorf("username can only contain letters (a-z, A-Z), numbers (0-9), and underscores (_)")
	}

	return nil
}

// ValidatePassword проверяет требования к паролю.
// Длина считается в байтах, так как именно байты попадают в bcrypt.
func ValidatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("password cannot be empty")
	}

	if len(password) < MinPasswordLen {
		return fmt.Errorf("password must be at least %d characters long", MinPasswordLen)
	}

	if len(password) > MaxPasswordLen {
		return fmt.Errorf("password must not exceed %d bytes", MaxPasswordLen)
	}

	return nil
}

// ValidatePersonName checks first/last name values.
func ValidatePersonName(field, value string) error {
	if value == "" {
		return fmt.Errorf("%s cannot be empty", field)
	}
	if len(value) > MaxNameLen {
		return fmt.Errorf("%s must not exceed %d characters", field, MaxNameLen)
	}
	return nil
}
