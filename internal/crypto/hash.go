package crypto

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost совпадает со стоимостью, которой хешировались существующие пароли
const DefaultCost = 10

// ErrPasswordMismatch возвращается, когда пароль не соответствует хешу
var ErrPasswordMismatch = errors.New("password does not match")

// HashPassword хеширует пароль через bcrypt (соль генерируется внутри bcrypt).
// cost вне диапазона [bcrypt.MinCost, bcrypt.MaxCost] заменяется на DefaultCost.
func HashPassword(password string, cost int) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(hash), nil
}

// VerifyPassword сравнивает пароль с bcrypt хешем.
// Сравнение выполняется bcrypt за постоянное время относительно содержимого хеша.
func VerifyPassword(hash, password string) error {
	if hash == "" {
		return fmt.Errorf("hash cannot be empty")
	}

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrPasswordMismatch
		}
		return fmt.Errorf("failed to compare password: %w", err)
	}

	return nil
}
