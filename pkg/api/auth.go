package api

import "time"

// SessionCookie имя HttpOnly cookie, в которой сервер передает токен сессии
const SessionCookie = "jwtToken"

// SignupRequest представляет запрос на регистрацию нового пользователя
type SignupRequest struct {
	FirstName string `json:"first_name"` // имя
	LastName  string `json:"last_name"`  // фамилия
	Username  string `json:"username"`   // username пользователя
	Password  string `json:"password"`   // пароль в открытом виде (только по TLS)
}

// SignupResponse представляет ответ на успешную регистрацию
type SignupResponse struct {
	UserID  string `json:"user_id"` // UUID пользователя
	Message string `json:"message"` // сообщение об успешной регистрации
}

// LoginRequest представляет запрос на аутентификацию
type LoginRequest struct {
	Username string `json:"username"` // username пользователя
	Password string `json:"password"` // пароль
}

// LoginResponse представляет ответ на успешный вход.
// Сам токен передается только в HttpOnly cookie.
type LoginResponse struct {
	ExpiresAt time.Time `json:"expires_at"` // время истечения сессии
	Message   string    `json:"message"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
}

// ProfileResponse представляет данные текущего пользователя
type ProfileResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// MessageResponse ответ, содержащий только сообщение
type MessageResponse struct {
	Message string `json:"message"`
}

// HealthResponse ответ /health
type HealthResponse struct {
	Status  string `json:"status"`
	Storage string `json:"storage"`
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`             // текст HTTP статуса
	Message string `json:"message,omitempty"` // человекочитаемое описание
}
