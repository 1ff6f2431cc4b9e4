package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL срок жизни токена сессии
const DefaultTTL = 30 * 24 * time.Hour

const issuer = "refkeeper"

// ErrInvalidToken возвращается при любой ошибке проверки токена:
// неверная подпись, битая структура, истекший срок.
var ErrInvalidToken = errors.New("invalid token")

// ErrEmptySecret возвращается NewService при пустом секрете
var ErrEmptySecret = errors.New("jwt secret is empty")

// Claims представляет JWT claims сессии
type Claims struct {
	UserID   string `json:"id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Service выдает и проверяет токены сессии (HS256)
type Service struct {
	now    func() time.Time
	secret []byte
	ttl    time.Duration
}

// Option настраивает Service
type Option func(*Service)

// WithClock подменяет источник времени (используется в тестах)
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService создает сервис токенов.
// Пустой секрет недопустим: без него сервер не должен стартовать.
func NewService(secret []byte, ttl time.Duration, opts ...Option) (*Service, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	s := &Service{
		secret: append([]byte(nil), secret...),
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// TTL возвращает срок жизни выдаваемых токенов
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// Issue создает подписанный токен для пользователя и возвращает время его истечения
func (s *Service) Issue(userID, username string) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)

	claims := Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	// NumericDate хранит секунды, возвращаем то же значение, что попало в токен
	return tokenString, claims.ExpiresAt.Time, nil
}

// Verify проверяет подпись и срок действия токена.
// Любая ошибка сворачивается в ErrInvalidToken.
func (s *Service) Verify(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Проверяем что используется правильный алгоритм подписи
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(issuer),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	// jwt/v5 допускает exp == now, нам нужно строгое now < exp
	if !s.now().Before(claims.ExpiresAt.Time) {
		return nil, ErrInvalidToken
	}
	if claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
