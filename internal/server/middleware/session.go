package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/iudanet/refkeeper/internal/server/session"
)

// DefaultPerimeterPatterns пути, закрытые периметром по умолчанию
var DefaultPerimeterPatterns = []string{"/", "/articles*", "/search*"}

// LoginPath куда периметр отправляет неаутентифицированных пользователей
const LoginPath = "/login"

// PathMatcher проверяет путь по списку шаблонов.
// Шаблон с '*' на конце совпадает по префиксу, остальные только точно.
type PathMatcher struct {
	exact    map[string]struct{}
	prefixes []string
}

// NewPathMatcher создает PathMatcher из шаблонов
func NewPathMatcher(patterns []string) *PathMatcher {
	m := &PathMatcher{exact: make(map[string]struct{})}
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if prefix, ok := strings.CutSuffix(p, "*"); ok {
			m.prefixes = append(m.prefixes, prefix)
			continue
		}
		m.exact[p] = struct{}{}
	}
	return m
}

// Match сообщает, закрыт ли путь периметром
func (m *PathMatcher) Match(path string) bool {
	if _, ok := m.exact[path]; ok {
		return true
	}
	for _, prefix := range m.prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Perimeter перенаправляет (302) на страницу входа запросы к закрытым путям
// без действительной сессии. Запрос с действительной сессией проходит без изменений.
func Perimeter(gate *session.Gate, matcher *PathMatcher, logger *slog.Logger, metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !matcher.Match(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			if _, err := gate.Authenticate(r); err != nil {
				reason := session.Reason(err)
				logger.DebugContext(r.Context(), "perimeter redirect",
					slog.String("path", r.URL.Path),
					slog.String("reason", reason))
				metrics.sessionRejected("perimeter", reason)

				http.Redirect(w, r, LoginPath, http.StatusFound)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireSession отвечает 401 JSON без действительной сессии,
// иначе кладет пользователя из токена в контекст запроса
func RequireSession(gate *session.Gate, logger *slog.Logger, metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := gate.Authenticate(r)
			if err != nil {
				reason := session.Reason(err)
				logger.WarnContext(r.Context(), "unauthenticated request",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("reason", reason))
				metrics.sessionRejected("endpoint", reason)

				writeError(w, "authentication required", http.StatusUnauthorized)
				return
			}

			ctx := session.WithUser(r.Context(), claims.UserID, claims.Username)

			logger.DebugContext(ctx, "user authenticated", slog.String("user_id", claims.UserID))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
