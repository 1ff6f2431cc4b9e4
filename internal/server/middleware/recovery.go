package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
)

// RecoveryMiddleware создает middleware для восстановления после паники
// Перехватывает panic, логирует стек вызовов и возвращает JSON 500
func RecoveryMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}

					// Логируем критическую ошибку со стеком
					logger.ErrorContext(r.Context(), "Panic recovered",
						"error", err,
						"method", r.Method,
						"path", r.URL.Path,
						"remote_addr", r.RemoteAddr,
						"stack", string(debug.Stack()),
					)

					// Возвращаем generic ошибку клиенту (не раскрываем детали)
					writeError(w, "internal server error", http.StatusInternalServerError)
				}
			}()

			// Передаем управление следующему обработчику
			next.ServeHTTP(w, r)
		})
	}
}
