package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/DRSN-tech/inventory-service/internal/usecase"
	"github.com/DRSN-tech/inventory-service/pkg/e"
	"github.com/DRSN-tech/inventory-service/pkg/logger"
	"github.com/go-chi/chi/v5/middleware"
)

type ctxKey struct{}

// ClaimsFromContext возвращает claims пользователя, установленные AuthMiddleware.
func ClaimsFromContext(ctx context.Context) (*usecase.Claims, bool) {
	claims, ok := ctx.Value(ctxKey{}).(*usecase.Claims)
	return claims, ok
}

// AuthMiddleware пропускает только запросы с валидным bearer-токеном.
// Нет токена — 401, невалидный или просроченный — 403.
func AuthMiddleware(authUC usecase.AuthUC, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				WriteError(w, log, e.ErrMissingToken)
				return
			}

			claims, err := authUC.Authenticate(r.Context(), token)
			if err != nil {
				WriteError(w, log, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, claims)))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}

	return strings.TrimSpace(token)
}

// AccessLog пишет строку лога на каждый запрос.
func AccessLog(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			log.Infof("%s %s %d %dB %s req_id=%s",
				r.Method, r.URL.Path, ww.Status(), ww.BytesWritten(), time.Since(start), middleware.GetReqID(r.Context()))
		})
	}
}
