package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/DRSN-tech/miniapp-backend/internal/usecase"
	"github.com/DRSN-tech/miniapp-backend/pkg/e"
	"github.com/DRSN-tech/miniapp-backend/pkg/logger"
)

// SessionHeader — идентификатор корзины. Без него корзина привязывается к пользователю чата.
const SessionHeader = "X-Session-ID"

type ctxKey int

const (
	sessionKey ctxKey = iota
	identityKey
)

// identityMiddleware кладёт в контекст идентичность пользователя и ключ корзины.
func identityMiddleware(identityHeader string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := strings.TrimSpace(r.Header.Get(identityHeader))

			session := strings.TrimSpace(r.Header.Get(SessionHeader))
			if session == "" {
				session = identity
			}

			ctx := context.WithValue(r.Context(), identityKey, identity)
			ctx = context.WithValue(ctx, sessionKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// adminOnly пропускает только идентичности из списка операторов.
func adminOnly(adminUC usecase.AdminUC, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := identityFromCtx(r.Context())
			if !adminUC.IsAdmin(identity) {
				log.Warnf("%d admin access denied: identity: %q, path: %s", http.StatusForbidden, identity, r.URL.Path)
				WriteError(w, e.ErrForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func sessionFromCtx(ctx context.Context) string {
	s, _ := ctx.Value(sessionKey).(string)
	return s
}

func identityFromCtx(ctx context.Context) string {
	s, _ := ctx.Value(identityKey).(string)
	return s
}
