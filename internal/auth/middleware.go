package auth

import (
	"context"
	"net/http"
	"strings"

	"taskpad-backend/internal/analytics"
	"taskpad-backend/internal/logger"
)

type ctxKey string

const subjectKey ctxKey = "subject"

type Middleware struct {
	secret []byte
}

func New(secret []byte) Middleware {
	return Middleware{secret: secret}
}

// Enabled reports whether a secret is configured. Without one Wrap lets every
// request through.
func (m Middleware) Enabled() bool {
	return len(m.secret) > 0
}

func (m Middleware) Wrap(next http.Handler) http.Handler {
	if !m.Enabled() {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}

		tokenString := strings.TrimPrefix(h, "Bearer ")
		subject, err := ParseToken(m.secret, tokenString)
		if err != nil {
			logger.FromContext(r.Context()).Debug("Rejected bearer token", "error", err)
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), subjectKey, subject)
		ctx = analytics.WithSubject(ctx, subject)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func SubjectFromContext(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(subjectKey).(string)
	return s, ok
}
