package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskpad-backend/internal/analytics"
)

var secret = []byte("test-secret")

func TestToken(t *testing.T) {
	t.Run("Should round trip the subject", func(t *testing.T) {
		tok, err := GenerateToken(secret, "alice", time.Hour)
		require.NoError(t, err)

		sub, err := ParseToken(secret, tok)
		require.NoError(t, err)
		assert.Equal(t, "alice", sub)
	})

	t.Run("Should reject a token signed with another secret", func(t *testing.T) {
		tok, err := GenerateToken([]byte("other"), "alice", time.Hour)
		require.NoError(t, err)

		_, err = ParseToken(secret, tok)
		assert.True(t, errors.Is(err, ErrInvalidToken))
	})

	t.Run("Should reject an expired token", func(t *testing.T) {
		claims := jwt.RegisteredClaims{
			Subject:   "alice",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		}
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
		require.NoError(t, err)

		_, err = ParseToken(secret, tok)
		assert.True(t, errors.Is(err, ErrInvalidToken))
	})

	t.Run("Should reject a token without expiry", func(t *testing.T) {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "alice"}).SignedString(secret)
		require.NoError(t, err)

		_, err = ParseToken(secret, tok)
		assert.Error(t, err)
	})

	t.Run("Should require a subject", func(t *testing.T) {
		_, err := GenerateToken(secret, "", time.Hour)
		assert.Error(t, err)
	})
}

func TestMiddleware(t *testing.T) {
	var gotSubject, gotAnalytics string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSubject, _ = SubjectFromContext(r.Context())
		gotAnalytics, _ = analytics.SubjectFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("Should reject a missing token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		New(secret).Wrap(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tasks", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Should reject an invalid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
		req.Header.Set("Authorization", "Bearer garbage")
		rec := httptest.NewRecorder()
		New(secret).Wrap(next).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Should pass the subject downstream", func(t *testing.T) {
		tok, err := GenerateToken(secret, "bob", time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		rec := httptest.NewRecorder()
		New(secret).Wrap(next).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "bob", gotSubject)
		assert.Equal(t, "bob", gotAnalytics)
	})

	t.Run("Should let everything through without a secret", func(t *testing.T) {
		rec := httptest.NewRecorder()
		New(nil).Wrap(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tasks", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}
