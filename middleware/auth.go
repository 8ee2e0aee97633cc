// Package middleware holds the func(http.Handler) http.Handler layers that
// run before the handlers.
package middleware

import (
	"context"
	"net/http"

	"github.com/akinalp/leasehub/handlers"
	"github.com/akinalp/leasehub/pkg"
	"github.com/akinalp/leasehub/repository"
	"github.com/akinalp/leasehub/services"
)

// AuthMiddleware authenticates API requests.
type AuthMiddleware struct {
	authService services.AuthService
	userRepo    repository.UserRepository
	cookieName  string
}

// NewAuthMiddleware creates the middleware.
func NewAuthMiddleware(authService services.AuthService, userRepo repository.UserRepository, cookieName string) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
		userRepo:    userRepo,
		cookieName:  cookieName,
	}
}

// Require rejects requests without a valid access token with 401.
//
// The token comes from the http-only cookie or an Authorization: Bearer
// header. The user is loaded from the store, since a valid token can outlive
// its account, and stored in the request context.
func (m *AuthMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := pkg.AccessToken(r, m.cookieName, false)
		if token == "" {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "authentication required")
			return
		}

		claims, err := m.authService.ValidateAccessToken(token)
		if err != nil {
			pkg.Error(w, err)
			return
		}

		user, err := m.userRepo.GetByID(r.Context(), claims.UserID)
		if err != nil {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found")
			return
		}
		user.PasswordHash = ""

		ctx := context.WithValue(r.Context(), handlers.UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
