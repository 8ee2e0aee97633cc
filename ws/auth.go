package ws

import (
	"errors"
	"net/http"

	"github.com/akinalp/leasehub/models"
	"github.com/akinalp/leasehub/pkg"
)

// Identity is what the handshake attaches to a connection.
type Identity struct {
	UserID string
	Email  string
	Role   models.Role
}

// TokenValidator verifies access tokens. The auth service satisfies it; ws
// declares its own interface so it never imports services.
type TokenValidator interface {
	ValidateAccessToken(tokenString string) (*models.TokenClaims, error)
}

// Authenticator resolves the identity of an upgrade request. Any error
// rejects the request with 401 before the upgrade.
type Authenticator func(r *http.Request) (Identity, error)

var errMissingToken = errors.New("missing access token")

// TokenAuthenticator reads the access token from the cookie, the "token"
// query parameter or the Authorization header, in that order, and validates
// it. Both namespaces use it.
func TokenAuthenticator(validator TokenValidator, cookieName string) Authenticator {
	return func(r *http.Request) (Identity, error) {
		token := pkg.AccessToken(r, cookieName, true)
		if token == "" {
			return Identity{}, errMissingToken
		}

		claims, err := validator.ValidateAccessToken(token)
		if err != nil {
			return Identity{}, err
		}

		return Identity{UserID: claims.UserID, Email: claims.Email, Role: claims.Role}, nil
	}
}
