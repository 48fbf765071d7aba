package middleware

import (
	"context"
	"errors"
	"net/http"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/labstack/echo/v4"
)

// TokenVerifier is satisfied by *auth.Client.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// UserResolver maps a Firebase UID to the local account.
type UserResolver interface {
	GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error)
}

// FirebaseAuthMiddleware verifies Firebase ID tokens and resolves the local user id
func FirebaseAuthMiddleware(verifier TokenVerifier, users UserResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			idToken, err := bearerToken(c)
			if err != nil {
				return err
			}

			ctx := c.Request().Context()
			token, err := verifier.VerifyIDToken(ctx, idToken)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired ID token")
			}

			user, err := users.GetUserByFirebaseUID(ctx, token.UID)
			if err != nil {
				if errors.Is(err, models.ErrUserNotFound) {
					return echo.NewHTTPError(http.StatusUnauthorized, "No account is linked to this Firebase user")
				}
				return echo.NewHTTPError(http.StatusServiceUnavailable, "Could not resolve user")
			}

			c.Set("firebaseUID", token.UID)
			c.Set("firebaseToken", token)
			c.Set(UserIDKey, user.ID)

			return next(c)
		}
	}
}
