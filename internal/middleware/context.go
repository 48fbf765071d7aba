package middleware

import (
	"github.com/anonto42/nano-social/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// UserIDKey is the echo context key holding the authenticated user's id (uint).
const UserIDKey = "user_id"

// ClientInfoMiddleware copies the caller's IP and user agent into the request context.
func ClientInfoMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx := services.WithClientInfo(req.Context(), services.ClientInfo{
				IP:        c.RealIP(),
				UserAgent: req.UserAgent(),
			})
			c.SetRequest(req.WithContext(ctx))
			return next(c)
		}
	}
}
