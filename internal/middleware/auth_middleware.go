package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"captionSelector/internal/rest"
	"captionSelector/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// Claims are issued by the operator identity service; this service only
// verifies them.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// RevocationChecker reports whether a token id (jti) has been revoked.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// AuthMiddleware verifies an HS256 bearer token signed with secret. When
// revoked is non-nil, tokens whose jti is on the revocation list are
// refused.
func AuthMiddleware(secret string, revoked RevocationChecker) echo.MiddlewareFunc {
	key := []byte(secret)
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return c.JSON(http.StatusUnauthorized, rest.ResponseError{Message: "Missing authorization header"})
			}

			tokenParts := strings.Split(authHeader, " ")
			if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
				return c.JSON(http.StatusUnauthorized, rest.ResponseError{Message: "Invalid authorization format"})
			}

			claims := &Claims{}
			_, err := parser.ParseWithClaims(tokenParts[1], claims, func(*jwt.Token) (any, error) {
				return key, nil
			})
			if err != nil {
				if errors.Is(err, jwt.ErrTokenExpired) {
					return c.JSON(http.StatusForbidden, rest.ResponseError{Message: "Token expired"})
				}
				logger.Warn("Failed to parse JWT", "error", err)
				return c.JSON(http.StatusUnauthorized, rest.ResponseError{Message: "Invalid token"})
			}

			if revoked != nil && claims.ID != "" {
				ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
				defer cancel()

				isRevoked, err := revoked.IsRevoked(ctx, claims.ID)
				if err != nil {
					logger.Error("Failed to check token revocation", "error", err)
					return c.JSON(http.StatusServiceUnavailable, rest.ResponseError{Message: "Token check unavailable"})
				}
				if isRevoked {
					return c.JSON(http.StatusUnauthorized, rest.ResponseError{Message: "Token revoked"})
				}
			}

			c.Set("subject", claims.Subject)
			c.Set("role", claims.Role)

			return next(c)
		}
	}
}

func AdminOnly() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			roleStr, ok := c.Get("role").(string)
			if !ok || strings.ToUpper(roleStr) != "ADMIN" {
				return c.JSON(http.StatusForbidden, rest.ResponseError{Message: "Admin access required"})
			}

			return next(c)
		}
	}
}
