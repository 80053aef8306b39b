package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Auth is the authentication gate: it validates the bearer token and
// injects the caller identity into the request context. Missing, malformed
// and expired tokens all yield the same 401 externally; the distinction
// only survives in debug logs so rejections never aid credential guessing.
func Auth(jwtSecret string, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}

			claims := jwt.MapClaims{}
			tkn, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
				if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
					return nil, jwt.ErrTokenSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !tkn.Valid {
				switch {
				case errors.Is(err, jwt.ErrTokenExpired):
					log.Debug().Msg("auth: token expired")
				case errors.Is(err, jwt.ErrTokenSignatureInvalid):
					log.Debug().Msg("auth: token signature mismatch")
				default:
					log.Debug().Msg("auth: token malformed")
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}

			userID, _ := claims["user_id"].(string)
			role, _ := claims["role"].(string)
			if userID == "" || role == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}

			c.Set("user_id", userID)
			c.Set("role", role)

			return next(c)
		}
	}
}
