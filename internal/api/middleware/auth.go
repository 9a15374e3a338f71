package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/animalguardian/platform/internal/core/domain"
)

// KeyActor is the echo context key holding the authenticated domain.Actor.
const KeyActor = "actor"

// accessClaims mirrors the token minted by AuthService at login.
type accessClaims struct {
	Role  string `json:"role"`
	Staff bool   `json:"staff"`
	jwt.RegisteredClaims
}

// Auth verifies the bearer token and stores the caller as a domain.Actor
// under KeyActor. Only HS256 tokens signed with secret are accepted.
func Auth(secret string) echo.MiddlewareFunc {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	keyFunc := func(*jwt.Token) (any, error) { return []byte(secret), nil }

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, err := bearerToken(c.Request())
			if err != nil {
				return err
			}

			var claims accessClaims
			if _, err := parser.ParseWithClaims(raw, &claims, keyFunc); err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			actor, err := claims.actor()
			if err != nil {
				return err
			}

			c.Set(KeyActor, actor)
			return next(c)
		}
	}
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
	}
	return token, nil
}

func (c accessClaims) actor() (domain.Actor, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil || id == 0 {
		return domain.Actor{}, echo.NewHTTPError(http.StatusUnauthorized, "invalid token subject")
	}
	if c.Role == "" {
		return domain.Actor{}, echo.NewHTTPError(http.StatusUnauthorized, "token missing role")
	}
	return domain.Actor{ID: uint(id), Role: domain.Role(c.Role), IsStaff: c.Staff}, nil
}

// ActorFrom returns the actor stored by Auth.
func ActorFrom(c echo.Context) (domain.Actor, bool) {
	a, ok := c.Get(KeyActor).(domain.Actor)
	return a, ok && a.ID != 0
}
