package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/gema-interview-api/internal/utils"
)

// Claims are the token claims accepted by protected endpoints.
type Claims struct {
	Role  string   `json:"role,omitempty"`
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// PrimaryRole returns the first non-empty role, lowercased.
func (c Claims) PrimaryRole() string {
	if role := normalizeRole(c.Role); role != "" {
		return role
	}
	for _, candidate := range c.Roles {
		if role := normalizeRole(candidate); role != "" {
			return role
		}
	}
	return ""
}

// JWTProtected validates HMAC-signed bearer tokens and exposes the subject and role as
// the user_id and user_role locals.
func JWTProtected(secret string) fiber.Handler {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{
		jwt.SigningMethodHS256.Alg(),
		jwt.SigningMethodHS384.Alg(),
		jwt.SigningMethodHS512.Alg(),
	}))

	return func(c *fiber.Ctx) error {
		authorization := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
		if authorization == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "authorization header missing")
		}

		const bearer = "bearer "
		if len(authorization) <= len(bearer) || !strings.EqualFold(authorization[:len(bearer)], bearer) {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid authorization header")
		}

		tokenString := strings.TrimSpace(authorization[len(bearer):])
		claims := &Claims{}
		token, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		if subject := strings.TrimSpace(claims.Subject); subject != "" {
			c.Locals("user_id", subject)
		}
		if role := claims.PrimaryRole(); role != "" {
			c.Locals("user_role", role)
		}

		return c.Next()
	}
}

func normalizeRole(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
