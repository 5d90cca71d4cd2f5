package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"

	"github.com/noah-isme/gema-interview-api/internal/utils"
)

// Roles allowed to read archived reports.
const (
	RoleInterviewer = "interviewer"
	RoleAdmin       = "admin"
)

// RequireRole ensures that the authenticated user possesses one of the allowed roles.
func RequireRole(roles ...string) fiber.Handler {
	allowed := lo.SliceToMap(lo.Compact(lo.Map(roles, func(role string, _ int) string {
		return normalizeRole(role)
	})), func(role string) (string, struct{}) {
		return role, struct{}{}
	})

	return func(c *fiber.Ctx) error {
		role, _ := c.Locals("user_role").(string)
		if _, ok := allowed[normalizeRole(role)]; !ok {
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		}
		return c.Next()
	}
}
