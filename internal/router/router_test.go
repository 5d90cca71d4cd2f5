package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-interview-api/internal/config"
	"github.com/noah-isme/gema-interview-api/internal/handler"
	"github.com/noah-isme/gema-interview-api/internal/middleware"
	"github.com/noah-isme/gema-interview-api/internal/service"
)

const routerSecret = "router-secret"

type sessionCount int

func (s sessionCount) Count() int { return int(s) }

func newRouterApp(withJWT bool) *fiber.App {
	cfg := config.Config{AppName: "interview-test", AppEnv: "test"}
	deps := Dependencies{
		ReportHandler: handler.NewReportHandler(service.NewReportService(nil, nil, zerolog.Nop()), zerolog.Nop()),
		Sessions:      sessionCount(2),
	}
	if withJWT {
		deps.JWTMiddleware = middleware.JWTProtected(routerSecret)
	}

	app := fiber.New()
	Register(app, cfg, deps)
	return app
}

func bearer(t *testing.T, role string) string {
	t.Helper()
	claims := middleware.Claims{
		Role:             role,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "reviewer", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(routerSecret))
	require.NoError(t, err)
	return "Bearer " + token
}

func TestRegisterHealthReportsSessions(t *testing.T) {
	app := newRouterApp(false)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "interview-test", resp.Header.Get("X-Application"))
}

func TestReportsHiddenWithoutJWT(t *testing.T) {
	app := newRouterApp(false)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/reports", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestReportsRequireReviewerRole(t *testing.T) {
	app := newRouterApp(true)

	cases := []struct {
		name   string
		header string
		status int
	}{
		{name: "no token", status: fiber.StatusUnauthorized},
		{name: "candidate role", header: bearer(t, "candidate"), status: fiber.StatusForbidden},
		{name: "interviewer role", header: bearer(t, "interviewer"), status: fiber.StatusNotImplemented},
		{name: "admin role", header: bearer(t, "Admin"), status: fiber.StatusNotImplemented},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/reports", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)
		})
	}
}
