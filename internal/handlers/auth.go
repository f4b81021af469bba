package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/cobrapixel/ocr-extractor/internal/middleware"
)

// TokenRequest is the body of POST /api/auth/token
type TokenRequest struct {
	APIKey string `json:"api_key" form:"api_key"`
}

// IssueToken exchanges the configured API key for a short-lived JWT.
// Only registered when AUTH_ENABLED is set.
func (h *Handler) IssueToken(c *fiber.Ctx) error {
	var req TokenRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	if req.APIKey == "" {
		return Error(c, fiber.StatusBadRequest, "api_key is required")
	}

	if h.cfg.APIKeyHash == "" {
		return Error(c, fiber.StatusServiceUnavailable, "API key authentication is not configured")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(h.cfg.APIKeyHash), []byte(req.APIKey)); err != nil {
		return Error(c, fiber.StatusUnauthorized, "invalid API key")
	}

	token, err := h.generateToken()
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to generate token")
	}

	return Success(c, fiber.Map{
		"token":      token,
		"expires_in": int(h.cfg.TokenExpiry.Seconds()),
	})
}

// generateToken creates a new JWT token for the service credential
func (h *Handler) generateToken() (string, error) {
	claims := &middleware.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(h.cfg.TokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Subject:   "service",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.cfg.JWTSecret))
}
