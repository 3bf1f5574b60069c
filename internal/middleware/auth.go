package middleware

import (
	"errors"
	"strings"
	"time"

	"github.com/arnold/wellness-api/internal/models"
	"github.com/arnold/wellness-api/internal/repository"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Claims are issued by the identity provider. Name and Role are optional;
// a missing role keeps whatever the stored profile has.
type Claims struct {
	UserID uuid.UUID       `json:"userId"`
	Email  string          `json:"email"`
	Name   string          `json:"name,omitempty"`
	Role   models.UserRole `json:"role,omitempty"`
	jwt.RegisteredClaims
}

func GenerateToken(secret string, userID uuid.UUID, email, name string, role models.UserRole, ttl time.Duration) (string, error) {
	claims := Claims{
		UserID: userID,
		Email:  email,
		Name:   name,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken verifies an HS256 token and returns its claims.
func ParseToken(secret, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, errors.New("invalid or expired token")
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || claims.UserID == uuid.Nil {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

func Protected(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing authorization header",
			})
		}

		// Extract token from "Bearer <token>"
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid authorization format",
			})
		}

		claims, err := ParseToken(secret, tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		// Store user info in context
		c.Locals("userId", claims.UserID)
		c.Locals("email", claims.Email)
		c.Locals("claims", claims)

		return c.Next()
	}
}

// SyncProfile mirrors the token identity into the profile store so
// eligibility and display names see it. Failures are logged, not fatal.
func SyncProfile(users repository.UserRepository, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := c.Locals("claims").(*Claims)
		if !ok {
			return c.Next()
		}

		ctx := c.UserContext()
		profile, err := users.Get(ctx, claims.UserID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			profile = &models.UserProfile{ID: claims.UserID, Role: models.UserRoleParticipant}
		case err != nil:
			log.Warn("load profile", zap.String("userId", claims.UserID.String()), zap.Error(err))
			return c.Next()
		case profile.Email == claims.Email && (claims.Name == "" || profile.DisplayName == claims.Name) && (claims.Role == "" || profile.Role == claims.Role):
			return c.Next()
		}

		profile.Email = claims.Email
		if claims.Name != "" {
			profile.DisplayName = claims.Name
		}
		if claims.Role != "" {
			profile.Role = claims.Role
		}
		if err := users.Upsert(ctx, profile); err != nil {
			log.Warn("sync profile", zap.String("userId", claims.UserID.String()), zap.Error(err))
		}
		return c.Next()
	}
}

// GetUserID extracts user ID from context
func GetUserID(c *fiber.Ctx) uuid.UUID {
	userID, ok := c.Locals("userId").(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return userID
}
