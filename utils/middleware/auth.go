package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/ucmsdev/ucms-api/model"
	"github.com/ucmsdev/ucms-api/utils/auth"
	"github.com/ucmsdev/ucms-api/utils/response"
	"gorm.io/gorm"
)

var (
	errMissingToken  = errors.New("Missing authorization token")
	errBadAuthFormat = errors.New("Invalid authorization format")
	errExpiredToken  = errors.New("Token has expired")
	errInvalidToken  = errors.New("Invalid token")
	errTokenType     = errors.New("Invalid token type")
	errInvalidRole   = errors.New("Invalid role")
	errUserNotFound  = errors.New("User not found")
	errStaleRole     = errors.New("Token role is stale")
	errLoadUser      = errors.New("Failed to load user")
)

// AuthMiddleware handles JWT authentication and the role guard
type AuthMiddleware struct {
	jwtManager *auth.JWTManager
	db         *gorm.DB
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(jwtManager *auth.JWTManager, db *gorm.DB) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager: jwtManager,
		db:         db,
	}
}

// authenticate validates the bearer token, loads the user and stores the
// principal in the request context. It never writes a response; the guard
// wrappers translate its errors and stop the chain, so a handler only runs
// after authentication succeeded.
func (m *AuthMiddleware) authenticate(c *fiber.Ctx) (*model.User, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return nil, errMissingToken
	}

	// Extract token from "Bearer <token>"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, errBadAuthFormat
	}

	claims, err := m.jwtManager.ValidateToken(parts[1])
	if err != nil {
		if err == auth.ErrExpiredToken {
			return nil, errExpiredToken
		}
		return nil, errInvalidToken
	}

	if claims.TokenType != "access" {
		return nil, errTokenType
	}

	// Reject unknown roles here, once, instead of string-comparing per handler
	role, ok := model.ParseRole(claims.Role)
	if !ok {
		return nil, errInvalidRole
	}

	var user model.User
	if err := m.db.First(&user, claims.UserID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errUserNotFound
		}
		return nil, errLoadUser
	}

	if user.Role != role {
		return nil, errStaleRole
	}

	c.Locals("user_id", user.ID)
	c.Locals("user_role", string(user.Role))
	c.Locals("user", &user)

	return &user, nil
}

// deny writes the response for a failed authentication
func (m *AuthMiddleware) deny(c *fiber.Ctx, err error) error {
	if err == errLoadUser {
		return response.InternalServerError(c, err.Error())
	}
	return response.Unauthorized(c, err.Error())
}

// Required is middleware that requires a valid JWT token
func (m *AuthMiddleware) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, err := m.authenticate(c); err != nil {
			return m.deny(c, err)
		}
		return c.Next()
	}
}

// RequireAdmin is middleware that requires a valid token carrying the admin
// role. It runs before any handler body, so a forbidden request never
// reaches a mutation.
func (m *AuthMiddleware) RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := m.authenticate(c)
		if err != nil {
			return m.deny(c, err)
		}
		if !user.IsAdmin() {
			return response.Forbidden(c, "Admin access required")
		}
		return c.Next()
	}
}

// GetUser extracts the authenticated user from context
func GetUser(c *fiber.Ctx) (*model.User, bool) {
	user := c.Locals("user")
	if user == nil {
		return nil, false
	}
	u, ok := user.(*model.User)
	return u, ok
}

// GetUserID extracts the authenticated user id from context
func GetUserID(c *fiber.Ctx) (uint, bool) {
	userID := c.Locals("user_id")
	if userID == nil {
		return 0, false
	}
	id, ok := userID.(uint)
	return id, ok
}
