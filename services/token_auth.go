package services

import (
	"errors"
	"strings"

	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/asoud-market/asoud_api/model"
	"github.com/asoud-market/asoud_api/shared"
)

// CredentialStore supplies user records and their opaque bearer tokens.
type CredentialStore interface {
	VerifyToken(key string) (*model.User, *model.AuthToken, error)
}

// TokenAuthService validates admin bearer tokens. It is a deliberately
// strict subset of a general token scheme: only active superusers are
// admitted, and it must never be mounted on non-admin surfaces.
type TokenAuthService struct {
	context.DefaultService

	store CredentialStore
}

const TOKEN_AUTH_SVC = "token_auth_svc"

func (svc TokenAuthService) Id() string {
	return TOKEN_AUTH_SVC
}

func (svc *TokenAuthService) Configure(ctx *context.Context) error {
	return svc.DefaultService.Configure(ctx)
}

func (svc *TokenAuthService) Start() error {
	svc.store = svc.Service(POSTGRES_SVC).(*PostgresService)
	return nil
}

// Authenticate exchanges a bearer key for its owning user. Read-only; no
// counters move here.
func (svc *TokenAuthService) Authenticate(key string) (*model.User, *model.AuthToken, error) {
	user, token, err := svc.store.VerifyToken(key)
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return nil, nil, shared.NewUnauthorizedError("invalid_token", "Invalid token.")
		}
		return nil, nil, shared.NewInternalError(err)
	}

	if !user.IsActive {
		return nil, nil, shared.NewUnauthorizedError("user_inactive", "User inactive or deleted.")
	}

	if !user.IsSuperuser {
		return nil, nil, shared.NewUnauthorizedError("admin_access_denied", "Admin access denied.")
	}

	return user, token, nil
}

// RequiredAdminAuth authenticates the Authorization header and attaches
// the principal to the request.
func (svc *TokenAuthService) RequiredAdminAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		key, err := ExtractTokenFromHeader(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			log.WithField("ip", getClientIP(c)).Warn("Admin request without valid credentials")
			return shared.NewUnauthorizedError("invalid_token", "Invalid token.")
		}

		user, token, err := svc.Authenticate(key)
		if err != nil {
			log.WithField("ip", getClientIP(c)).Warn("Admin token authentication failed")
			return err
		}

		c.Locals(shared.AdminUser, user)
		c.Locals(shared.AdminToken, token)
		return c.Next()
	}
}

// ExtractTokenFromHeader parses "Authorization: Token <key>", the only
// credential transport the admin gateway accepts.
func ExtractTokenFromHeader(authHeader string) (string, error) {
	if authHeader == "" {
		return "", errors.New("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Token" || parts[1] == "" {
		return "", errors.New("malformed authorization header")
	}

	return parts[1], nil
}

// principalFromCtx returns the authenticated admin user, if any.
func principalFromCtx(c *fiber.Ctx) *model.User {
	user, _ := c.Locals(shared.AdminUser).(*model.User)
	return user
}
