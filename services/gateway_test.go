package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asoud-market/asoud_api/model"
	"github.com/asoud-market/asoud_api/shared"
)

// gatewayFixture assembles the full admin chain the HTTP service mounts:
// security gate, token authentication, session guard, permission layers.
type gatewayFixture struct {
	app   *fiber.App
	cache *MemoryCache
	audit *stubAudit
	user  *model.User
}

func newGatewayFixture(t *testing.T) *gatewayFixture {
	t.Helper()

	cache := NewMemoryCache()
	audit := &stubAudit{}
	user := adminUser()

	securitySvc := newSecurityService(cache, audit)
	permissionSvc := newPermissionService(cache)
	tokenSvc := &TokenAuthService{store: &stubCredentialStore{
		verifyFn: func(key string) (*model.User, *model.AuthToken, error) {
			if key != "valid-token" {
				return nil, nil, ErrTokenNotFound
			}
			return user, &model.AuthToken{Key: key, UserID: user.ID}, nil
		},
	}}

	app := newTestApp()
	admin := app.Group(securitySvc.PathPrefix())
	admin.Use(securitySvc.Gate())
	admin.Use(tokenSvc.RequiredAdminAuth())
	admin.Use(securitySvc.SessionGuard())
	admin.Use(permissionSvc.RequireAdminPermission())
	admin.Get("/users", okHandler)

	return &gatewayFixture{app: app, cache: cache, audit: audit, user: user}
}

func (f *gatewayFixture) request(token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, DefaultAdminPathPrefix+"/users", nil)
	req.Header.Set(fiber.HeaderXForwardedFor, testClientIP)
	req.Header.Set(fiber.HeaderUserAgent, "test-agent")
	req.Header.Set(fiber.HeaderAcceptLanguage, "en")
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Token "+token)
	}
	return req
}

func TestGatewayAdmitsValidAdmin(t *testing.T) {
	f := newGatewayFixture(t)
	ctx := context.Background()

	resp, err := f.app.Test(f.request("valid-token"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "MAXIMUM", resp.Header.Get("X-Admin-Security"))

	count, err := f.cache.GetInt(ctx, shared.RateLimitKey(f.user.ID))
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	fingerprint, err := f.cache.Get(ctx, shared.SessionFingerprintKey(f.user.ID))
	require.NoError(t, err)
	assert.NotEmpty(t, fingerprint)

	records := f.audit.entries()
	require.Len(t, records, 1)
	assert.Equal(t, http.StatusOK, records[0].Status)
}

func TestGatewayRejectsAnonymousBeforePolicy(t *testing.T) {
	f := newGatewayFixture(t)
	ctx := context.Background()

	resp, err := f.app.Test(f.request(""))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Authentication failed first, so no rate limit slot was consumed
	// and the failure was charged to the client IP.
	count, err := f.cache.GetInt(ctx, shared.RateLimitKey(f.user.ID))
	require.NoError(t, err)
	assert.Zero(t, count)

	failed, err := f.cache.GetInt(ctx, shared.FailedAttemptKey(testClientIP))
	require.NoError(t, err)
	assert.EqualValues(t, 1, failed)

	assert.Empty(t, f.audit.entries())
}

func TestGatewayBlocksIPAfterRepeatedFailures(t *testing.T) {
	f := newGatewayFixture(t)

	for i := 0; i < shared.FailedAttemptLimit; i++ {
		resp, err := f.app.Test(f.request("wrong-token"))
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}

	// Even a valid token is refused once the IP is blocked.
	resp, err := f.app.Test(f.request("valid-token"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestGatewayBlockExpires(t *testing.T) {
	f := newGatewayFixture(t)

	for i := 0; i < shared.FailedAttemptLimit; i++ {
		resp, err := f.app.Test(f.request("wrong-token"))
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}

	f.cache.Advance(shared.FailedAttemptTTL + time.Minute)

	resp, err := f.app.Test(f.request("valid-token"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGatewayForceLogoutEndsSession(t *testing.T) {
	f := newGatewayFixture(t)
	ctx := context.Background()

	resp, err := f.app.Test(f.request("valid-token"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, f.cache.Set(ctx, shared.SessionInvalidatedKey(f.user.ID), true, time.Hour))

	resp, err = f.app.Test(f.request("valid-token"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
