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

const testClientIP = "203.0.113.7"

// securityApp mounts the gate and the session guard around a handler the
// way the HTTP service does, with a principal middleware standing in for
// token authentication.
func securityApp(svc *AdminSecurityService, user *model.User, handler fiber.Handler) *fiber.App {
	app := newTestApp()
	app.Use(svc.Gate())
	app.Use(withPrincipal(user))
	app.Use(svc.SessionGuard())
	app.Get("/admin", handler)
	return app
}

func adminRequest() *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set(fiber.HeaderXForwardedFor, testClientIP)
	req.Header.Set(fiber.HeaderUserAgent, "test-agent")
	req.Header.Set(fiber.HeaderAcceptLanguage, "en")
	return req
}

func TestGateBlocksKnownBadIP(t *testing.T) {
	cache := NewMemoryCache()
	svc := newSecurityService(cache, &stubAudit{})

	require.NoError(t, cache.Set(context.Background(),
		shared.FailedAttemptKey(testClientIP), shared.FailedAttemptLimit, time.Hour))

	handlerHit := false
	app := securityApp(svc, adminUser(), func(c *fiber.Ctx) error {
		handlerHit = true
		return okHandler(c)
	})

	resp, err := app.Test(adminRequest())
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.False(t, handlerHit)

	// A rejected request from a blocked IP must not extend the block.
	count, err := cache.GetInt(context.Background(), shared.FailedAttemptKey(testClientIP))
	require.NoError(t, err)
	assert.EqualValues(t, shared.FailedAttemptLimit, count)
}

func TestGateRecordsFailedAttempts(t *testing.T) {
	cache := NewMemoryCache()
	svc := newSecurityService(cache, &stubAudit{})

	app := securityApp(svc, nil, func(c *fiber.Ctx) error {
		return shared.NewUnauthorizedError("invalid_token", "Invalid token.")
	})

	for i := 1; i <= shared.FailedAttemptLimit; i++ {
		resp, err := app.Test(adminRequest())
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		count, err := cache.GetInt(context.Background(), shared.FailedAttemptKey(testClientIP))
		require.NoError(t, err)
		assert.EqualValues(t, i, count)
	}

	// The next request hits the block before the handler.
	resp, err := app.Test(adminRequest())
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestGateSuccessLeavesNoFailureTrace(t *testing.T) {
	cache := NewMemoryCache()
	svc := newSecurityService(cache, &stubAudit{})

	app := securityApp(svc, adminUser(), okHandler)

	resp, err := app.Test(adminRequest())
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	count, err := cache.GetInt(context.Background(), shared.FailedAttemptKey(testClientIP))
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestGateHardensEveryResponse(t *testing.T) {
	svc := newSecurityService(NewMemoryCache(), &stubAudit{})

	app := securityApp(svc, nil, func(c *fiber.Ctx) error {
		return shared.NewForbiddenError("permission_denied", "Permission denied")
	})

	resp, err := app.Test(adminRequest())
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "MAXIMUM", resp.Header.Get("X-Admin-Security"))
	assert.Equal(t, "no-store, no-cache, must-revalidate, max-age=0", resp.Header.Get(fiber.HeaderCacheControl))
	assert.Equal(t, "no-cache", resp.Header.Get("Pragma"))
	assert.Equal(t, "0", resp.Header.Get("Expires"))
}

func TestSessionGuardStoresFingerprint(t *testing.T) {
	cache := NewMemoryCache()
	svc := newSecurityService(cache, &stubAudit{})
	user := adminUser()

	app := securityApp(svc, user, okHandler)

	resp, err := app.Test(adminRequest())
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	stored, err := cache.Get(context.Background(), shared.SessionFingerprintKey(user.ID))
	require.NoError(t, err)
	assert.NotEmpty(t, stored)

	// Same client context passes again.
	resp, err = app.Test(adminRequest())
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSessionGuardDetectsHijack(t *testing.T) {
	cache := NewMemoryCache()
	svc := newSecurityService(cache, &stubAudit{})
	user := adminUser()

	app := securityApp(svc, user, okHandler)

	resp, err := app.Test(adminRequest())
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Same token replayed from a different client context.
	hijacked := adminRequest()
	hijacked.Header.Set(fiber.HeaderUserAgent, "other-agent")

	resp, err = app.Test(hijacked)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestRequestTrackingNeverBlocks(t *testing.T) {
	cache := NewMemoryCache()
	svc := newSecurityService(cache, &stubAudit{})
	user := adminUser()

	require.NoError(t, cache.Set(context.Background(),
		shared.RequestTrackingKey(user.ID), shared.RequestTrackingAlert+1, time.Hour))

	app := securityApp(svc, user, okHandler)

	resp, err := app.Test(adminRequest())
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	count, err := cache.GetInt(context.Background(), shared.RequestTrackingKey(user.ID))
	require.NoError(t, err)
	assert.EqualValues(t, shared.RequestTrackingAlert+2, count)
}

func TestGateAuditsAuthenticatedResponses(t *testing.T) {
	audit := &stubAudit{}
	svc := newSecurityService(NewMemoryCache(), audit)
	user := adminUser()

	app := securityApp(svc, user, okHandler)

	resp, err := app.Test(adminRequest())
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	records := audit.entries()
	require.Len(t, records, 1)
	assert.Equal(t, user.ID, records[0].UserID)
	assert.Equal(t, "/admin", records[0].Action)
	assert.Equal(t, http.MethodGet, records[0].Method)
	assert.Equal(t, testClientIP, records[0].IP)
	assert.Equal(t, http.StatusOK, records[0].Status)
}

func TestGateSkipsAuditForAnonymous(t *testing.T) {
	audit := &stubAudit{}
	svc := newSecurityService(NewMemoryCache(), audit)

	app := securityApp(svc, nil, func(c *fiber.Ctx) error {
		return shared.NewUnauthorizedError("invalid_token", "Invalid token.")
	})

	resp, err := app.Test(adminRequest())
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Empty(t, audit.entries())
}

func TestSessionFingerprintComponents(t *testing.T) {
	svc := newSecurityService(NewMemoryCache(), &stubAudit{})

	var first, sameClient, otherLanguage string
	app := newTestApp()
	app.Use(svc.Gate())
	app.Get("/admin", func(c *fiber.Ctx) error {
		switch {
		case first == "":
			first = sessionFingerprint(c)
		case sameClient == "":
			sameClient = sessionFingerprint(c)
		default:
			otherLanguage = sessionFingerprint(c)
		}
		return okHandler(c)
	})

	_, err := app.Test(adminRequest())
	require.NoError(t, err)
	_, err = app.Test(adminRequest())
	require.NoError(t, err)

	changed := adminRequest()
	changed.Header.Set(fiber.HeaderAcceptLanguage, "fa")
	_, err = app.Test(changed)
	require.NoError(t, err)

	assert.Equal(t, first, sameClient)
	assert.NotEqual(t, first, otherLanguage)
	assert.Len(t, first, 64)
}

func TestGetClientIPPrefersForwardedFor(t *testing.T) {
	svc := newSecurityService(NewMemoryCache(), &stubAudit{})

	var got string
	app := newTestApp()
	app.Use(svc.Gate())
	app.Get("/admin", func(c *fiber.Ctx) error {
		got = getClientIP(c)
		return okHandler(c)
	})

	req := adminRequest()
	req.Header.Set(fiber.HeaderXForwardedFor, "198.51.100.9, 10.0.0.1")
	_, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "198.51.100.9", got)
}
