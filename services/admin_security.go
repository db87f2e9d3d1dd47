package services

import (
	goContext "context"
	"crypto/sha256"
	"encoding/hex"
	"net"
	"os"
	"strings"

	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/asoud-market/asoud_api/model"
	"github.com/asoud-market/asoud_api/shared"
)

// AuditRecorder receives one record per admin response from an
// authenticated principal. Implementations must never fail the request.
type AuditRecorder interface {
	Record(user *model.User, action, method, ip string, status int)
}

// securityCheck is one named request-phase predicate. Checks run in order
// and the first denial short-circuits the rest of the pipeline.
type securityCheck struct {
	name string
	fn   func(ctx goContext.Context, c *fiber.Ctx, user *model.User) error
}

// responseHook is one named response-phase effect. Hooks always run, even
// when a check or the handler denied the request.
type responseHook struct {
	name string
	fn   func(ctx goContext.Context, c *fiber.Ctx)
}

// AdminSecurityService guards the admin path prefix: IP brute-force
// blocking before authentication, session-fingerprint hijack detection and
// request tracking after it, then response hardening, failed-attempt
// accounting and audit on the way out.
type AdminSecurityService struct {
	context.DefaultService

	cache Cache
	audit AuditRecorder

	pathPrefix string

	anonChecks      []securityCheck
	principalChecks []securityCheck
	responseHooks   []responseHook
}

const ADMIN_SECURITY_SVC = "admin_security_svc"

const DefaultAdminPathPrefix = "/api/v1/secure-admin"

func (svc AdminSecurityService) Id() string {
	return ADMIN_SECURITY_SVC
}

func (svc *AdminSecurityService) Configure(ctx *context.Context) error {
	svc.pathPrefix = os.Getenv("ADMIN_PATH_PREFIX")
	if svc.pathPrefix == "" {
		svc.pathPrefix = DefaultAdminPathPrefix
	}

	svc.initPipeline()
	return svc.DefaultService.Configure(ctx)
}

func (svc *AdminSecurityService) Start() error {
	svc.cache = svc.Service(REDIS_SVC).(*RedisService).Client()
	svc.audit = svc.Service(AUDIT_SVC).(*AuditService)
	return nil
}

func (svc *AdminSecurityService) initPipeline() {
	svc.anonChecks = []securityCheck{
		{name: "ip_block", fn: svc.checkIPBlock},
	}
	svc.principalChecks = []securityCheck{
		{name: "session_hijack", fn: svc.checkSessionHijack},
		{name: "request_tracking", fn: svc.trackRequestFingerprint},
	}
	svc.responseHooks = []responseHook{
		{name: "harden_headers", fn: svc.hardenHeaders},
		{name: "record_failures", fn: svc.recordFailedAttempt},
		{name: "audit", fn: svc.recordAudit},
	}
}

func (svc *AdminSecurityService) PathPrefix() string {
	return svc.pathPrefix
}

// Gate is the outermost admin middleware. It runs the pre-authentication
// checks, lets the rest of the chain produce a response, renders any
// gateway denial itself, then applies every response hook. Keeping error
// rendering inside the gate guarantees the hooks observe the final status.
func (svc *AdminSecurityService) Gate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()

		err := svc.runChecks(ctx, c, svc.anonChecks, nil)
		if err == nil {
			err = c.Next()
		}

		if err != nil {
			appErr, ok := shared.GetAppError(err)
			if !ok {
				log.WithField("error", truncate(err.Error(), 100)).Error("Admin handler error")
				appErr = shared.NewInternalError(err)
			}
			_ = shared.ResponseError(c, appErr)
		}

		for _, hook := range svc.responseHooks {
			hook.fn(ctx, c)
		}
		return nil
	}
}

// SessionGuard runs the checks that need an authenticated principal. It
// mounts after token authentication and before the permission evaluator.
func (svc *AdminSecurityService) SessionGuard() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := principalFromCtx(c)
		if err := svc.runChecks(c.UserContext(), c, svc.principalChecks, user); err != nil {
			return err
		}
		return c.Next()
	}
}

func (svc *AdminSecurityService) runChecks(ctx goContext.Context, c *fiber.Ctx, checks []securityCheck, user *model.User) error {
	for _, check := range checks {
		if err := check.fn(ctx, c, user); err != nil {
			return err
		}
	}
	return nil
}

// ==================== REQUEST CHECKS ====================

func (svc *AdminSecurityService) checkIPBlock(ctx goContext.Context, c *fiber.Ctx, _ *model.User) error {
	ip := getClientIP(c)

	failed, err := svc.cache.GetInt(ctx, shared.FailedAttemptKey(ip))
	if err != nil {
		log.WithField("ip", ip).WithError(err).Warn("Failed attempt lookup error")
		return nil
	}

	if failed >= shared.FailedAttemptLimit {
		log.WithField("ip", ip).Error("BLOCKED_IP_ADMIN_ACCESS")
		adminBlockedIPsTotal.Inc()
		c.Locals(shared.IPBlocked, true)
		return shared.NewTooManyRequestsError("ip_blocked", "IP temporarily blocked")
	}
	return nil
}

func (svc *AdminSecurityService) checkSessionHijack(ctx goContext.Context, c *fiber.Ctx, user *model.User) error {
	if user == nil {
		return nil
	}

	current := sessionFingerprint(c)
	key := shared.SessionFingerprintKey(user.ID)

	stored, err := svc.cache.Get(ctx, key)
	if err != nil {
		log.WithField("user_id", user.ID).WithError(err).Warn("Fingerprint lookup error")
		return nil
	}

	if stored != "" && stored != current {
		log.WithFields(log.Fields{
			"user_id": user.ID,
			"ip":      getClientIP(c),
		}).Error("SESSION_HIJACKING_ATTEMPT")
		return shared.NewForbiddenError("session_invalid", "Session security validation failed")
	}

	if err := svc.cache.Set(ctx, key, current, shared.SessionFingerprintTTL); err != nil {
		log.WithField("user_id", user.ID).WithError(err).Warn("Fingerprint store error")
	}
	return nil
}

// trackRequestFingerprint counts a principal's admin requests inside a
// five minute window. Observational only: a count past the alert
// threshold logs but never blocks.
func (svc *AdminSecurityService) trackRequestFingerprint(ctx goContext.Context, c *fiber.Ctx, user *model.User) error {
	if user == nil {
		return nil
	}

	key := shared.RequestTrackingKey(user.ID)
	count, err := svc.cache.GetInt(ctx, key)
	if err != nil {
		log.WithField("user_id", user.ID).WithError(err).Warn("Request tracking lookup error")
		return nil
	}

	if err := svc.cache.Set(ctx, key, count+1, shared.RequestTrackingTTL); err != nil {
		log.WithField("user_id", user.ID).WithError(err).Warn("Request tracking store error")
	}

	if count > shared.RequestTrackingAlert {
		log.WithFields(log.Fields{
			"user_id":  user.ID,
			"requests": count,
		}).Error("SUSPICIOUS_ADMIN_ACTIVITY")
	}
	return nil
}

// ==================== RESPONSE HOOKS ====================

func (svc *AdminSecurityService) hardenHeaders(_ goContext.Context, c *fiber.Ctx) {
	c.Set("X-Admin-Security", "MAXIMUM")
	c.Set(fiber.HeaderCacheControl, "no-store, no-cache, must-revalidate, max-age=0")
	c.Set("Pragma", "no-cache")
	c.Set("Expires", "0")
}

// recordFailedAttempt counts error responses per client IP. Requests the
// IP block itself rejected are exempt so a blocked client cannot extend
// its own block by retrying.
func (svc *AdminSecurityService) recordFailedAttempt(ctx goContext.Context, c *fiber.Ctx) {
	if c.Response().StatusCode() < 400 {
		return
	}
	if blocked, _ := c.Locals(shared.IPBlocked).(bool); blocked {
		return
	}

	ip := getClientIP(c)
	key := shared.FailedAttemptKey(ip)

	count, err := svc.cache.GetInt(ctx, key)
	if err != nil {
		log.WithField("ip", ip).WithError(err).Warn("Failed attempt lookup error")
		return
	}
	if err := svc.cache.Set(ctx, key, count+1, shared.FailedAttemptTTL); err != nil {
		log.WithField("ip", ip).WithError(err).Warn("Failed attempt store error")
		return
	}

	log.WithFields(log.Fields{
		"ip":      ip,
		"attempt": count + 1,
	}).Warn("ADMIN_FAILED_ATTEMPT")
}

func (svc *AdminSecurityService) recordAudit(_ goContext.Context, c *fiber.Ctx) {
	user := principalFromCtx(c)
	if user == nil {
		return
	}
	svc.audit.Record(user, c.Path(), c.Method(), getClientIP(c), c.Response().StatusCode())
}

// ==================== HELPERS ====================

// sessionFingerprint hashes the client-identifying request attributes. A
// change in any of them from one request to the next suggests the
// session is being replayed from a different client context.
func sessionFingerprint(c *fiber.Ctx) string {
	components := []string{
		c.Get(fiber.HeaderUserAgent),
		c.Get(fiber.HeaderAcceptLanguage),
		getClientIP(c),
	}
	sum := sha256.Sum256([]byte(strings.Join(components, "|")))
	return hex.EncodeToString(sum[:])
}

// getClientIP prefers the first forwarded-for entry, then the peer
// address. The forwarded header is only as trustworthy as the proxy in
// front of this process.
func getClientIP(c *fiber.Ctx) string {
	forwarded := c.Get(fiber.HeaderXForwardedFor)
	if forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}

	ip, _, err := net.SplitHostPort(c.Context().RemoteAddr().String())
	if err != nil {
		return c.IP()
	}
	return ip
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
