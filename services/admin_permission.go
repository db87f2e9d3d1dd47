package services

import (
	goContext "context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/asoud-market/asoud_api/model"
	"github.com/asoud-market/asoud_api/shared"
)

// restrictedHours is an optional wall-clock window for admin access. The
// window may wrap midnight: start > end means "from start through 23h,
// then 00h through end".
type restrictedHours struct {
	start int
	end   int
}

func (h restrictedHours) contains(hour int) bool {
	if h.start <= h.end {
		return hour >= h.start && hour <= h.end
	}
	return hour >= h.start || hour <= h.end
}

// policyLayer is one named authorization check. Layers run in order and
// the first denial wins.
type policyLayer struct {
	name  string
	check func(ctx goContext.Context, c *fiber.Ctx, user *model.User) error
}

// AdminPermissionService evaluates the layered admin authorization policy:
// authentication presence, superuser flag, active flag, time window, per
// user rate limit, session validity. The chain is data, not control flow,
// so layers stay individually testable and reorderable.
type AdminPermissionService struct {
	context.DefaultService

	cache      Cache
	layers     []policyLayer
	maxPerHour int64
	hours      *restrictedHours

	now func() time.Time
}

const ADMIN_PERMISSION_SVC = "admin_permission_svc"

func (svc AdminPermissionService) Id() string {
	return ADMIN_PERMISSION_SVC
}

func (svc *AdminPermissionService) Configure(ctx *context.Context) error {
	if err := svc.loadConfig(); err != nil {
		return err
	}
	svc.initLayers()
	return svc.DefaultService.Configure(ctx)
}

func (svc *AdminPermissionService) Start() error {
	svc.cache = svc.Service(REDIS_SVC).(*RedisService).Client()
	return nil
}

func (svc *AdminPermissionService) loadConfig() error {
	svc.now = time.Now
	svc.maxPerHour = shared.DefaultAdminRateLimit
	if raw := os.Getenv("ADMIN_RATE_LIMIT_PER_HOUR"); raw != "" {
		if parsed, err := strconv.ParseInt(raw, 10, 64); err == nil && parsed > 0 {
			svc.maxPerHour = parsed
		}
	}

	if raw := os.Getenv("ADMIN_RESTRICTED_HOURS"); raw != "" {
		hours, err := parseRestrictedHours(raw)
		if err != nil {
			return err
		}
		svc.hours = hours
	}
	return nil
}

func (svc *AdminPermissionService) initLayers() {
	svc.layers = []policyLayer{
		{name: "authentication", check: svc.checkAuthenticated},
		{name: "superuser", check: svc.checkSuperuser},
		{name: "active", check: svc.checkActive},
		{name: "time_window", check: svc.checkTimeWindow},
		{name: "rate_limit", check: svc.checkRateLimit},
		{name: "session", check: svc.checkSession},
	}
}

// Authorize runs the full layer chain for the request's principal. Every
// denial is logged with the failing layer; callers only see a generic
// forbidden error.
func (svc *AdminPermissionService) Authorize(ctx goContext.Context, c *fiber.Ctx) error {
	user := principalFromCtx(c)

	for _, layer := range svc.layers {
		if err := layer.check(ctx, c, user); err != nil {
			userID := "anonymous"
			if user != nil {
				userID = user.ID
			}
			log.WithFields(log.Fields{
				"layer":   layer.name,
				"user_id": userID,
				"ip":      getClientIP(c),
			}).Warn("ADMIN_ACCESS_DENIED")
			adminGateDenialsTotal.WithLabelValues(layer.name).Inc()
			return err
		}
	}

	if user != nil {
		log.WithFields(log.Fields{
			"user_id": user.ID,
			"ip":      getClientIP(c),
		}).Info("ADMIN_ACCESS_GRANTED")
	}
	return nil
}

// RequireAdminPermission gates a route group on the full policy chain.
func (svc *AdminPermissionService) RequireAdminPermission() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.Authorize(c.UserContext(), c); err != nil {
			return err
		}
		return c.Next()
	}
}

// ==================== POLICY LAYERS ====================

func (svc *AdminPermissionService) checkAuthenticated(_ goContext.Context, _ *fiber.Ctx, user *model.User) error {
	if user == nil {
		return shared.NewForbiddenError("permission_denied", "Permission denied")
	}
	return nil
}

func (svc *AdminPermissionService) checkSuperuser(_ goContext.Context, _ *fiber.Ctx, user *model.User) error {
	if !user.IsSuperuser {
		return shared.NewForbiddenError("permission_denied", "Permission denied")
	}
	return nil
}

// checkActive re-reads the flag attached at authentication time. It covers
// the revocation race where an account is deactivated after its token was
// verified.
func (svc *AdminPermissionService) checkActive(_ goContext.Context, _ *fiber.Ctx, user *model.User) error {
	if !user.IsActive {
		return shared.NewForbiddenError("permission_denied", "Permission denied")
	}
	return nil
}

func (svc *AdminPermissionService) checkTimeWindow(_ goContext.Context, _ *fiber.Ctx, _ *model.User) error {
	if svc.hours == nil {
		return nil
	}
	if !svc.hours.contains(svc.now().Hour()) {
		return shared.NewForbiddenError("permission_denied", "Permission denied")
	}
	return nil
}

// checkRateLimit bounds a principal to maxPerHour counted admin requests
// per rolling cache window. The write refreshes the TTL, so a burst at a
// window boundary can admit up to 2*max-1 requests inside one hour; this
// is a best-effort abuse deterrent, not a strict sliding window.
func (svc *AdminPermissionService) checkRateLimit(ctx goContext.Context, _ *fiber.Ctx, user *model.User) error {
	key := shared.RateLimitKey(user.ID)

	count, err := svc.cache.GetInt(ctx, key)
	if err != nil {
		return shared.NewInternalError(err)
	}
	if count >= svc.maxPerHour {
		return shared.NewForbiddenError("permission_denied", "Permission denied")
	}

	if err := svc.cache.Set(ctx, key, count+1, shared.RateLimitTTL); err != nil {
		return shared.NewInternalError(err)
	}
	return nil
}

func (svc *AdminPermissionService) checkSession(ctx goContext.Context, _ *fiber.Ctx, user *model.User) error {
	invalidated, err := svc.cache.Exists(ctx, shared.SessionInvalidatedKey(user.ID))
	if err != nil {
		return shared.NewInternalError(err)
	}
	if invalidated {
		return shared.NewForbiddenError("permission_denied", "Permission denied")
	}

	if err := svc.cache.Set(ctx, shared.SessionValidKey(user.ID), true, shared.SessionValidTTL); err != nil {
		return shared.NewInternalError(err)
	}
	return nil
}

func parseRestrictedHours(raw string) (*restrictedHours, error) {
	parts := strings.SplitN(raw, "-", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid ADMIN_RESTRICTED_HOURS %q, expected \"start-end\"", raw)
	}

	start, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return nil, fmt.Errorf("invalid ADMIN_RESTRICTED_HOURS start: %w", err)
	}
	end, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, fmt.Errorf("invalid ADMIN_RESTRICTED_HOURS end: %w", err)
	}
	if start < 0 || start > 23 || end < 0 || end > 23 {
		return nil, fmt.Errorf("ADMIN_RESTRICTED_HOURS out of range: %q", raw)
	}

	return &restrictedHours{start: start, end: end}, nil
}
