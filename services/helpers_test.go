package services

import (
	"io"
	"sync"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/asoud-market/asoud_api/model"
	"github.com/asoud-market/asoud_api/shared"
)

func init() {
	log.SetOutput(io.Discard)
}

// newTestApp mirrors the HTTP service's error handling so middleware
// tests observe the same status codes the real server produces.
func newTestApp() *fiber.App {
	return fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if appErr, ok := shared.GetAppError(err); ok {
				return shared.ResponseError(c, appErr)
			}
			return shared.ResponseInternalError(c)
		},
	})
}

func adminUser() *model.User {
	return &model.User{
		ID:           "admin-1",
		MobileNumber: "09123456789",
		FirstName:    "Sara",
		LastName:     "Admin",
		Type:         shared.UserTypeUser,
		IsActive:     true,
		IsSuperuser:  true,
	}
}

// withPrincipal stands in for token authentication in middleware tests.
func withPrincipal(user *model.User) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if user != nil {
			c.Locals(shared.AdminUser, user)
		}
		return c.Next()
	}
}

func okHandler(c *fiber.Ctx) error {
	return shared.ResponseJSON(c, fiber.StatusOK, "Success", nil)
}

type stubCredentialStore struct {
	verifyFn func(key string) (*model.User, *model.AuthToken, error)
}

func (s *stubCredentialStore) VerifyToken(key string) (*model.User, *model.AuthToken, error) {
	return s.verifyFn(key)
}

type stubAudit struct {
	mu      sync.Mutex
	records []model.AuditRecord
}

func (s *stubAudit) Record(user *model.User, action, method, ip string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, model.AuditRecord{
		UserID:      user.ID,
		MobileLast4: user.MobileMasked(),
		Action:      action,
		Method:      method,
		IP:          ip,
		Status:      status,
	})
}

func (s *stubAudit) entries() []model.AuditRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.AuditRecord, len(s.records))
	copy(out, s.records)
	return out
}

func newPermissionService(cache Cache) *AdminPermissionService {
	svc := &AdminPermissionService{cache: cache}
	_ = svc.loadConfig()
	svc.initLayers()
	return svc
}

func newSecurityService(cache Cache, audit AuditRecorder) *AdminSecurityService {
	svc := &AdminSecurityService{
		cache:      cache,
		audit:      audit,
		pathPrefix: DefaultAdminPathPrefix,
	}
	svc.initPipeline()
	return svc
}
