package services

import (
	"fmt"
	"os"
	"strconv"

	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	log "github.com/sirupsen/logrus"

	"github.com/asoud-market/asoud_api/services/handlers"
	"github.com/asoud-market/asoud_api/shared"
)

type HttpService struct {
	context.DefaultService

	tokenAuthSvc  *TokenAuthService
	permissionSvc *AdminPermissionService
	securitySvc   *AdminSecurityService
	adminSvc      *AdminService
	authSvc       *AuthService

	port   int
	server *fiber.App
}

const HTTP_SVC = "http_svc"

func (svc HttpService) Id() string {
	return HTTP_SVC
}

func (svc *HttpService) Configure(ctx *context.Context) error {
	if port := os.Getenv("HTTP_PORT"); port != "" {
		var err error
		if svc.port, err = strconv.Atoi(port); err != nil {
			return err
		}
	} else {
		svc.port = 8000
	}

	return svc.DefaultService.Configure(ctx)
}

func (svc *HttpService) Start() error {
	svc.tokenAuthSvc = svc.Service(TOKEN_AUTH_SVC).(*TokenAuthService)
	svc.permissionSvc = svc.Service(ADMIN_PERMISSION_SVC).(*AdminPermissionService)
	svc.securitySvc = svc.Service(ADMIN_SECURITY_SVC).(*AdminSecurityService)
	svc.adminSvc = svc.Service(ADMIN_SVC).(*AdminService)
	svc.authSvc = svc.Service(AUTH_SVC).(*AuthService)

	svc.server = fiber.New(fiber.Config{
		ErrorHandler: svc.errorHandler,
	})

	svc.server.Use(recover.New())
	svc.server.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	svc.server.Use(MonitoringMiddleware())

	svc.registerRoutes()

	log.WithField("port", svc.port).Info("HTTP server starting")
	return svc.server.Listen(fmt.Sprintf(":%v", svc.port))
}

func (svc *HttpService) Shutdown() {
	if svc.server != nil {
		_ = svc.server.Shutdown()
	}
}

func (svc *HttpService) registerRoutes() {
	authHandler := handlers.NewAuthHandler(svc.authSvc)
	adminHandler := handlers.NewAdminHandler(svc.adminSvc)

	// @Summary Ping
	svc.server.Get("/ping", svc.ping)

	v1 := svc.server.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.Post("/login", authHandler.Login)
	auth.Post("/logout", authHandler.Logout)

	// The admin group carries the full gateway: the security gate runs
	// first so its response hooks see every outcome, then token
	// authentication, the principal-scoped checks, and the permission
	// chain. Handlers only run once all four admit the request.
	admin := svc.server.Group(svc.securitySvc.PathPrefix())
	admin.Use(svc.securitySvc.Gate())
	admin.Use(svc.tokenAuthSvc.RequiredAdminAuth())
	admin.Use(svc.securitySvc.SessionGuard())
	admin.Use(svc.permissionSvc.RequireAdminPermission())

	admin.Get("/security/status", adminHandler.SecurityStatus)
	admin.Get("/dashboard/stats", adminHandler.DashboardStats)
	admin.Get("/system/health", adminHandler.SystemHealth)
	admin.Get("/audit/logs", adminHandler.AuditLogs)

	admin.Get("/users", adminHandler.ListUsers)
	admin.Get("/users/:userId", adminHandler.UserDetail)
	admin.Patch("/users/:userId/toggle-active", adminHandler.ToggleUserActive)
	admin.Post("/users/:userId/force-logout", adminHandler.ForceLogout)
}

// @Summary Ping
// @Description This endpoint checks the health of the service
// @Tags health
// @Produce json
// @Success 200 {object} shared.Response{data=string}
// @Router /ping [get]
func (svc *HttpService) ping(c *fiber.Ctx) error {
	c.Set(fiber.HeaderCacheControl, "max-age=10")
	return shared.ResponseJSON(c, fiber.StatusOK, "Success", "pong")
}

// errorHandler renders AppErrors for non-admin routes; admin routes are
// rendered inside the security gate. Anything unrecognized becomes a
// generic 500 with the cause kept out of the response.
func (svc *HttpService) errorHandler(c *fiber.Ctx, err error) error {
	if appErr, ok := shared.GetAppError(err); ok {
		return shared.ResponseError(c, appErr)
	}

	if fiberErr, ok := err.(*fiber.Error); ok && fiberErr.Code < 500 {
		return shared.ResponseError(c, shared.NewAppError(fiberErr.Code, "request_failed", fiberErr.Message, nil))
	}

	log.WithField("error", truncate(err.Error(), 100)).Error("Unhandled request error")
	return shared.ResponseInternalError(c)
}
