package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/asoud-market/asoud_api/dto"
	"github.com/asoud-market/asoud_api/model"
	"github.com/asoud-market/asoud_api/shared"
)

type AdminHandler struct {
	adminSvc AdminServiceInterface
}

func NewAdminHandler(adminSvc AdminServiceInterface) *AdminHandler {
	return &AdminHandler{adminSvc: adminSvc}
}

func adminFromCtx(c *fiber.Ctx) *model.User {
	admin, _ := c.Locals(shared.AdminUser).(*model.User)
	return admin
}

// @Summary Security status (Admin)
// @Description Verify the caller's session and permission state
// @Tags admin
// @Produce json
// @Security Bearer
// @Param Authorization header string true "Admin Token" default(Token <admin_token>)
// @Success 200 {object} shared.Response{data=dto.SecurityStatusResponse}
// @Router /api/v1/secure-admin/security/status [get]
func (h *AdminHandler) SecurityStatus(c *fiber.Ctx) error {
	status := h.adminSvc.SecurityStatus(adminFromCtx(c))
	return shared.ResponseJSON(c, fiber.StatusOK, "Security status verified", status)
}

// @Summary Dashboard statistics (Admin)
// @Description Aggregate user, market, product and payment counters
// @Tags admin
// @Produce json
// @Security Bearer
// @Param Authorization header string true "Admin Token" default(Token <admin_token>)
// @Success 200 {object} shared.Response{data=dto.DashboardStatsResponse}
// @Router /api/v1/secure-admin/dashboard/stats [get]
func (h *AdminHandler) DashboardStats(c *fiber.Ctx) error {
	stats, err := h.adminSvc.DashboardStats(c.UserContext(), adminFromCtx(c))
	if err != nil {
		return err
	}
	return shared.ResponseJSON(c, fiber.StatusOK, "Dashboard stats retrieved successfully", stats)
}

// @Summary List users (Admin)
// @Description Paginated user listing with search and filters
// @Tags admin
// @Produce json
// @Security Bearer
// @Param Authorization header string true "Admin Token" default(Token <admin_token>)
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(50)
// @Param search query string false "Search term"
// @Param type query string false "User type filter"
// @Param active query string false "Active flag filter (true/false)"
// @Success 200 {object} shared.Response{data=dto.AdminUserListResponse}
// @Router /api/v1/secure-admin/users [get]
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "50"))

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}

	req := dto.AdminUserListRequest{
		Page:   page,
		Limit:  limit,
		Search: c.Query("search"),
		Type:   c.Query("type"),
		Active: c.Query("active"),
	}

	users, err := h.adminSvc.ListUsers(adminFromCtx(c), req)
	if err != nil {
		return err
	}
	return shared.ResponseJSON(c, fiber.StatusOK, "Users retrieved successfully", users)
}

// @Summary User detail (Admin)
// @Description Detailed user record with admin-only information
// @Tags admin
// @Produce json
// @Security Bearer
// @Param Authorization header string true "Admin Token" default(Token <admin_token>)
// @Param userId path string true "User ID"
// @Success 200 {object} shared.Response{data=dto.AdminUserDetailResponse}
// @Router /api/v1/secure-admin/users/{userId} [get]
func (h *AdminHandler) UserDetail(c *fiber.Ctx) error {
	userID := c.Params("userId")
	if userID == "" {
		return shared.NewBadRequestError(nil, "User ID is required")
	}

	detail, err := h.adminSvc.UserDetail(adminFromCtx(c), userID)
	if err != nil {
		return err
	}
	return shared.ResponseJSON(c, fiber.StatusOK, "User details retrieved successfully", detail)
}

// @Summary Toggle user active state (Admin)
// @Description Activate or deactivate a user account
// @Tags admin
// @Produce json
// @Security Bearer
// @Param Authorization header string true "Admin Token" default(Token <admin_token>)
// @Param userId path string true "User ID"
// @Success 200 {object} shared.Response{data=dto.ToggleActiveResponse}
// @Router /api/v1/secure-admin/users/{userId}/toggle-active [patch]
func (h *AdminHandler) ToggleUserActive(c *fiber.Ctx) error {
	userID := c.Params("userId")
	if userID == "" {
		return shared.NewBadRequestError(nil, "User ID is required")
	}

	result, err := h.adminSvc.ToggleUserActive(adminFromCtx(c), userID)
	if err != nil {
		return err
	}

	message := "User deactivated successfully"
	if result.IsActive {
		message = "User activated successfully"
	}
	return shared.ResponseJSON(c, fiber.StatusOK, message, result)
}

// @Summary Force logout (Admin)
// @Description Invalidate a user's admin session out of band
// @Tags admin
// @Produce json
// @Security Bearer
// @Param Authorization header string true "Admin Token" default(Token <admin_token>)
// @Param userId path string true "User ID"
// @Success 200 {object} shared.Response{data=nil}
// @Router /api/v1/secure-admin/users/{userId}/force-logout [post]
func (h *AdminHandler) ForceLogout(c *fiber.Ctx) error {
	userID := c.Params("userId")
	if userID == "" {
		return shared.NewBadRequestError(nil, "User ID is required")
	}

	if err := h.adminSvc.ForceLogout(c.UserContext(), adminFromCtx(c), userID); err != nil {
		return err
	}
	return shared.ResponseJSON(c, fiber.StatusOK, "Session invalidated successfully", nil)
}

// @Summary System health (Admin)
// @Description Database, cache and security subsystem health
// @Tags admin
// @Produce json
// @Security Bearer
// @Param Authorization header string true "Admin Token" default(Token <admin_token>)
// @Success 200 {object} shared.Response{data=dto.SystemHealthResponse}
// @Router /api/v1/secure-admin/system/health [get]
func (h *AdminHandler) SystemHealth(c *fiber.Ctx) error {
	health := h.adminSvc.SystemHealth(c.UserContext(), adminFromCtx(c))
	return shared.ResponseJSON(c, fiber.StatusOK, "System health check completed", health)
}

// @Summary Audit logs (Admin)
// @Description Recent admin audit trail, newest first
// @Tags admin
// @Produce json
// @Security Bearer
// @Param Authorization header string true "Admin Token" default(Token <admin_token>)
// @Param user query string false "Filter by principal ID"
// @Param limit query int false "Max records" default(100)
// @Success 200 {object} shared.Response{data=dto.AuditLogResponse}
// @Router /api/v1/secure-admin/audit/logs [get]
func (h *AdminHandler) AuditLogs(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "100"))
	if limit < 1 || limit > 1000 {
		limit = 100
	}

	logs, err := h.adminSvc.AuditLogs(c.UserContext(), adminFromCtx(c), c.Query("user"), limit)
	if err != nil {
		return err
	}
	return shared.ResponseJSON(c, fiber.StatusOK, "Audit logs retrieved successfully", logs)
}
