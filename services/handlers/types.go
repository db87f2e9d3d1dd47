package handlers

import (
	"context"

	"github.com/asoud-market/asoud_api/dto"
	"github.com/asoud-market/asoud_api/model"
)

type AdminServiceInterface interface {
	SecurityStatus(admin *model.User) *dto.SecurityStatusResponse
	DashboardStats(ctx context.Context, admin *model.User) (*dto.DashboardStatsResponse, error)
	ListUsers(admin *model.User, req dto.AdminUserListRequest) (*dto.AdminUserListResponse, error)
	UserDetail(admin *model.User, userID string) (*dto.AdminUserDetailResponse, error)
	ToggleUserActive(admin *model.User, userID string) (*dto.ToggleActiveResponse, error)
	ForceLogout(ctx context.Context, admin *model.User, userID string) error
	SystemHealth(ctx context.Context, admin *model.User) *dto.SystemHealthResponse
	AuditLogs(ctx context.Context, admin *model.User, targetUserID string, limit int) (*dto.AuditLogResponse, error)
}

type AuthServiceInterface interface {
	Login(req dto.LoginRequest, clientIP string) (*dto.LoginResponse, error)
	Logout(key string) error
}
