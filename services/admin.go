package services

import (
	goContext "context"
	"time"

	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"

	"github.com/asoud-market/asoud_api/dto"
	"github.com/asoud-market/asoud_api/model"
	"github.com/asoud-market/asoud_api/shared"
)

// AdminService implements the operations exposed under the admin path
// prefix. Every entry point assumes the security gateway has already
// admitted the caller; nothing here re-checks credentials.
type AdminService struct {
	context.DefaultService

	sqlSvc   *PostgresService
	auditSvc *AuditService
	cache    Cache
}

const ADMIN_SVC = "admin_svc"

func (svc AdminService) Id() string {
	return ADMIN_SVC
}

func (svc *AdminService) Configure(ctx *context.Context) error {
	return svc.DefaultService.Configure(ctx)
}

func (svc *AdminService) Start() error {
	svc.sqlSvc = svc.Service(POSTGRES_SVC).(*PostgresService)
	svc.auditSvc = svc.Service(AUDIT_SVC).(*AuditService)
	svc.cache = svc.Service(REDIS_SVC).(*RedisService).Client()
	return nil
}

func (svc *AdminService) SecurityStatus(admin *model.User) *dto.SecurityStatusResponse {
	log.WithField("user_id", admin.ID).Info("ADMIN_SECURITY_CHECK")

	return &dto.SecurityStatusResponse{
		SessionValid:        true,
		PermissionsVerified: true,
		SecurityLevel:       "MAXIMUM",
		Timestamp:           time.Now().Unix(),
		UserInfo: dto.SecurityUserInfo{
			ID:           admin.ID,
			MobileMasked: admin.MobileMasked(),
			IsSuperuser:  admin.IsSuperuser,
			LastLogin:    formatTime(admin.LastLogin),
		},
	}
}

func (svc *AdminService) DashboardStats(ctx goContext.Context, admin *model.User) (*dto.DashboardStatsResponse, error) {
	userStats, err := svc.sqlSvc.UserStats()
	if err != nil {
		return nil, err
	}
	marketStats, err := svc.sqlSvc.MarketStats()
	if err != nil {
		return nil, err
	}
	productStats, err := svc.sqlSvc.ProductStats()
	if err != nil {
		return nil, err
	}
	paymentStats, err := svc.sqlSvc.PaymentStats()
	if err != nil {
		return nil, err
	}

	log.WithField("user_id", admin.ID).Info("ADMIN_DASHBOARD_STATS")

	return &dto.DashboardStatsResponse{
		Users:    *userStats,
		Markets:  *marketStats,
		Products: *productStats,
		Payments: *paymentStats,
		System: dto.SystemStats{
			Timestamp:   time.Now().Unix(),
			CacheStatus: svc.cacheStatus(ctx),
		},
	}, nil
}

func (svc *AdminService) ListUsers(admin *model.User, req dto.AdminUserListRequest) (*dto.AdminUserListResponse, error) {
	users, total, err := svc.sqlSvc.SearchUsers(req)
	if err != nil {
		return nil, err
	}

	infos := make([]dto.AdminUserInfo, 0, len(users))
	for i := range users {
		infos = append(infos, UserInfo(&users[i]))
	}

	log.WithFields(log.Fields{
		"user_id": admin.ID,
		"count":   len(infos),
	}).Info("ADMIN_USERS_LIST")

	pages := (total + int64(req.Limit) - 1) / int64(req.Limit)
	return &dto.AdminUserListResponse{
		Users: infos,
		Pagination: dto.Pagination{
			Page:  req.Page,
			Limit: req.Limit,
			Total: total,
			Pages: pages,
		},
	}, nil
}

func (svc *AdminService) UserDetail(admin *model.User, userID string) (*dto.AdminUserDetailResponse, error) {
	user, err := svc.sqlSvc.GetUserByID(userID)
	if err != nil {
		if err == ErrUserNotFound {
			return nil, shared.NewNotFoundError("user_not_found", "User not found")
		}
		return nil, err
	}

	marketsCount, err := svc.sqlSvc.CountMarketsByOwner(userID)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user_id": admin.ID,
		"target":  userID,
	}).Info("ADMIN_USER_DETAIL")

	return &dto.AdminUserDetailResponse{
		User: UserInfo(user),
		AdminInfo: dto.AdminInfo{
			DateJoined:   user.CreatedAt.Format(time.RFC3339),
			LastLogin:    formatTime(user.LastLogin),
			IsActive:     user.IsActive,
			MarketsCount: marketsCount,
		},
	}, nil
}

// ToggleUserActive flips the target's active flag. Active superusers are
// off limits so an admin cannot lock out the last admin account.
func (svc *AdminService) ToggleUserActive(admin *model.User, userID string) (*dto.ToggleActiveResponse, error) {
	user, err := svc.sqlSvc.GetUserByID(userID)
	if err != nil {
		if err == ErrUserNotFound {
			return nil, shared.NewNotFoundError("user_not_found", "User not found")
		}
		return nil, err
	}

	if user.IsSuperuser && user.IsActive {
		return nil, shared.NewForbiddenError("cannot_deactivate_admin", "Cannot deactivate admin users")
	}

	user.IsActive = !user.IsActive
	if err := svc.sqlSvc.SaveUser(user); err != nil {
		return nil, err
	}

	action := "deactivated"
	if user.IsActive {
		action = "activated"
	}
	log.WithFields(log.Fields{
		"user_id": admin.ID,
		"target":  userID,
		"action":  action,
	}).Error("ADMIN_USER_TOGGLE")

	return &dto.ToggleActiveResponse{UserID: userID, IsActive: user.IsActive}, nil
}

// ForceLogout flags the target's admin session as invalidated and clears
// its stored fingerprint. The permission evaluator denies the principal
// on its next request, whatever its token or fingerprint state.
func (svc *AdminService) ForceLogout(ctx goContext.Context, admin *model.User, userID string) error {
	if _, err := svc.sqlSvc.GetUserByID(userID); err != nil {
		if err == ErrUserNotFound {
			return shared.NewNotFoundError("user_not_found", "User not found")
		}
		return err
	}

	if err := svc.cache.Set(ctx, shared.SessionInvalidatedKey(userID), true, shared.SessionFingerprintTTL); err != nil {
		return shared.NewInternalError(err)
	}
	if err := svc.cache.Delete(ctx, shared.SessionFingerprintKey(userID), shared.SessionValidKey(userID)); err != nil {
		log.WithField("target", userID).WithError(err).Warn("Failed to clear session keys")
	}

	log.WithFields(log.Fields{
		"user_id": admin.ID,
		"target":  userID,
	}).Error("ADMIN_FORCE_LOGOUT")
	return nil
}

func (svc *AdminService) SystemHealth(ctx goContext.Context, admin *model.User) *dto.SystemHealthResponse {
	health := &dto.SystemHealthResponse{
		Database:  svc.databaseHealth(),
		Cache:     svc.cacheHealth(ctx),
		Security:  dto.ComponentHealth{Status: "healthy", Message: "Security systems operational"},
		Timestamp: time.Now().Unix(),
	}

	health.Overall = "healthy"
	for _, component := range []dto.ComponentHealth{health.Database, health.Cache, health.Security} {
		if component.Status != "healthy" {
			health.Overall = "degraded"
			break
		}
	}

	log.WithFields(log.Fields{
		"user_id": admin.ID,
		"overall": health.Overall,
	}).Info("ADMIN_SYSTEM_HEALTH")
	return health
}

func (svc *AdminService) AuditLogs(ctx goContext.Context, admin *model.User, targetUserID string, limit int) (*dto.AuditLogResponse, error) {
	records, err := svc.auditSvc.RecentRecords(ctx, targetUserID, limit)
	if err != nil {
		return nil, err
	}

	entries := make([]dto.AuditLogEntry, 0, len(records))
	for _, record := range records {
		entries = append(entries, dto.AuditLogEntry(record))
	}

	log.WithField("user_id", admin.ID).Info("ADMIN_AUDIT_LOG_ACCESS")

	return &dto.AuditLogResponse{AuditLogs: entries, Count: len(entries)}, nil
}

func (svc *AdminService) databaseHealth() dto.ComponentHealth {
	if err := svc.sqlSvc.Ping(); err != nil {
		return dto.ComponentHealth{Status: "unhealthy", Message: "Database connection failed"}
	}
	return dto.ComponentHealth{Status: "healthy", Message: "Database connection OK"}
}

func (svc *AdminService) cacheHealth(ctx goContext.Context) dto.ComponentHealth {
	if err := svc.cache.Set(ctx, "health_check", true, time.Minute); err != nil {
		return dto.ComponentHealth{Status: "unhealthy", Message: "Cache connection failed"}
	}
	value, err := svc.cache.Get(ctx, "health_check")
	if err != nil || value == "" {
		return dto.ComponentHealth{Status: "degraded", Message: "Cache read failed"}
	}
	return dto.ComponentHealth{Status: "healthy", Message: "Cache connection OK"}
}

func (svc *AdminService) cacheStatus(ctx goContext.Context) string {
	if svc.cacheHealth(ctx).Status == "healthy" {
		return "healthy"
	}
	return "degraded"
}

// UserInfo maps a user record to its admin-facing shape. Mobile numbers
// are always masked on the way out.
func UserInfo(user *model.User) dto.AdminUserInfo {
	return dto.AdminUserInfo{
		ID:           user.ID,
		MobileMasked: user.MobileMasked(),
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		Type:         user.Type,
		IsActive:     user.IsActive,
		IsSuperuser:  user.IsSuperuser,
		LastLogin:    formatTime(user.LastLogin),
	}
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	formatted := t.Format(time.RFC3339)
	return &formatted
}
