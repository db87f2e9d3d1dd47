package dto

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

type AdminUserInfo struct {
	ID           string  `json:"id"`
	MobileMasked string  `json:"mobile_masked"`
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	Type         string  `json:"type"`
	IsActive     bool    `json:"is_active"`
	IsSuperuser  bool    `json:"is_superuser"`
	LastLogin    *string `json:"last_login"`
}

type AdminUserListRequest struct {
	Page   int
	Limit  int
	Search string
	Type   string
	Active string
}

type AdminUserListResponse struct {
	Users      []AdminUserInfo `json:"users"`
	Pagination Pagination      `json:"pagination"`
}

type AdminUserDetailResponse struct {
	User      AdminUserInfo `json:"user"`
	AdminInfo AdminInfo     `json:"admin_info"`
}

type AdminInfo struct {
	DateJoined   string  `json:"date_joined"`
	LastLogin    *string `json:"last_login"`
	IsActive     bool    `json:"is_active"`
	MarketsCount int64   `json:"markets_count"`
}

type ToggleActiveResponse struct {
	UserID   string `json:"user_id"`
	IsActive bool   `json:"is_active"`
}

type UserStats struct {
	TotalUsers    int64            `json:"total_users"`
	ActiveUsers   int64            `json:"active_users"`
	NewUsersToday int64            `json:"new_users_today"`
	UserTypes     map[string]int64 `json:"user_types"`
}

type MarketStats struct {
	TotalMarkets     int64 `json:"total_markets"`
	PublishedMarkets int64 `json:"published_markets"`
	PendingMarkets   int64 `json:"pending_markets"`
	PaidMarkets      int64 `json:"paid_markets"`
}

type ProductStats struct {
	TotalProducts     int64 `json:"total_products"`
	PublishedProducts int64 `json:"published_products"`
	DraftProducts     int64 `json:"draft_products"`
}

type PaymentStats struct {
	TotalPayments     int64 `json:"total_payments"`
	RecentPayments    int64 `json:"recent_payments"`
	CompletedPayments int64 `json:"completed_payments"`
	PendingPayments   int64 `json:"pending_payments"`
}

type SystemStats struct {
	Timestamp   int64  `json:"timestamp"`
	CacheStatus string `json:"cache_status"`
}

type DashboardStatsResponse struct {
	Users    UserStats    `json:"users"`
	Markets  MarketStats  `json:"markets"`
	Products ProductStats `json:"products"`
	Payments PaymentStats `json:"payments"`
	System   SystemStats  `json:"system"`
}

type SecurityStatusResponse struct {
	SessionValid        bool             `json:"session_valid"`
	PermissionsVerified bool             `json:"permissions_verified"`
	SecurityLevel       string           `json:"security_level"`
	Timestamp           int64            `json:"timestamp"`
	UserInfo            SecurityUserInfo `json:"user_info"`
}

type SecurityUserInfo struct {
	ID           string  `json:"id"`
	MobileMasked string  `json:"mobile_masked"`
	IsSuperuser  bool    `json:"is_superuser"`
	LastLogin    *string `json:"last_login"`
}

type ComponentHealth struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type SystemHealthResponse struct {
	Database  ComponentHealth `json:"database"`
	Cache     ComponentHealth `json:"cache"`
	Security  ComponentHealth `json:"security"`
	Overall   string          `json:"overall"`
	Timestamp int64           `json:"timestamp"`
}

type AuditLogResponse struct {
	AuditLogs []AuditLogEntry `json:"audit_logs"`
	Count     int             `json:"count"`
}

type AuditLogEntry struct {
	UserID      string  `json:"user_id"`
	MobileLast4 string  `json:"mobile_last_4"`
	Action      string  `json:"action"`
	Method      string  `json:"method"`
	IP          string  `json:"ip"`
	Status      int     `json:"status"`
	Timestamp   float64 `json:"timestamp"`
}
