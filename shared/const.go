package shared

import (
	"fmt"
	"time"
)

const (
	UserID     = "user_id"
	AdminUser  = "admin_user"
	AdminToken = "admin_token"
	IPBlocked  = "ip_blocked"

	UserTypeUser     = "user"
	UserTypeOwner    = "owner"
	UserTypeMarketer = "marketer"
)

// Cache TTLs and thresholds for the admin security gateway.
const (
	FailedAttemptTTL   = time.Hour
	FailedAttemptLimit = 3

	RequestTrackingTTL   = 5 * time.Minute
	RequestTrackingAlert = 50

	RateLimitTTL          = time.Hour
	DefaultAdminRateLimit = 100

	SessionFingerprintTTL = time.Hour
	SessionValidTTL       = 30 * time.Minute

	AuditRecordTTL = 7 * 24 * time.Hour
)

// Cache key builders. Every counter and marker the gateway keeps lives
// under one of these namespaces; nothing else writes to them.

func FailedAttemptKey(ip string) string {
	return fmt.Sprintf("admin_failed_%s", ip)
}

func RequestTrackingKey(userID string) string {
	return fmt.Sprintf("admin_requests_%s", userID)
}

func RateLimitKey(userID string) string {
	return fmt.Sprintf("admin_rate_limit_%s", userID)
}

func SessionFingerprintKey(userID string) string {
	return fmt.Sprintf("admin_session_%s", userID)
}

func SessionValidKey(userID string) string {
	return fmt.Sprintf("admin_session_valid_%s", userID)
}

func SessionInvalidatedKey(userID string) string {
	return fmt.Sprintf("admin_session_invalidated_%s", userID)
}

func AuditRecordKey(userID string, unix int64) string {
	return fmt.Sprintf("admin_audit_%s_%d", userID, unix)
}

func AuditRecordPattern(userID string) string {
	return fmt.Sprintf("admin_audit_%s_*", userID)
}
