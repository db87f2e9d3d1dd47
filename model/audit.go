package model

// AuditRecord is one immutable entry in the short-term admin audit trail.
// Records live in the cache under admin_audit_{user}_{unix} with a 7 day
// TTL; there is no update or delete path.
type AuditRecord struct {
	UserID      string  `json:"user_id"`
	MobileLast4 string  `json:"mobile_last_4"`
	Action      string  `json:"action"`
	Method      string  `json:"method"`
	IP          string  `json:"ip"`
	Status      int     `json:"status"`
	Timestamp   float64 `json:"timestamp"`
}
