package services

import (
	goContext "context"
	"encoding/json"
	"sort"
	"time"

	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"

	"github.com/asoud-market/asoud_api/model"
	"github.com/asoud-market/asoud_api/shared"
)

// AuditService appends one immutable record per admin response to the
// cache and mirrors it on the log stream. Writes are fire-and-forget
// through a bounded queue: a full queue drops the record with a warning
// and a write failure is swallowed, never surfaced to the request.
type AuditService struct {
	context.DefaultService

	cache Cache

	queue chan model.AuditRecord
	stop  chan struct{}

	now func() time.Time
}

const AUDIT_SVC = "audit_svc"

const auditQueueSize = 256

func (svc AuditService) Id() string {
	return AUDIT_SVC
}

func (svc *AuditService) Configure(ctx *context.Context) error {
	svc.queue = make(chan model.AuditRecord, auditQueueSize)
	svc.stop = make(chan struct{})
	svc.now = time.Now
	return svc.DefaultService.Configure(ctx)
}

func (svc *AuditService) Start() error {
	svc.cache = svc.Service(REDIS_SVC).(*RedisService).Client()
	go svc.consume()
	return nil
}

func (svc *AuditService) Shutdown() {
	close(svc.stop)
}

// Record enqueues one audit entry. Never blocks and never errors; when
// the queue is full the record is dropped and counted.
func (svc *AuditService) Record(user *model.User, action, method, ip string, status int) {
	record := model.AuditRecord{
		UserID:      user.ID,
		MobileLast4: user.MobileMasked(),
		Action:      action,
		Method:      method,
		IP:          ip,
		Status:      status,
		Timestamp:   float64(svc.now().UnixNano()) / float64(time.Second),
	}

	select {
	case svc.queue <- record:
	default:
		adminAuditDroppedTotal.Inc()
		log.WithField("user_id", record.UserID).Warn("Audit queue full, record dropped")
	}
}

func (svc *AuditService) consume() {
	for {
		select {
		case record := <-svc.queue:
			svc.write(record)
		case <-svc.stop:
			svc.Flush()
			return
		}
	}
}

// Flush writes everything currently queued. Called on shutdown; tests use
// it to make the async sink deterministic.
func (svc *AuditService) Flush() {
	for {
		select {
		case record := <-svc.queue:
			svc.write(record)
		default:
			return
		}
	}
}

func (svc *AuditService) write(record model.AuditRecord) {
	data, err := json.Marshal(record)
	if err != nil {
		log.WithError(err).Warn("Audit record marshal failed")
		return
	}

	key := shared.AuditRecordKey(record.UserID, int64(record.Timestamp))
	if err := svc.cache.Set(goContext.Background(), key, data, shared.AuditRecordTTL); err != nil {
		log.WithField("user_id", record.UserID).WithError(err).Warn("Audit record write failed")
		return
	}

	adminAuditRecordsTotal.Inc()
	log.WithFields(log.Fields{
		"user_id": record.UserID,
		"action":  record.Action,
		"method":  record.Method,
		"ip":      record.IP,
		"status":  record.Status,
	}).Info("ADMIN_AUDIT")
}

// RecentRecords reads back the stored trail, newest first. An empty
// userID returns records for every principal.
func (svc *AuditService) RecentRecords(ctx goContext.Context, userID string, limit int) ([]model.AuditRecord, error) {
	pattern := shared.AuditRecordPattern(userID)
	if userID == "" {
		pattern = "admin_audit_*"
	}

	keys, err := svc.cache.Keys(ctx, pattern)
	if err != nil {
		return nil, err
	}

	records := make([]model.AuditRecord, 0, len(keys))
	for _, key := range keys {
		raw, err := svc.cache.Get(ctx, key)
		if err != nil || raw == "" {
			continue
		}
		var record model.AuditRecord
		if err := json.Unmarshal([]byte(raw), &record); err != nil {
			continue
		}
		records = append(records, record)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Timestamp > records[j].Timestamp
	})

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}
