package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asoud-market/asoud_api/model"
)

// newAuditService builds the service with a clock that ticks one second
// per record so every write lands on a distinct cache key.
func newAuditService(cache Cache, queueSize int) *AuditService {
	base := time.Unix(1700000000, 0)
	tick := 0
	return &AuditService{
		cache: cache,
		queue: make(chan model.AuditRecord, queueSize),
		stop:  make(chan struct{}),
		now: func() time.Time {
			tick++
			return base.Add(time.Duration(tick) * time.Second)
		},
	}
}

func TestAuditRecordAndFlush(t *testing.T) {
	cache := NewMemoryCache()
	svc := newAuditService(cache, auditQueueSize)
	user := adminUser()

	svc.Record(user, "/api/v1/secure-admin/users", "GET", "203.0.113.7", 200)
	svc.Flush()

	records, err := svc.RecentRecords(context.Background(), user.ID, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)

	record := records[0]
	assert.Equal(t, user.ID, record.UserID)
	assert.Equal(t, "***6789", record.MobileLast4)
	assert.Equal(t, "/api/v1/secure-admin/users", record.Action)
	assert.Equal(t, "GET", record.Method)
	assert.Equal(t, "203.0.113.7", record.IP)
	assert.Equal(t, 200, record.Status)
	assert.NotZero(t, record.Timestamp)
}

func TestAuditFullQueueDropsRecord(t *testing.T) {
	cache := NewMemoryCache()
	svc := newAuditService(cache, 1)
	user := adminUser()

	svc.Record(user, "/a", "GET", "203.0.113.7", 200)
	svc.Record(user, "/b", "GET", "203.0.113.7", 200)
	svc.Flush()

	records, err := svc.RecentRecords(context.Background(), user.ID, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "/a", records[0].Action)
}

func TestAuditRecentRecordsOrderAndLimit(t *testing.T) {
	cache := NewMemoryCache()
	svc := newAuditService(cache, auditQueueSize)
	user := adminUser()

	svc.Record(user, "/first", "GET", "203.0.113.7", 200)
	svc.Record(user, "/second", "GET", "203.0.113.7", 200)
	svc.Record(user, "/third", "PATCH", "203.0.113.7", 403)
	svc.Flush()

	records, err := svc.RecentRecords(context.Background(), user.ID, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "/third", records[0].Action)
	assert.Equal(t, "/second", records[1].Action)
}

func TestAuditRecentRecordsScopedByUser(t *testing.T) {
	cache := NewMemoryCache()
	svc := newAuditService(cache, auditQueueSize)

	first := adminUser()
	second := adminUser()
	second.ID = "admin-2"

	svc.Record(first, "/a", "GET", "203.0.113.7", 200)
	svc.Record(second, "/b", "GET", "203.0.113.8", 200)
	svc.Flush()

	records, err := svc.RecentRecords(context.Background(), first.ID, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, first.ID, records[0].UserID)

	all, err := svc.RecentRecords(context.Background(), "", 10)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestAuditRecordsExpire(t *testing.T) {
	cache := NewMemoryCache()
	svc := newAuditService(cache, auditQueueSize)
	user := adminUser()

	svc.Record(user, "/a", "GET", "203.0.113.7", 200)
	svc.Flush()

	cache.Advance(8 * 24 * time.Hour)

	records, err := svc.RecentRecords(context.Background(), user.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, records)
}
