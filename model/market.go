package model

import "time"

// Marketplace entities owned by the domain apps. The admin backend only
// ever counts them for dashboard statistics.

const (
	MarketStatusQueue     = "queue"
	MarketStatusPublished = "published"

	ProductStatusDraft     = "draft"
	ProductStatusPublished = "published"

	PaymentStatusPending  = "pending"
	PaymentStatusComplete = "complete"
)

type Market struct {
	ID        string `gorm:"primaryKey"`
	OwnerID   string `gorm:"index"`
	Name      string
	Status    string `gorm:"index;default:queue"`
	IsPaid    bool   `gorm:"default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Product struct {
	ID        string `gorm:"primaryKey"`
	MarketID  string `gorm:"index"`
	Name      string
	Status    string `gorm:"index;default:draft"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Payment struct {
	ID        string `gorm:"primaryKey"`
	UserID    string `gorm:"index"`
	Amount    int64
	Status    string `gorm:"index;default:pending"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
