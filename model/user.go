package model

import "time"

type User struct {
	ID           string `gorm:"primaryKey"`
	MobileNumber string `gorm:"uniqueIndex;not null"`
	FirstName    string
	LastName     string
	Password     string
	Type         string `gorm:"index;default:user"`
	IsActive     bool   `gorm:"index;default:true"`
	IsSuperuser  bool   `gorm:"default:false"`
	LastLogin    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// MobileMasked keeps only the last four digits for logs and responses.
func (u *User) MobileMasked() string {
	if len(u.MobileNumber) < 4 {
		return "***"
	}
	return "***" + u.MobileNumber[len(u.MobileNumber)-4:]
}

// AuthToken is the opaque bearer capability exchanged for a User. One
// active token per user; rotation replaces the key in place.
type AuthToken struct {
	Key       string `gorm:"primaryKey"`
	UserID    string `gorm:"uniqueIndex;not null"`
	User      User   `gorm:"foreignKey:UserID"`
	CreatedAt time.Time
}
