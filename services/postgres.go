package services

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/asoud-market/asoud_api/dto"
	"github.com/asoud-market/asoud_api/model"
	"github.com/asoud-market/asoud_api/shared"
)

type PostgresService struct {
	context.DefaultService
	db *gorm.DB

	database string
}

const POSTGRES_SVC = "postgres_svc"

var ErrUserNotFound = errors.New("user not found")
var ErrTokenNotFound = errors.New("token not found")

func (ds PostgresService) Id() string {
	return POSTGRES_SVC
}

func (ds PostgresService) Db() *gorm.DB {
	return ds.db
}

func (ds *PostgresService) Configure(ctx *context.Context) error {
	ds.database = os.Getenv("DATABASE_URL")
	if ds.database == "" {
		// Fallback to individual environment variables
		host := os.Getenv("DB_HOST")
		if host == "" {
			host = "localhost"
		}
		port := os.Getenv("DB_PORT")
		if port == "" {
			port = "5432"
		}
		user := os.Getenv("DB_USER")
		if user == "" {
			user = "postgres"
		}
		password := os.Getenv("DB_PASSWORD")
		if password == "" {
			password = "postgres"
		}
		dbname := os.Getenv("DB_NAME")
		if dbname == "" {
			dbname = "asoud_api"
		}
		sslmode := os.Getenv("DB_SSLMODE")
		if sslmode == "" {
			sslmode = "disable"
		}
		timezone := os.Getenv("DB_TIMEZONE")
		if timezone == "" {
			timezone = "UTC"
		}

		ds.database = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
			host, user, password, dbname, port, sslmode, timezone)
	}

	return ds.DefaultService.Configure(ctx)
}

func (ds *PostgresService) Start() (err error) {
	// Retry connection with exponential backoff
	maxRetries := 10
	retryDelay := time.Second

	for attempt := 1; attempt <= maxRetries; attempt++ {
		log.Printf("Attempting to connect to database (attempt %d/%d)...", attempt, maxRetries)

		ds.db, err = gorm.Open(postgres.Open(ds.database), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Error),
		})

		if err == nil {
			sqlDB, dbErr := ds.db.DB()
			if dbErr == nil {
				pingErr := sqlDB.Ping()
				if pingErr == nil {
					log.Println("Successfully connected to database")
					break
				}
				err = pingErr
			} else {
				err = dbErr
			}
		}

		if attempt == maxRetries {
			log.Printf("Failed to connect to database after %d attempts: %v", maxRetries, err)
			return err
		}

		log.Printf("Database connection failed: %v. Retrying in %v...", err, retryDelay)
		time.Sleep(retryDelay)

		retryDelay *= 2
		if retryDelay > 10*time.Second {
			retryDelay = 10 * time.Second
		}
	}

	models := []interface{}{
		&model.User{},
		&model.AuthToken{},

		// Marketplace collaborators, counted by the admin dashboard
		&model.Market{},
		&model.Product{},
		&model.Payment{},
	}

	return ds.db.AutoMigrate(models...)
}

// Ping verifies database connectivity for health checks.
func (ds *PostgresService) Ping() error {
	sqlDB, err := ds.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// ==================== CREDENTIAL STORE ====================

// VerifyToken exchanges an opaque bearer key for its owning user. The
// lookup is read-only; account state checks belong to the authenticator.
func (ds *PostgresService) VerifyToken(key string) (*model.User, *model.AuthToken, error) {
	var token model.AuthToken
	err := ds.db.Preload("User").Where("key = ?", key).First(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	return &token.User, &token, nil
}

func (ds *PostgresService) GetUserByID(userID string) (*model.User, error) {
	var user model.User
	err := ds.db.Where("id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (ds *PostgresService) GetUserByMobile(mobile string) (*model.User, error) {
	var user model.User
	err := ds.db.Where("mobile_number = ?", mobile).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (ds *PostgresService) SaveUser(user *model.User) error {
	return ds.db.Save(user).Error
}

// RotateToken replaces the user's bearer token with a fresh key.
func (ds *PostgresService) RotateToken(userID, key string) (*model.AuthToken, error) {
	token := &model.AuthToken{Key: key, UserID: userID}
	err := ds.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&model.AuthToken{}).Error; err != nil {
			return err
		}
		return tx.Create(token).Error
	})
	if err != nil {
		return nil, err
	}
	return token, nil
}

// ==================== ADMIN QUERIES ====================

func (ds *PostgresService) SearchUsers(req dto.AdminUserListRequest) ([]model.User, int64, error) {
	query := ds.db.Model(&model.User{})

	if req.Search != "" {
		pattern := "%" + req.Search + "%"
		query = query.Where(
			"mobile_number ILIKE ? OR first_name ILIKE ? OR last_name ILIKE ?",
			pattern, pattern, pattern,
		)
	}
	if req.Type != "" {
		query = query.Where("type = ?", req.Type)
	}
	if req.Active != "" {
		query = query.Where("is_active = ?", req.Active == "true")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []model.User
	offset := (req.Page - 1) * req.Limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(req.Limit).Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (ds *PostgresService) CountMarketsByOwner(userID string) (int64, error) {
	var count int64
	err := ds.db.Model(&model.Market{}).Where("owner_id = ?", userID).Count(&count).Error
	return count, err
}

func (ds *PostgresService) UserStats() (*dto.UserStats, error) {
	stats := &dto.UserStats{UserTypes: map[string]int64{}}

	users := ds.db.Model(&model.User{})
	if err := users.Count(&stats.TotalUsers).Error; err != nil {
		return nil, err
	}
	if err := ds.db.Model(&model.User{}).Where("is_active = ?", true).Count(&stats.ActiveUsers).Error; err != nil {
		return nil, err
	}

	today := time.Now().Truncate(24 * time.Hour)
	if err := ds.db.Model(&model.User{}).Where("created_at >= ?", today).Count(&stats.NewUsersToday).Error; err != nil {
		return nil, err
	}

	for _, userType := range []string{shared.UserTypeUser, shared.UserTypeOwner, shared.UserTypeMarketer} {
		var count int64
		if err := ds.db.Model(&model.User{}).Where("type = ?", userType).Count(&count).Error; err != nil {
			return nil, err
		}
		stats.UserTypes[userType+"s"] = count
	}

	return stats, nil
}

func (ds *PostgresService) MarketStats() (*dto.MarketStats, error) {
	stats := &dto.MarketStats{}

	if err := ds.db.Model(&model.Market{}).Count(&stats.TotalMarkets).Error; err != nil {
		return nil, err
	}
	if err := ds.db.Model(&model.Market{}).Where("status = ?", model.MarketStatusPublished).Count(&stats.PublishedMarkets).Error; err != nil {
		return nil, err
	}
	if err := ds.db.Model(&model.Market{}).Where("status = ?", model.MarketStatusQueue).Count(&stats.PendingMarkets).Error; err != nil {
		return nil, err
	}
	if err := ds.db.Model(&model.Market{}).Where("is_paid = ?", true).Count(&stats.PaidMarkets).Error; err != nil {
		return nil, err
	}

	return stats, nil
}

func (ds *PostgresService) ProductStats() (*dto.ProductStats, error) {
	stats := &dto.ProductStats{}

	if err := ds.db.Model(&model.Product{}).Count(&stats.TotalProducts).Error; err != nil {
		return nil, err
	}
	if err := ds.db.Model(&model.Product{}).Where("status = ?", model.ProductStatusPublished).Count(&stats.PublishedProducts).Error; err != nil {
		return nil, err
	}
	if err := ds.db.Model(&model.Product{}).Where("status = ?", model.ProductStatusDraft).Count(&stats.DraftProducts).Error; err != nil {
		return nil, err
	}

	return stats, nil
}

func (ds *PostgresService) PaymentStats() (*dto.PaymentStats, error) {
	stats := &dto.PaymentStats{}

	if err := ds.db.Model(&model.Payment{}).Count(&stats.TotalPayments).Error; err != nil {
		return nil, err
	}

	thirtyDaysAgo := time.Now().AddDate(0, 0, -30)
	if err := ds.db.Model(&model.Payment{}).Where("created_at >= ?", thirtyDaysAgo).Count(&stats.RecentPayments).Error; err != nil {
		return nil, err
	}
	if err := ds.db.Model(&model.Payment{}).Where("status = ?", model.PaymentStatusComplete).Count(&stats.CompletedPayments).Error; err != nil {
		return nil, err
	}
	if err := ds.db.Model(&model.Payment{}).Where("status = ?", model.PaymentStatusPending).Count(&stats.PendingPayments).Error; err != nil {
		return nil, err
	}

	return stats, nil
}
