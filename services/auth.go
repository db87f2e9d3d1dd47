package services

import (
	"strings"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/asoud-market/asoud_api/dto"
	"github.com/asoud-market/asoud_api/shared"
)

// AuthService owns the user-facing credential lifecycle: password login
// issuing the opaque bearer token the admin gateway later exchanges, and
// logout revoking it. It sits outside the admin path prefix and performs
// none of the gateway checks.
type AuthService struct {
	context.DefaultService

	sqlSvc *PostgresService
}

const AUTH_SVC = "auth_svc"

func (svc AuthService) Id() string {
	return AUTH_SVC
}

func (svc *AuthService) Configure(ctx *context.Context) error {
	return svc.DefaultService.Configure(ctx)
}

func (svc *AuthService) Start() error {
	svc.sqlSvc = svc.Service(POSTGRES_SVC).(*PostgresService)
	return nil
}

func (svc *AuthService) Login(req dto.LoginRequest, clientIP string) (*dto.LoginResponse, error) {
	user, err := svc.sqlSvc.GetUserByMobile(req.MobileNumber)
	if err != nil {
		log.WithField("ip", clientIP).Warn("Login attempt for unknown mobile number")
		return nil, shared.NewUnauthorizedError("invalid_credentials", "Invalid mobile number or password")
	}

	if !user.IsActive {
		return nil, shared.NewUnauthorizedError("user_inactive", "User inactive or deleted.")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		log.WithFields(log.Fields{
			"user_id": user.ID,
			"ip":      clientIP,
		}).Warn("Login attempt with wrong password")
		return nil, shared.NewUnauthorizedError("invalid_credentials", "Invalid mobile number or password")
	}

	token, err := svc.sqlSvc.RotateToken(user.ID, newTokenKey())
	if err != nil {
		return nil, shared.NewInternalError(err)
	}

	now := time.Now()
	user.LastLogin = &now
	if err := svc.sqlSvc.SaveUser(user); err != nil {
		log.WithField("user_id", user.ID).WithError(err).Warn("Failed to update last login")
	}

	log.WithFields(log.Fields{
		"user_id": user.ID,
		"ip":      clientIP,
	}).Info("User logged in")

	return &dto.LoginResponse{
		Token: token.Key,
		User:  UserInfo(user),
	}, nil
}

func (svc *AuthService) Logout(key string) error {
	_, token, err := svc.sqlSvc.VerifyToken(key)
	if err != nil {
		return shared.NewUnauthorizedError("invalid_token", "Invalid token.")
	}
	return svc.sqlSvc.Db().Delete(token).Error
}

// HashPassword produces the stored bcrypt digest for a plaintext password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// newTokenKey mints an opaque bearer key. Two UUIDs keep the key length
// in line with the 64-character tokens the mobile clients already store.
func newTokenKey() string {
	return strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
}
