package main

import (
	"os"

	"github.com/alphabatem/common/context"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/asoud-market/asoud_api/services"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("Error loading .env file")
	}

	ctx, err := context.NewCtx(
		&services.RedisService{},
		&services.PostgresService{},

		&services.TokenAuthService{},
		&services.AdminPermissionService{},
		&services.AuditService{},
		&services.AdminSecurityService{},

		&services.AuthService{},
		&services.AdminService{},

		&services.MonitoringService{},
		&services.HttpService{},
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure services")
		return
	}

	if err := ctx.Run(); err != nil {
		log.Fatal().Err(err).Msg("Service runtime exited")
	}
}
