package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/ova-3d-platform/internal/lottery-service/auth"
	"github.com/radieske/ova-3d-platform/internal/lottery-service/repo"
	"github.com/radieske/ova-3d-platform/internal/shared/config"
	"github.com/radieske/ova-3d-platform/internal/shared/db"
	"github.com/radieske/ova-3d-platform/internal/shared/logger"
)

// migrate aplica o schema e garante o usuário admin inicial
func main() {
	cfg := config.Load()
	log, err := logger.New("migrate", cfg.Env)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	if err := db.Migrate(ctx, pg); err != nil {
		log.Fatal("migrate", zap.Error(err))
	}
	log.Info("schema applied")

	if cfg.AdminPassword == "" {
		log.Fatal("ADMIN_PASSWORD is required to seed the admin user")
	}
	hash, err := auth.HashPassword(cfg.AdminPassword)
	if err != nil {
		log.Fatal("hash admin password", zap.Error(err))
	}
	created, err := repo.NewPostgres(pg).EnsureAdmin(ctx, cfg.AdminUsername, hash)
	if err != nil {
		log.Fatal("seed admin", zap.Error(err))
	}
	log.Info("admin user ready", zap.String("username", cfg.AdminUsername), zap.Bool("created", created))
}
