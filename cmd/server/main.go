package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arnavshah/staffing-engine-go/pkg/auth"
	"github.com/arnavshah/staffing-engine-go/pkg/config"
	"github.com/arnavshah/staffing-engine-go/pkg/database"
	"github.com/arnavshah/staffing-engine-go/pkg/handlers"
	"github.com/arnavshah/staffing-engine-go/pkg/staffing"
)

func main() {
	config.LoadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}
	if err := config.InitLogger(cfg.Log); err != nil {
		log.Fatalf("could not init logger: %v", err)
	}
	defer zap.L().Sync()

	if cfg.Server.GinMode == "" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(cfg.Server.GinMode)
	}

	auth.Configure(cfg.Auth)

	db, err := database.InitDB(cfg.Database)
	if err != nil {
		zap.L().Fatal("could not open database", zap.Error(err))
	}
	if err := auth.EnsureAdminExists(db, cfg.Admin.Username, cfg.Admin.Password); err != nil {
		zap.L().Warn("could not seed admin user", zap.Error(err))
	}

	svc := staffing.NewService(database.NewStore(db), cfg.Features.PlanningStatus, cfg.Budget)

	r := gin.Default()
	handlers.New(db, svc).Register(r)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	zap.L().Info("server starting", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		zap.L().Fatal("could not run server", zap.Error(err))
	}
}
