package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arnavshah/staffing-engine-go/pkg/auth"
	"github.com/arnavshah/staffing-engine-go/pkg/config"
	"github.com/arnavshah/staffing-engine-go/pkg/database"
	"github.com/arnavshah/staffing-engine-go/pkg/handlers"
	"github.com/arnavshah/staffing-engine-go/pkg/staffing"
)

var (
	r       *gin.Engine
	initErr error
)

func init() {
	// .env is only present under `vercel dev`
	config.LoadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		initErr = err
		return
	}
	if err := config.InitLogger(cfg.Log); err != nil {
		initErr = err
		return
	}
	auth.Configure(cfg.Auth)

	db, err := database.InitDB(cfg.Database)
	if err != nil {
		initErr = err
		return
	}
	if err := auth.EnsureAdminExists(db, cfg.Admin.Username, cfg.Admin.Password); err != nil {
		zap.L().Warn("could not seed admin user", zap.Error(err))
	}

	gin.SetMode(gin.ReleaseMode)
	r = gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	svc := staffing.NewService(database.NewStore(db), cfg.Features.PlanningStatus, cfg.Budget)
	handlers.New(db, svc).Register(r)
}

// Handler is the entry point for Vercel Go Runtime
func Handler(w http.ResponseWriter, req *http.Request) {
	if initErr != nil {
		zap.L().Error("startup failed", zap.Error(initErr))
		http.Error(w, `{"error":"service unavailable"}`, http.StatusServiceUnavailable)
		return
	}
	r.ServeHTTP(w, req)
}
