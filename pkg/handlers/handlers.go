package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/arnavshah/staffing-engine-go/pkg/auth"
	"github.com/arnavshah/staffing-engine-go/pkg/database"
	"github.com/arnavshah/staffing-engine-go/pkg/staffing"
)

// Version is reported by the index route.
const Version = "3.0.0"

// Handler contains dependencies for the route handlers
type Handler struct {
	DB      *gorm.DB
	Store   *database.Store
	Service *staffing.Service
}

// New wires a handler around an open database.
func New(db *gorm.DB, svc *staffing.Service) *Handler {
	return &Handler{DB: db, Store: database.NewStore(db), Service: svc}
}

// Register mounts every route on r.
func (h *Handler) Register(r *gin.Engine) {
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message":     "Staffing Engine API",
			"version":     Version,
			"schema_mode": h.Service.Planning().Mode(),
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/admin/login", h.Login)

	admin := r.Group("/admin")
	admin.Use(h.AuthMiddleware())
	{
		admin.GET("/autofill-usage", h.AutoFillUsage)
	}

	api := r.Group("/api")
	api.Use(h.APIKeyMiddleware())
	{
		api.GET("/schedule/rows", h.ScheduleRows)
		api.GET("/coverage", h.Coverage)
		api.GET("/coverage/cell", h.CoverageCell)
		api.GET("/budget", h.Budget)
		api.GET("/reports/staffing.xlsx", h.StaffingReport)
		api.POST("/autofill", h.AutoFill)
		api.POST("/autofill/preview", h.PreviewAutoFill)
		api.GET("/tickets", h.Tickets)
		api.PUT("/tickets/:id/planning-status", h.UpdatePlanningStatus)
		api.POST("/validate", h.ValidateRange)
	}
}

func bearer(c *gin.Context) string {
	return strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
}

// AuthMiddleware verifies the JWT token for admin routes
func (h *Handler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearer(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		claims, err := auth.VerifyToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set("username", claims.Username)
		c.Next()
	}
}

// APIKeyMiddleware verifies the HMAC-signed API key for staffing routes
func (h *Handler) APIKeyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := bearer(c)
		if key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "API Key required"})
			return
		}

		clientID, err := auth.VerifyHMACKey(key)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid API Key signature"})
			return
		}

		c.Set("clientID", clientID)
		c.Next()
	}
}

// Login handles admin login
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := auth.Authenticate(h.DB, req.Username, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"access_token": token, "token_type": "bearer"})
}
