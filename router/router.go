package router

import (
	"context"
	"log"
	"net/http"
	"slices"
	"time"

	"clarity/api"
	"clarity/config"
	"clarity/database"
	_ "clarity/docs"
	"clarity/middleware"
	"clarity/service"
	"clarity/store"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

const healthTimeout = 2 * time.Second

// SetupRouter wires stores and handlers over db and registers every route
func SetupRouter(cfg *config.Config, db *gorm.DB) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(middleware.RequestID(), gin.Logger(), gin.Recovery())
	r.Use(CORSMiddleware(cfg.CORS.AllowedOrigins))

	timeout := cfg.Database.AcquireTimeout()
	users := store.NewUserStore(db, timeout)
	transactions := store.NewTransactionStore(db, timeout)

	// Swagger docs
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.GET("/health", HealthHandler(db))

	apiGroup := r.Group("/api")
	{
		authHandler := api.NewAuthHandler(cfg, users, service.NewEmailService(&cfg.Email))
		auth := apiGroup.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)

			me := auth.Group("/me", middleware.JWTAuth())
			me.GET("", authHandler.Me)
			me.DELETE("", authHandler.DeleteMe)
		}

		transactionHandler := api.NewTransactionHandler(transactions)
		exportHandler := api.NewExportHandler(transactions)
		txs := apiGroup.Group("/transactions", middleware.JWTAuth())
		{
			txs.POST("", transactionHandler.Create)
			txs.GET("", transactionHandler.List)
			// static paths before /:id
			txs.GET("/summary", transactionHandler.Summary)
			txs.GET("/categories", transactionHandler.Categories)
			txs.GET("/export/csv", exportHandler.ExportCSV)
			txs.GET("/export/excel", exportHandler.ExportExcel)
			txs.GET("/:id", transactionHandler.Get)
			txs.PUT("/:id", transactionHandler.Update)
			txs.DELETE("/:id", transactionHandler.Delete)
		}
	}

	return r
}

// HealthHandler reports liveness and whether the database answers a ping
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string "status and database state"
// @Router /health [get]
func HealthHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()

		status, dbState := "ok", "up"
		if err := database.Ping(ctx, db); err != nil {
			log.Printf("[%s] health: %v", middleware.GetRequestID(c), err)
			status, dbState = "degraded", "down"
		}

		c.JSON(http.StatusOK, gin.H{
			"status":   status,
			"database": dbState,
		})
	}
}

// CORSMiddleware allows the configured origins. A "*" entry, or none at
// all, allows any origin without credentials.
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Content-Length", "Accept", "Authorization", "Cache-Control", "X-Requested-With", middleware.RequestIDHeader}
	cfg.ExposeHeaders = []string{"Content-Disposition", middleware.RequestIDHeader}
	cfg.MaxAge = 12 * time.Hour

	if len(allowedOrigins) == 0 || slices.Contains(allowedOrigins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = allowedOrigins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}
