package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/nasulife/nasutomo/internal/config"
	"github.com/nasulife/nasutomo/internal/middleware"
)

// NewRouter builds the gin engine: recovery, CORS, health endpoint and
// the authenticated /api group with all provided registrars attached.
func NewRouter(cfg *config.Config, registrars ...Registrar) *gin.Engine {
	if cfg.App.ENV != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:           12 * time.Hour,
		AllowCredentials: false,
	}))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.Use(middleware.Auth(cfg.Auth.JWTSecret))
	for _, reg := range registrars {
		reg.Register(api)
	}

	return r
}

// StartHTTPServer boots the API server and blocks until it exits.
func StartHTTPServer(cfg *config.Config, registrars ...Registrar) error {
	r := NewRouter(cfg, registrars...)
	addr := fmt.Sprintf("%s:%s", cfg.HTTP.Host, cfg.HTTP.Port)
	return r.Run(addr)
}
