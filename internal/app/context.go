package app

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/nasulife/nasutomo/internal/cache"
	"github.com/nasulife/nasutomo/internal/ws"
)

// AppContext holds shared dependencies (DB, Redis, Hub, Logger, etc.)
type AppContext struct {
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Hub        *ws.Hub
	Logger     *slog.Logger
}

// New creates a new AppContext
func New(db *gorm.DB, rdb *cache.RedisCache, hub *ws.Hub, logger *slog.Logger) *AppContext {
	return &AppContext{
		DB:         db,
		RedisCache: rdb,
		Hub:        hub,
		Logger:     logger,
	}
}
