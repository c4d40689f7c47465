package matches

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nasulife/nasutomo/internal/app"
	svcErr "github.com/nasulife/nasutomo/internal/errors"
	"github.com/nasulife/nasutomo/internal/middleware"
	chatsvc "github.com/nasulife/nasutomo/internal/service/chat"
)

// Registrar ties the matching dashboard endpoints into the API router.
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the matches service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the profile, dashboard and connection routes.
func (r *Registrar) Register(rg *gin.RouterGroup) {
	svc := NewService(r.appCtx)
	chat := chatsvc.NewService(r.appCtx)

	rg.GET("/profile", func(c *gin.Context) {
		view, err := svc.GetProfile(c.Request.Context(), middleware.UserID(c))
		if err != nil {
			status, msg := svcErr.Map(err)
			c.JSON(status, gin.H{"error": msg})
			return
		}
		c.JSON(http.StatusOK, view)
	})

	rg.PUT("/profile", func(c *gin.Context) {
		var in ProfileInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed profile payload"})
			return
		}
		view, err := svc.SaveProfile(c.Request.Context(), middleware.UserID(c), in)
		if err != nil {
			status, msg := svcErr.Map(err)
			c.JSON(status, gin.H{"error": msg})
			return
		}
		c.JSON(http.StatusOK, view)
	})

	rg.GET("/matches", func(c *gin.Context) {
		dash, err := svc.GetDashboard(c.Request.Context(), middleware.UserID(c))
		if err != nil {
			status, msg := svcErr.Map(err)
			c.JSON(status, gin.H{"error": msg})
			return
		}
		c.JSON(http.StatusOK, dash)
	})

	// "connect" and "open chat" are two independent operations; this
	// handler is the composite that today's flow pairs them into.
	rg.POST("/connections", func(c *gin.Context) {
		var in struct {
			TargetID    string `json:"targetId" binding:"required"`
			RequestedAt int64  `json:"requestedAt"`
		}
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "targetId is required"})
			return
		}

		viewerID := middleware.UserID(c)

		var requestedAt time.Time
		if in.RequestedAt > 0 {
			requestedAt = time.UnixMilli(in.RequestedAt)
		}

		created, err := svc.Connect(c.Request.Context(), viewerID, in.TargetID, requestedAt)
		if err != nil {
			status, msg := svcErr.Map(err)
			c.JSON(status, gin.H{"error": msg})
			return
		}

		room, err := chat.OpenRoom(c.Request.Context(), viewerID, in.TargetID)
		if err != nil {
			status, msg := svcErr.Map(err)
			c.JSON(status, gin.H{"error": msg})
			return
		}

		c.JSON(http.StatusOK, gin.H{"created": created, "room": room})
	})
}
