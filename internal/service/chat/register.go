package chat

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/nasulife/nasutomo/internal/app"
	svcErr "github.com/nasulife/nasutomo/internal/errors"
	"github.com/nasulife/nasutomo/internal/middleware"
	"github.com/nasulife/nasutomo/internal/ws"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// browser clients connect from the app origin; auth happens via
	// the token, not the origin
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Registrar ties the chat endpoints into the API router.
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the chat service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches room, history, send and subscribe routes.
func (r *Registrar) Register(rg *gin.RouterGroup) {
	svc := NewService(r.appCtx)

	rooms := rg.Group("/chat/rooms")

	rooms.POST("", func(c *gin.Context) {
		var in struct {
			PartnerID string `json:"partnerId" binding:"required"`
		}
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "partnerId is required"})
			return
		}
		view, err := svc.OpenRoom(c.Request.Context(), middleware.UserID(c), in.PartnerID)
		if err != nil {
			status, msg := svcErr.Map(err)
			c.JSON(status, gin.H{"error": msg})
			return
		}
		c.JSON(http.StatusOK, view)
	})

	rooms.GET("", func(c *gin.Context) {
		views, err := svc.Rooms(c.Request.Context(), middleware.UserID(c))
		if err != nil {
			status, msg := svcErr.Map(err)
			c.JSON(status, gin.H{"error": msg})
			return
		}
		c.JSON(http.StatusOK, views)
	})

	rooms.GET("/:id/messages", func(c *gin.Context) {
		var olderToken *string
		if t := c.Query("cursor"); t != "" {
			olderToken = &t
		}
		history, err := svc.History(c.Request.Context(), middleware.UserID(c), c.Param("id"), olderToken)
		if err != nil {
			status, msg := svcErr.Map(err)
			c.JSON(status, gin.H{"error": msg})
			return
		}
		c.JSON(http.StatusOK, history)
	})

	rooms.POST("/:id/messages", func(c *gin.Context) {
		var in struct {
			Text string `json:"text"`
		}
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed message payload"})
			return
		}
		view, err := svc.Send(c.Request.Context(), middleware.UserID(c), c.Param("id"), in.Text)
		if err != nil {
			status, msg := svcErr.Map(err)
			c.JSON(status, gin.H{"error": msg})
			return
		}
		if view == nil {
			// empty after trim: nothing stored
			c.Status(http.StatusNoContent)
			return
		}
		c.JSON(http.StatusCreated, view)
	})

	rooms.GET("/:id/subscribe", func(c *gin.Context) {
		userID := middleware.UserID(c)
		roomID := c.Param("id")

		if err := svc.Authorize(c.Request.Context(), userID, roomID); err != nil {
			status, msg := svcErr.Map(err)
			c.JSON(status, gin.H{"error": msg})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			r.appCtx.Logger.Error("ws upgrade failed", "room", roomID, "err", err)
			return
		}

		client := ws.NewClient(r.appCtx.Hub, conn, roomID, userID)
		go client.Run()
	})
}
