package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/shanghai-romance-0210/dark-matter-world/internal/config"
	"github.com/shanghai-romance-0210/dark-matter-world/internal/docstore"
	"github.com/shanghai-romance-0210/dark-matter-world/internal/metrics"
	"github.com/shanghai-romance-0210/dark-matter-world/internal/mw"
	"github.com/shanghai-romance-0210/dark-matter-world/internal/service"
	"github.com/shanghai-romance-0210/dark-matter-world/internal/ws"
)

// SetupRouter 统一初始化 Gin 中间件、REST API 以及 WebSocket 端点。
func SetupRouter(cfg config.Config, store *docstore.Store, hub *ws.Hub) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(metrics.GinMiddleware())
	r.Use(mw.CORS(cfg.Env))
	// 控制单个 IP+路由的速率，避免匿名环境被刷爆。
	r.Use(mw.RateLimit(rate.Every(time.Second/20), 40))

	roomSvc := service.NewRoomService(store)
	msgSvc := service.NewMessageService(store)
	voteSvc := service.NewVoteService(store)
	gameSvc := service.NewGameService(store)
	h := NewHandler(roomSvc, msgSvc, voteSvc, gameSvc, hub, cfg.RoomListLimit)

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")

	api.POST("/rooms", h.CreateRoom)
	api.GET("/rooms", h.ListRooms)
	api.DELETE("/rooms/:id", h.DeleteRoom)

	api.GET("/rooms/:id/messages", h.ListMessages)
	api.POST("/rooms/:id/messages", h.SendMessage)
	api.POST("/rooms/:id/messages/:mid/like", h.LikeMessage)

	api.GET("/rooms/:id/votes", h.ListVotes)
	api.POST("/rooms/:id/votes", h.CreateVote)
	api.POST("/rooms/:id/votes/:vid/cast", h.CastVote)
	api.DELETE("/rooms/:id/votes/:vid", h.DeleteVote)

	api.POST("/games", h.CreateGame)
	api.GET("/games", h.ListGames)
	api.DELETE("/games/:id", h.DeleteGame)

	r.GET("/ws", ws.Serve(hub, store, roomSvc, msgSvc))

	// 渲染出来的 <img src="/stamps/*.png"> 由这里兜底。仓库里只带
	// 占位图，部署时以同名文件替换（见 web/stamps/README.md）。
	r.Static("/stamps", "./web/stamps")

	return r
}
