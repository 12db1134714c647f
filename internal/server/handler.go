package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/shanghai-romance-0210/dark-matter-world/internal/roomid"
	"github.com/shanghai-romance-0210/dark-matter-world/internal/service"
	"github.com/shanghai-romance-0210/dark-matter-world/internal/view"
	"github.com/shanghai-romance-0210/dark-matter-world/internal/ws"
)

// Handler 聚合所有 HTTP handler，依赖注入 service 层。
type Handler struct {
	roomSvc   *service.RoomService
	msgSvc    *service.MessageService
	voteSvc   *service.VoteService
	gameSvc   *service.GameService
	hub       *ws.Hub
	roomLimit int
}

func NewHandler(roomSvc *service.RoomService, msgSvc *service.MessageService, voteSvc *service.VoteService, gameSvc *service.GameService, hub *ws.Hub, roomLimit int) *Handler {
	return &Handler{roomSvc: roomSvc, msgSvc: msgSvc, voteSvc: voteSvc, gameSvc: gameSvc, hub: hub, roomLimit: roomLimit}
}

// roomParam 校验并归一化路径里的房间 ID，失败时直接写响应。
func roomParam(c *gin.Context) (string, bool) {
	id, err := roomid.Validate(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}
	return id, true
}

// CreateRoom 处理创建房间请求。ID 已存在时覆盖房间名（last-writer-wins），
// 既有消息与投票不受影响。
func (h *Handler) CreateRoom(c *gin.Context) {
	var req struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	room, err := h.roomSvc.Create(c.Request.Context(), req.ID, req.Name)
	if err != nil {
		var verr *roomid.ValidationError
		if errors.As(err, &verr) || errors.Is(err, service.ErrEmptyRoomName) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Error().Err(err).Str("room_id", req.ID).Msg("create room")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create room"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": room.ID, "name": room.Name})
}

// ListRooms 处理获取房间列表请求，附带各房间的在线人数。
func (h *Handler) ListRooms(c *gin.Context) {
	rooms, err := h.roomSvc.List(c.Request.Context(), h.roomLimit)
	if err != nil {
		log.Error().Err(err).Msg("list rooms")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list rooms"})
		return
	}
	type roomDTO struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Online int    `json:"online"`
	}
	out := make([]roomDTO, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, roomDTO{ID: r.ID, Name: r.Name, Online: h.hub.Online(r.ID)})
	}
	c.JSON(http.StatusOK, gin.H{"rooms": out})
}

// DeleteRoom 处理删除房间请求：先删消息、再删投票、最后删房间文档。
func (h *Handler) DeleteRoom(c *gin.Context) {
	id, ok := roomParam(c)
	if !ok {
		return
	}
	if err := h.roomSvc.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, service.ErrRoomNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}
		log.Error().Err(err).Str("room_id", id).Msg("delete room")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete room"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// ListMessages 返回房间消息的展示投影：最新在前，正文渲染为 HTML。
func (h *Handler) ListMessages(c *gin.Context) {
	id, ok := roomParam(c)
	if !ok {
		return
	}
	msgs, err := h.msgSvc.List(c.Request.Context(), id)
	if err != nil {
		log.Error().Err(err).Str("room_id", id).Msg("list messages")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list messages"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": view.Messages(msgs)})
}

// SendMessage 处理发送消息请求。失败不重试，客户端保留原文重发。
func (h *Handler) SendMessage(c *gin.Context) {
	id, ok := roomParam(c)
	if !ok {
		return
	}
	var req struct {
		Text     string  `json:"text"`
		Username string  `json:"username"`
		ReplyTo  *string `json:"reply_to"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	msg, err := h.msgSvc.Send(c.Request.Context(), id, req.Username, req.Text, req.ReplyTo)
	if err != nil {
		if errors.Is(err, service.ErrEmptyText) || errors.Is(err, service.ErrEmptyUsername) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Error().Err(err).Str("room_id", id).Msg("send message")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send message"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": msg.ID, "created_at": msg.CreatedAt})
}

// LikeMessage 基于客户端先前加载的计数做盲自增。并发点赞存在
// 丢失更新的竞态，见 service.Like 的说明。
func (h *Handler) LikeMessage(c *gin.Context) {
	id, ok := roomParam(c)
	if !ok {
		return
	}
	var req struct {
		Likes int `json:"likes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	err := h.msgSvc.Like(c.Request.Context(), id, c.Param("mid"), req.Likes)
	if err != nil {
		if errors.Is(err, service.ErrMessageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
			return
		}
		log.Error().Err(err).Str("room_id", id).Str("message_id", c.Param("mid")).Msg("like message")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to like message"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"liked": c.Param("mid")})
}

// ListVotes 返回房间投票的展示投影：附带总票数和各选项百分比。
func (h *Handler) ListVotes(c *gin.Context) {
	id, ok := roomParam(c)
	if !ok {
		return
	}
	votes, err := h.voteSvc.List(c.Request.Context(), id)
	if err != nil {
		log.Error().Err(err).Str("room_id", id).Msg("list votes")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list votes"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"votes": view.Votes(votes)})
}

// CreateVote 处理创建投票请求。
func (h *Handler) CreateVote(c *gin.Context) {
	id, ok := roomParam(c)
	if !ok {
		return
	}
	var req struct {
		Question string   `json:"question"`
		Options  []string `json:"options"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	vote, err := h.voteSvc.Create(c.Request.Context(), id, req.Question, req.Options)
	if err != nil {
		if errors.Is(err, service.ErrEmptyQuestion) || errors.Is(err, service.ErrEmptyOption) || errors.Is(err, service.ErrTooFewOptions) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Error().Err(err).Str("room_id", id).Msg("create vote")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create vote"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": vote.ID, "question": vote.Question, "options": vote.Options, "votes": vote.Votes})
}

// CastVote 给指定选项投一票。
func (h *Handler) CastVote(c *gin.Context) {
	id, ok := roomParam(c)
	if !ok {
		return
	}
	var req struct {
		OptionIndex *int `json:"option_index"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.OptionIndex == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	err := h.voteSvc.Cast(c.Request.Context(), id, c.Param("vid"), *req.OptionIndex)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrVoteNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "vote not found"})
		case errors.Is(err, service.ErrBadOptionIndex):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			log.Error().Err(err).Str("room_id", id).Str("vote_id", c.Param("vid")).Msg("cast vote")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to cast vote"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"cast": c.Param("vid")})
}

// DeleteVote 处理删除投票请求。
func (h *Handler) DeleteVote(c *gin.Context) {
	id, ok := roomParam(c)
	if !ok {
		return
	}
	if err := h.voteSvc.Delete(c.Request.Context(), id, c.Param("vid")); err != nil {
		if errors.Is(err, service.ErrVoteNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "vote not found"})
			return
		}
		log.Error().Err(err).Str("room_id", id).Str("vote_id", c.Param("vid")).Msg("delete vote")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete vote"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": c.Param("vid")})
}

// CreateGame 处理创建派对游戏房间请求：给参与者抽签分配角色。
func (h *Handler) CreateGame(c *gin.Context) {
	var req struct {
		RoomName     string   `json:"room_name"`
		Participants []string `json:"participants"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	game, err := h.gameSvc.Create(c.Request.Context(), req.RoomName, req.Participants)
	if err != nil {
		if errors.Is(err, service.ErrEmptyRoomName) || errors.Is(err, service.ErrBadPlayerCount) || errors.Is(err, service.ErrEmptyPlayer) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Error().Err(err).Str("room_name", req.RoomName).Msg("create game")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create game"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": game.ID, "room_name": game.RoomName, "participants": game.Participants})
}

// ListGames 处理获取游戏房间列表请求。
func (h *Handler) ListGames(c *gin.Context) {
	games, err := h.gameSvc.List(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("list games")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list games"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"games": games})
}

// DeleteGame 处理删除游戏房间请求。
func (h *Handler) DeleteGame(c *gin.Context) {
	if err := h.gameSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, service.ErrGameNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "game not found"})
			return
		}
		log.Error().Err(err).Str("game_id", c.Param("id")).Msg("delete game")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete game"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": c.Param("id")})
}
