package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/shanghai-romance-0210/dark-matter-world/internal/docstore"
	"github.com/shanghai-romance-0210/dark-matter-world/internal/roomid"
	"github.com/shanghai-romance-0210/dark-matter-world/internal/service"
	"github.com/shanghai-romance-0210/dark-matter-world/internal/view"
)

type Client struct {
	room  *RoomHub
	conn  *websocket.Conn
	send  chan []byte
	uname string

	msgSub  *docstore.Subscription
	voteSub *docstore.Subscription
	msgSvc  *service.MessageService
	roomID  string

	// send 有两个写入方（Hub 的 fanout 和本连接的 forwardPump），
	// 因此从不关闭；所有退出都通过 done 通知。
	done      chan struct{}
	closeOnce sync.Once
}

// shutdown 幂等地关闭 done，通知读写泵和转发泵退出。
func (c *Client) shutdown() {
	c.closeOnce.Do(func() { close(c.done) })
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// InboundFrame 是客户端发来的帧：message 经 service 落库，
// typing 只向房间内其他连接转播，不持久化。
type InboundFrame struct {
	Type     string  `json:"type"`
	Text     string  `json:"text"`
	Username string  `json:"username"`
	ReplyTo  *string `json:"reply_to"`
	IsTyping bool    `json:"is_typing"`
}

// Serve 处理 /ws 连接：校验房间、升级连接、订阅该房间的消息和投票集合，
// 把每份快照投影后整体推给客户端。
func Serve(h *Hub, store *docstore.Store, roomSvc *service.RoomService, msgSvc *service.MessageService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := roomid.Validate(c.Query("room_id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if _, err := roomSvc.Get(c.Request.Context(), id); err != nil {
			if errors.Is(err, service.ErrRoomNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
				return
			}
			log.Error().Err(err).Str("room_id", id).Msg("ws room lookup")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to join room"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		rh := h.GetRoom(id)
		client := &Client{
			room:    rh,
			conn:    conn,
			send:    make(chan []byte, 256),
			uname:   c.Query("username"),
			msgSub:  store.Subscribe(docstore.MessagesPath(id)),
			voteSub: store.Subscribe(docstore.VotesPath(id)),
			msgSvc:  msgSvc,
			roomID:  id,
			done:    make(chan struct{}),
		}
		rh.register <- client

		go client.writePump()
		go client.forwardPump()
		client.readPump()
	}
}

// forwardPump 把两个集合订阅送来的快照投影成展示数据后推给客户端。
func (c *Client) forwardPump() {
	for {
		select {
		case snap, ok := <-c.msgSub.C:
			if !ok {
				return
			}
			msgs, err := service.DecodeMessages(snap.Docs)
			if err != nil {
				log.Error().Err(err).Str("room_id", c.roomID).Msg("decode message snapshot")
				continue
			}
			c.pushEvent(map[string]interface{}{
				"type":     "messages",
				"room_id":  c.roomID,
				"messages": view.Messages(msgs),
			})
		case snap, ok := <-c.voteSub.C:
			if !ok {
				return
			}
			votes, err := service.DecodeVotes(snap.Docs)
			if err != nil {
				log.Error().Err(err).Str("room_id", c.roomID).Msg("decode vote snapshot")
				continue
			}
			c.pushEvent(map[string]interface{}{
				"type":    "votes",
				"room_id": c.roomID,
				"votes":   view.Votes(votes),
			})
		case <-c.done:
			return
		}
	}
}

func (c *Client) pushEvent(evt map[string]interface{}) {
	b, err := json.Marshal(evt)
	if err != nil {
		return
	}
	select {
	case c.send <- b:
	default:
	}
}

func (c *Client) readPump() {
	defer func() {
		// 取消订阅是必须的清理，否则 broker 会继续向该连接投递快照。
		c.msgSub.Cancel()
		c.voteSub.Cancel()
		c.shutdown()
		c.room.unregister <- c
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(1 << 20) // 1MB
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		var in InboundFrame
		if err := json.Unmarshal(data, &in); err != nil {
			continue
		}
		switch in.Type {
		case "typing":
			evt := map[string]interface{}{"type": "typing", "room_id": c.roomID, "username": c.uname, "is_typing": in.IsTyping}
			if b, err := json.Marshal(evt); err == nil {
				c.room.broadcast <- b
			}
		case "message":
			username := in.Username
			if username == "" {
				username = c.uname
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			_, err := c.msgSvc.Send(ctx, c.roomID, username, in.Text, in.ReplyTo)
			cancel()
			if err != nil {
				// 发送失败只终止本次操作，原文留在客户端供重发。
				log.Warn().Err(err).Str("room_id", c.roomID).Msg("ws send message")
			}
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			_, _ = w.Write(message)
			_ = w.Close()
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
