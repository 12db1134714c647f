package ws

import (
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/shanghai-romance-0210/dark-matter-world/internal/metrics"
)

// Hub 管理房间级别的子 Hub，按房间 ID 延迟创建，并发安全。
// 这里只承载临时事件（typing、join、leave）和在线人数；持久化数据
// 走存储订阅的快照通道，不经过 Hub。
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]*RoomHub
}

func NewHub() *Hub { return &Hub{rooms: make(map[string]*RoomHub)} }

// GetRoom 若房间未初始化则懒加载一个 RoomHub。
func (h *Hub) GetRoom(roomID string) *RoomHub {
	h.mu.RLock()
	room := h.rooms[roomID]
	h.mu.RUnlock()
	if room != nil {
		return room
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	room = h.rooms[roomID]
	if room != nil {
		return room
	}
	room = NewRoomHub(roomID)
	h.rooms[roomID] = room
	go room.run()
	return room
}

// Online 返回房间当前在线客户端数量，供 REST 接口复用。
func (h *Hub) Online(roomID string) int {
	h.mu.RLock()
	room := h.rooms[roomID]
	h.mu.RUnlock()
	if room == nil {
		return 0
	}
	return room.Online()
}

type RoomHub struct {
	roomID     string
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	online     int32
}

func NewRoomHub(roomID string) *RoomHub {
	return &RoomHub{
		roomID:     roomID,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
	}
}

func (rh *RoomHub) run() {
	for {
		select {
		case c := <-rh.register:
			rh.clients[c] = true
			atomic.StoreInt32(&rh.online, int32(len(rh.clients)))
			metrics.WsConnections.Inc()
			rh.fanout(rh.event("join", c))
		case c := <-rh.unregister:
			if _, ok := rh.clients[c]; ok {
				delete(rh.clients, c)
				c.shutdown()
				atomic.StoreInt32(&rh.online, int32(len(rh.clients)))
				metrics.WsConnections.Dec()
				rh.fanout(rh.event("leave", c))
			}
		case msg := <-rh.broadcast:
			rh.fanout(msg)
		}
	}
}

func (rh *RoomHub) event(kind string, c *Client) []byte {
	evt := map[string]interface{}{
		"type":     kind,
		"room_id":  rh.roomID,
		"username": c.uname,
		"online":   int(atomic.LoadInt32(&rh.online)),
	}
	b, err := json.Marshal(evt)
	if err != nil {
		return nil
	}
	return b
}

func (rh *RoomHub) fanout(msg []byte) {
	if msg == nil {
		return
	}
	for c := range rh.clients {
		select {
		case c.send <- msg:
		default:
			// 慢消费者：不直接关 send（转发泵可能正在写入），
			// 用 done 通知各泵退出。
			c.shutdown()
			delete(rh.clients, c)
			metrics.WsConnections.Dec()
		}
	}
	atomic.StoreInt32(&rh.online, int32(len(rh.clients)))
}

// Online 返回房间在线客户端数量。
func (rh *RoomHub) Online() int { return int(atomic.LoadInt32(&rh.online)) }
