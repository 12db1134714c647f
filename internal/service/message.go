package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shanghai-romance-0210/dark-matter-world/internal/docstore"
	"github.com/shanghai-romance-0210/dark-matter-world/internal/metrics"
	"github.com/shanghai-romance-0210/dark-matter-world/internal/models"
)

// MessageService 封装消息相关的业务逻辑。
type MessageService struct {
	store *docstore.Store
}

func NewMessageService(store *docstore.Store) *MessageService {
	return &MessageService{store: store}
}

// Send 发送一条消息。前置条件：正文、房间 ID、显示名皆非空。
// 失败不重试，由调用方保留已输入的正文供用户重发。
func (s *MessageService) Send(ctx context.Context, roomID, username, text string, replyTo *string) (*models.Message, error) {
	if text == "" {
		return nil, ErrEmptyText
	}
	if username == "" {
		return nil, ErrEmptyUsername
	}
	if roomID == "" {
		return nil, ErrRoomNotFound
	}
	msg := models.Message{
		Text:      text,
		CreatedAt: time.Now().UTC(),
		Username:  username,
		Likes:     0,
		ReplyTo:   replyTo,
	}
	id, err := s.store.Create(ctx, docstore.MessagesPath(roomID), msg)
	if err != nil {
		return nil, err
	}
	msg.ID = id
	metrics.MessagesTotal.Inc()
	return &msg, nil
}

// Like 基于调用方先前加载到的计数盲写 likes = loadedLikes + 1。
// 两个客户端拿着同一份旧值并发点赞时会丢失一次计数（last write wins），
// 这是存储边界没有原子自增时已接受的弱点。
func (s *MessageService) Like(ctx context.Context, roomID, msgID string, loadedLikes int) error {
	if loadedLikes < 0 {
		loadedLikes = 0
	}
	err := s.store.Update(ctx, docstore.MessagesPath(roomID), msgID, map[string]any{"likes": loadedLikes + 1})
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return ErrMessageNotFound
		}
		return err
	}
	return nil
}

// List 返回房间全部消息，存储序（createdAt 升序）。展示用的倒序由 view 层负责。
func (s *MessageService) List(ctx context.Context, roomID string) ([]models.Message, error) {
	docs, err := s.store.List(ctx, docstore.MessagesPath(roomID))
	if err != nil {
		return nil, err
	}
	return DecodeMessages(docs)
}

// DecodeMessages 把一份集合快照解码为消息列表，快照顺序保持不变。
func DecodeMessages(docs []docstore.Document) ([]models.Message, error) {
	out := make([]models.Message, 0, len(docs))
	for _, d := range docs {
		var msg models.Message
		if err := json.Unmarshal(d.Data, &msg); err != nil {
			return nil, fmt.Errorf("decode message %s: %w", d.ID, err)
		}
		msg.ID = d.ID
		out = append(out, msg)
	}
	return out, nil
}
