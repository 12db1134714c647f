package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shanghai-romance-0210/dark-matter-world/internal/docstore"
	"github.com/shanghai-romance-0210/dark-matter-world/internal/models"
	"github.com/shanghai-romance-0210/dark-matter-world/internal/roomid"
)

// RoomService 封装房间相关的业务逻辑。
type RoomService struct {
	store *docstore.Store
}

func NewRoomService(store *docstore.Store) *RoomService {
	return &RoomService{store: store}
}

// Create 校验并归一化房间 ID 后写入房间文档。ID 已存在时为
// last-writer-wins 覆盖：name 被替换，既有消息和投票保持不变。
func (s *RoomService) Create(ctx context.Context, rawID, name string) (*models.Room, error) {
	if name == "" {
		return nil, ErrEmptyRoomName
	}
	id, err := roomid.Validate(rawID)
	if err != nil {
		return nil, err
	}
	room := models.Room{ID: id, Name: name}
	if err := s.store.Set(ctx, docstore.RoomsPath(), id, map[string]any{"name": name}); err != nil {
		return nil, err
	}
	return &room, nil
}

// Get 读取单个房间。
func (s *RoomService) Get(ctx context.Context, id string) (*models.Room, error) {
	raw, err := s.store.Get(ctx, docstore.RoomsPath(), id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	room := models.Room{ID: id}
	if err := json.Unmarshal(raw, &room); err != nil {
		return nil, fmt.Errorf("decode room %s: %w", id, err)
	}
	room.ID = id
	return &room, nil
}

// List 返回房间列表，按创建顺序，最多 limit 条。
func (s *RoomService) List(ctx context.Context, limit int) ([]models.Room, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	docs, err := s.store.List(ctx, docstore.RoomsPath())
	if err != nil {
		return nil, err
	}
	if len(docs) > limit {
		docs = docs[:limit]
	}
	out := make([]models.Room, 0, len(docs))
	for _, d := range docs {
		room := models.Room{ID: d.ID}
		if err := json.Unmarshal(d.Data, &room); err != nil {
			return nil, fmt.Errorf("decode room %s: %w", d.ID, err)
		}
		room.ID = d.ID
		out = append(out, room)
	}
	return out, nil
}

// Delete 按固定顺序级联删除：先全部消息，再全部投票，最后房间文档。
// 三个阶段不是一个事务，中途失败会留下孤儿文档；错误信息标明失败阶段，
// 让孤儿状态可见而不是被掩盖。
func (s *RoomService) Delete(ctx context.Context, id string) error {
	if _, err := s.store.Get(ctx, docstore.RoomsPath(), id); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return ErrRoomNotFound
		}
		return err
	}
	if err := s.deleteAll(ctx, docstore.MessagesPath(id)); err != nil {
		return fmt.Errorf("delete room %s messages: %w", id, err)
	}
	if err := s.deleteAll(ctx, docstore.VotesPath(id)); err != nil {
		return fmt.Errorf("delete room %s votes: %w", id, err)
	}
	if err := s.store.Delete(ctx, docstore.RoomsPath(), id); err != nil {
		return fmt.Errorf("delete room %s document: %w", id, err)
	}
	return nil
}

func (s *RoomService) deleteAll(ctx context.Context, path string) error {
	docs, err := s.store.List(ctx, path)
	if err != nil {
		return err
	}
	for _, d := range docs {
		if err := s.store.Delete(ctx, path, d.ID); err != nil && !errors.Is(err, docstore.ErrNotFound) {
			return err
		}
	}
	return nil
}
