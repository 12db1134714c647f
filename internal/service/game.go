package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"

	"github.com/shanghai-romance-0210/dark-matter-world/internal/docstore"
	"github.com/shanghai-romance-0210/dark-matter-world/internal/models"
)

// roleTables 按参与人数给出固定的角色牌堆，顺序无意义，发牌前会被打乱。
var roleTables = map[int][]string{
	4:  {"人狼", "ニート", "ニート", "GM"},
	5:  {"人狼", "ニート", "ニート", "騎士", "GM"},
	6:  {"人狼", "ニート", "騎士", "占い師", "GM", "ニート"},
	7:  {"人狼", "ニート", "騎士", "占い師", "GM", "狂人", "ニート"},
	8:  {"人狼", "ニート", "騎士", "占い師", "GM", "狂人", "ニート", "てるてる"},
	9:  {"人狼", "ニート", "騎士", "占い師", "GM", "狂人", "ニート", "てるてる", "妖狐"},
	10: {"人狼", "ニート", "騎士", "占い師", "GM", "狂人", "ニート", "てるてる", "妖狐", "ニート"},
}

// GameService 封装派对游戏房间（角色抽签）相关的业务逻辑。
// 该功能与聊天房间共用存储，但没有共享不变式。
type GameService struct {
	store *docstore.Store
}

func NewGameService(store *docstore.Store) *GameService {
	return &GameService{store: store}
}

// Create 为一组参与者抽签分配角色并保存：按人数取角色牌堆、
// 均匀洗牌后按位置发给参与者。
func (s *GameService) Create(ctx context.Context, roomName string, names []string) (*models.Game, error) {
	if roomName == "" {
		return nil, ErrEmptyRoomName
	}
	roles, ok := roleTables[len(names)]
	if !ok {
		return nil, ErrBadPlayerCount
	}
	for _, name := range names {
		if name == "" {
			return nil, ErrEmptyPlayer
		}
	}
	shuffled := make([]string, len(roles))
	copy(shuffled, roles)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	participants := make([]models.Participant, len(names))
	for i, name := range names {
		participants[i] = models.Participant{Name: name, Role: shuffled[i]}
	}
	game := models.Game{RoomName: roomName, Participants: participants}
	id, err := s.store.Create(ctx, docstore.GamesPath(), game)
	if err != nil {
		return nil, err
	}
	game.ID = id
	return &game, nil
}

// List 返回全部游戏房间，创建顺序。
func (s *GameService) List(ctx context.Context) ([]models.Game, error) {
	docs, err := s.store.List(ctx, docstore.GamesPath())
	if err != nil {
		return nil, err
	}
	out := make([]models.Game, 0, len(docs))
	for _, d := range docs {
		var game models.Game
		if err := json.Unmarshal(d.Data, &game); err != nil {
			return nil, fmt.Errorf("decode game %s: %w", d.ID, err)
		}
		game.ID = d.ID
		out = append(out, game)
	}
	return out, nil
}

// Delete 删除单个游戏房间。
func (s *GameService) Delete(ctx context.Context, id string) error {
	err := s.store.Delete(ctx, docstore.GamesPath(), id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return ErrGameNotFound
		}
		return err
	}
	return nil
}
