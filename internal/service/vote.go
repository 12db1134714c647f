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

// VoteService 封装投票相关的业务逻辑。
type VoteService struct {
	store *docstore.Store
}

func NewVoteService(store *docstore.Store) *VoteService {
	return &VoteService{store: store}
}

// Create 新建投票：问题非空、至少两个选项、每个选项非空，
// 计票数组按选项数初始化为全零，与选项数组长度恒等。
func (s *VoteService) Create(ctx context.Context, roomID, question string, options []string) (*models.Vote, error) {
	if roomID == "" {
		return nil, ErrRoomNotFound
	}
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	if len(options) < 2 {
		return nil, ErrTooFewOptions
	}
	for _, opt := range options {
		if opt == "" {
			return nil, ErrEmptyOption
		}
	}
	vote := models.Vote{
		Question:  question,
		Options:   options,
		Votes:     make([]int, len(options)),
		CreatedAt: time.Now().UTC(),
	}
	id, err := s.store.Create(ctx, docstore.VotesPath(roomID), vote)
	if err != nil {
		return nil, err
	}
	vote.ID = id
	return &vote, nil
}

// Cast 给指定选项加一票：读出当前计票、自增、写回。
// 读和写回之间没有原子性，两个并发投票者都先读后写时会丢掉一次自增，
// 这是已记录的 lost update，不在客户端侧掩盖。
func (s *VoteService) Cast(ctx context.Context, roomID, voteID string, optionIndex int) error {
	vote, err := s.get(ctx, roomID, voteID)
	if err != nil {
		return err
	}
	if optionIndex < 0 || optionIndex >= len(vote.Options) {
		return ErrBadOptionIndex
	}
	tallies := vote.Votes
	if len(tallies) != len(vote.Options) {
		// 兜底恢复不变式：对齐到选项长度再计票。
		aligned := make([]int, len(vote.Options))
		copy(aligned, tallies)
		tallies = aligned
	}
	tallies[optionIndex]++
	err = s.store.Update(ctx, docstore.VotesPath(roomID), voteID, map[string]any{"votes": tallies})
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return ErrVoteNotFound
		}
		return err
	}
	metrics.VotesCastTotal.Inc()
	return nil
}

// Delete 删除单个投票。
func (s *VoteService) Delete(ctx context.Context, roomID, voteID string) error {
	err := s.store.Delete(ctx, docstore.VotesPath(roomID), voteID)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return ErrVoteNotFound
		}
		return err
	}
	return nil
}

// List 返回房间全部投票，创建顺序。
func (s *VoteService) List(ctx context.Context, roomID string) ([]models.Vote, error) {
	docs, err := s.store.List(ctx, docstore.VotesPath(roomID))
	if err != nil {
		return nil, err
	}
	return DecodeVotes(docs)
}

// DecodeVotes 把一份集合快照解码为投票列表，快照顺序保持不变。
func DecodeVotes(docs []docstore.Document) ([]models.Vote, error) {
	out := make([]models.Vote, 0, len(docs))
	for _, d := range docs {
		var vote models.Vote
		if err := json.Unmarshal(d.Data, &vote); err != nil {
			return nil, fmt.Errorf("decode vote %s: %w", d.ID, err)
		}
		vote.ID = d.ID
		out = append(out, vote)
	}
	return out, nil
}

func (s *VoteService) get(ctx context.Context, roomID, voteID string) (*models.Vote, error) {
	raw, err := s.store.Get(ctx, docstore.VotesPath(roomID), voteID)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrVoteNotFound
		}
		return nil, err
	}
	var vote models.Vote
	if err := json.Unmarshal(raw, &vote); err != nil {
		return nil, fmt.Errorf("decode vote %s: %w", voteID, err)
	}
	vote.ID = voteID
	return &vote, nil
}
