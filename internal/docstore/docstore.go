// Package docstore 是应用与文档存储之间的唯一边界。
// 文档按集合路径组织（rooms、rooms/{id}/messages、rooms/{id}/votes、games），
// 订阅方在每次变更后收到整个集合的完整快照，而不是增量 diff。
package docstore

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound 表示目标文档不存在，update/delete/get 都可能返回。
var ErrNotFound = errors.New("document not found")

// StorageError 包装底层存储调用失败，调用方据此与校验类错误区分。
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("docstore %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Document 是一条集合成员，Data 为原始 JSON。
type Document struct {
	ID        string
	Data      []byte
	CreatedAt time.Time
}

// Snapshot 是某集合在一次变更后的完整内容，按 created_at 升序、
// 插入顺序决胜排列。
type Snapshot struct {
	Path string
	Docs []Document
}

// RoomsPath 返回顶层房间集合路径。
func RoomsPath() string { return "rooms" }

// MessagesPath 返回某房间的消息子集合路径。
func MessagesPath(roomID string) string { return "rooms/" + roomID + "/messages" }

// VotesPath 返回某房间的投票子集合路径。
func VotesPath(roomID string) string { return "rooms/" + roomID + "/votes" }

// GamesPath 返回派对游戏集合路径。
func GamesPath() string { return "games" }
