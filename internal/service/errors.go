package service

import "errors"

// 业务层通用错误，handler 可根据错误类型映射到合适的 HTTP 状态码。
var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrMessageNotFound = errors.New("message not found")
	ErrVoteNotFound    = errors.New("vote not found")
	ErrGameNotFound    = errors.New("game not found")

	ErrEmptyText      = errors.New("message text must not be empty")
	ErrEmptyUsername  = errors.New("username must not be empty")
	ErrEmptyRoomName  = errors.New("room name must not be empty")
	ErrEmptyQuestion  = errors.New("vote question must not be empty")
	ErrEmptyOption    = errors.New("vote options must not be empty")
	ErrTooFewOptions  = errors.New("a vote needs at least two options")
	ErrBadOptionIndex = errors.New("option index out of range")
	ErrBadPlayerCount = errors.New("player count must be between 4 and 10")
	ErrEmptyPlayer    = errors.New("participant names must not be empty")
)
