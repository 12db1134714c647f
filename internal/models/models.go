package models

import "time"

// Room 是一个以用户自选短 ID 作为存储 key 的聊天/投票空间。
// ID 即文档 key，Name 为用户输入的展示名，不做长度限制。
type Room struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Message 归属于某个房间。Text 中可以嵌入 :stamp_<name> 形式的贴图引用
// 以及轻量标记语法，渲染由 view 层完成，存储层保持原文。
type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	Username  string    `json:"username"`
	Likes     int       `json:"likes"`
	ReplyTo   *string   `json:"reply_to,omitempty"`
}

// Vote 归属于某个房间。Votes 与 Options 按下标对齐，长度恒等，
// 创建和每次更新后都必须保持该不变式。
type Vote struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	Options   []string  `json:"options"`
	Votes     []int     `json:"votes"`
	CreatedAt time.Time `json:"created_at"`
}

// Participant 是派对游戏中的一名参与者及其抽到的角色。
type Participant struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

// Game 是独立于聊天房间的派对游戏房间定义，存储在顶层 games 集合。
type Game struct {
	ID           string        `json:"id"`
	RoomName     string        `json:"room_name"`
	Participants []Participant `json:"participants"`
}
