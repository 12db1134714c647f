// Package view 把订阅快照投影成渲染端需要的数据：消息倒序成最新在前、
// 正文渲染为 HTML，投票附带总票数和各选项的百分比。投影状态每次都
// 从快照整体重建，不做增量修补。
package view

import (
	"math"
	"time"

	"github.com/shanghai-romance-0210/dark-matter-world/internal/models"
	"github.com/shanghai-romance-0210/dark-matter-world/internal/render"
)

// MessageView 是一条用于展示的消息。HTML 为渲染后的正文，
// Text 保留原文供重发等场景使用。
type MessageView struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	HTML      string    `json:"html"`
	CreatedAt time.Time `json:"created_at"`
	Username  string    `json:"username"`
	Likes     int       `json:"likes"`
	ReplyTo   *string   `json:"reply_to,omitempty"`
}

// OptionView 是投票里的一个选项及其派生展示值。
type OptionView struct {
	Label   string `json:"label"`
	Count   int    `json:"count"`
	Percent int    `json:"percent"`
}

// VoteView 是一个用于展示的投票，Total 与 Percent 均为派生值，不落库。
type VoteView struct {
	ID        string       `json:"id"`
	Question  string       `json:"question"`
	CreatedAt time.Time    `json:"created_at"`
	Total     int          `json:"total"`
	Options   []OptionView `json:"options"`
}

// Messages 把存储序（createdAt 升序）的消息列表投影为展示序：
// 最新在前。这是纯展示变换，不回写存储。
func Messages(msgs []models.Message) []MessageView {
	out := make([]MessageView, 0, len(msgs))
	for i := len(msgs) - 1; i >= 0; i-- {
		m := msgs[i]
		out = append(out, MessageView{
			ID:        m.ID,
			Text:      m.Text,
			HTML:      render.Message(m.Text),
			CreatedAt: m.CreatedAt,
			Username:  m.Username,
			Likes:     m.Likes,
			ReplyTo:   m.ReplyTo,
		})
	}
	return out
}

// Votes 为每个投票计算总票数和各选项百分比。总票数为零时所有
// 百分比短路为 0，不触发除零。
func Votes(votes []models.Vote) []VoteView {
	out := make([]VoteView, 0, len(votes))
	for _, v := range votes {
		total := 0
		for _, n := range v.Votes {
			total += n
		}
		options := make([]OptionView, len(v.Options))
		for i, label := range v.Options {
			count := 0
			if i < len(v.Votes) {
				count = v.Votes[i]
			}
			percent := 0
			if total > 0 {
				percent = int(math.Round(float64(count) / float64(total) * 100))
			}
			options[i] = OptionView{Label: label, Count: count, Percent: percent}
		}
		out = append(out, VoteView{
			ID:        v.ID,
			Question:  v.Question,
			CreatedAt: v.CreatedAt,
			Total:     total,
			Options:   options,
		})
	}
	return out
}
