package live

import (
	"encoding/json"
	"time"

	"github.com/heronhoga/bars-fe/model"
)

// MessageType 消息类型
type MessageType string

const (
	// 客户端 -> 服务端
	MsgTypeLoad     MessageType = "load"     // 加载第一页
	MsgTypeScroll   MessageType = "scroll"   // 滚动位置
	MsgTypePlay     MessageType = "play"     // 播放/停止切换（服务端回发时为开始播放）
	MsgTypeEnded    MessageType = "ended"    // 播放结束
	MsgTypeStop     MessageType = "stop"     // 停止（服务端回发时为停止指令）
	MsgTypeLike     MessageType = "like"     // 点赞切换
	MsgTypeNavigate MessageType = "navigate" // 离开页面
	MsgTypePing     MessageType = "ping"     // 心跳

	// 服务端 -> 客户端
	MsgTypeBeats MessageType = "beats" // 一页数据
	MsgTypeEnd   MessageType = "end"   // 没有更多
	MsgTypeLiked MessageType = "liked" // 点赞结果
	MsgTypeError MessageType = "error" // 错误消息
	MsgTypePong  MessageType = "pong"  // 心跳响应
)

// WSMessage WebSocket 消息结构
type WSMessage struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp,omitempty"`
}

// ScrollData is the viewport reported by the browser.
type ScrollData struct {
	ScrollTop    float64 `json:"scrollTop"`
	ClientHeight float64 `json:"clientHeight"`
	ScrollHeight float64 `json:"scrollHeight"`
}

// BeatRef names one beat.
type BeatRef struct {
	ID string `json:"id"`
}

// BeatsData 一页歌曲
type BeatsData struct {
	Page    int          `json:"page"`
	Beats   []model.Beat `json:"beats"`
	Replace bool         `json:"replace"`
}

// PlayData tells the browser which file to play.
type PlayData struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// LikedData 点赞结果
type LikedData struct {
	ID      string `json:"id"`
	Likes   int    `json:"likes"`
	IsLiked bool   `json:"isLiked"`
}

// ErrorData 错误信息; Redirect is set when the session is no longer valid.
type ErrorData struct {
	Message  string `json:"message"`
	Redirect string `json:"redirect,omitempty"`
}

// NewMessage builds a message with data encoded as JSON.
func NewMessage(t MessageType, data any) (*WSMessage, error) {
	msg := &WSMessage{Type: t, Timestamp: time.Now().UnixMilli()}
	if data == nil {
		return msg, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	msg.Data = raw
	return msg, nil
}

// Decode unmarshals the message data into v.
func (m *WSMessage) Decode(v any) error {
	if len(m.Data) == 0 {
		return json.Unmarshal([]byte("{}"), v)
	}
	return json.Unmarshal(m.Data, v)
}
