package models

import "time"

const (
	// DirectMessageChannel is the channel_name Slack sends for DM conversations.
	DirectMessageChannel = "directmessage"
	// RedactedText replaces the body of DM messages in the message log.
	RedactedText = "<REDACTED>"
)

// Message is an entry of the relayed message log
type Message struct {
	ID          string    `json:"id"`
	Text        string    `json:"text"`
	UserID      string    `json:"user_id"`
	ChannelID   string    `json:"channel_id"`
	ChannelName string    `json:"channel_name"`
	ResponseURL string    `json:"response_url"`
	CreatedAt   time.Time `json:"created_at"`
}

// LoggedText returns the text as it must be persisted.
func (m *Message) LoggedText() string {
	if m.ChannelName == DirectMessageChannel {
		return RedactedText
	}
	return m.Text
}

// InappropriateMessage is an audit entry for text rejected by moderation.
type InappropriateMessage struct {
	ID          string    `json:"id"`
	Text        string    `json:"text"`
	UserID      string    `json:"user_id"`
	ChannelID   string    `json:"channel_id"`
	ChannelName string    `json:"channel_name"`
	ResponseURL string    `json:"response_url"`
	CreatedAt   time.Time `json:"created_at"`
}

// AdminUser may change channel modes.
type AdminUser struct {
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
