package slackapi

import (
	"context"
	"sync"

	"github.com/slack-go/slack"
)

// DirectMessage is a DM captured by MockAPI.
type DirectMessage struct {
	UserID string
	Text   string
}

// Response is a response_url post captured by MockAPI.
type Response struct {
	URL     string
	Message *slack.WebhookMessage
}

// MockAPI is a test double for API that records every call.
type MockAPI struct {
	SendDirectMessageFunc func(ctx context.Context, userID, text string) error
	RespondFunc           func(ctx context.Context, responseURL string, msg *slack.WebhookMessage) error

	mu        sync.Mutex
	dms       []DirectMessage
	responses []Response
}

func (m *MockAPI) SendDirectMessage(ctx context.Context, userID, text string) error {
	m.mu.Lock()
	m.dms = append(m.dms, DirectMessage{UserID: userID, Text: text})
	m.mu.Unlock()

	if m.SendDirectMessageFunc != nil {
		return m.SendDirectMessageFunc(ctx, userID, text)
	}
	return nil
}

func (m *MockAPI) Respond(ctx context.Context, responseURL string, msg *slack.WebhookMessage) error {
	m.mu.Lock()
	m.responses = append(m.responses, Response{URL: responseURL, Message: msg})
	m.mu.Unlock()

	if m.RespondFunc != nil {
		return m.RespondFunc(ctx, responseURL, msg)
	}
	return nil
}

// DirectMessages returns the DMs sent so far.
func (m *MockAPI) DirectMessages() []DirectMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]DirectMessage(nil), m.dms...)
}

// Responses returns the response_url posts made so far.
func (m *MockAPI) Responses() []Response {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Response(nil), m.responses...)
}

var _ API = (*MockAPI)(nil)
