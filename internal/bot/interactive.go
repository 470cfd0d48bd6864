package bot

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/slack-go/slack"
	"go.uber.org/zap"
)

// clickState is the lifecycle of a relayed message's go_button.
type clickState int

const (
	awaitingClick clickState = iota
	notified
)

// goClick is a go_button click extracted from an interaction payload.
type goClick struct {
	posterID    string
	clickerID   string
	text        string
	responseURL string
}

// parseGoClick returns the click when callback is a valid go_button action.
func parseGoClick(callback *slack.InteractionCallback) (goClick, bool) {
	if callback.Type != slack.InteractionTypeBlockActions {
		return goClick{}, false
	}
	actions := callback.ActionCallback.BlockActions
	if len(actions) == 0 || actions[0].ActionID != goButtonActionID {
		return goClick{}, false
	}

	click := goClick{
		posterID:    actions[0].Value,
		clickerID:   callback.User.ID,
		text:        callback.Message.Text,
		responseURL: callback.ResponseURL,
	}
	if click.posterID == "" || click.clickerID == "" {
		return goClick{}, false
	}
	return click, true
}

func (b *Bot) handleInteractive(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		b.metrics.Command("interactive", "malformed")
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	var callback slack.InteractionCallback
	if err := json.Unmarshal([]byte(r.PostFormValue("payload")), &callback); err != nil {
		b.metrics.Command("interactive", "malformed")
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	click, ok := parseGoClick(&callback)
	if !ok {
		b.metrics.Command("interactive", "ignored")
		w.WriteHeader(http.StatusOK)
		return
	}

	state := b.transition(r, awaitingClick, click)
	b.confirmClick(r.Context(), b.clickResponse(state, click), click)
	w.WriteHeader(http.StatusOK)
}

// confirmClick posts the confirmation to the interaction's response_url.
// Slack ignores the HTTP body of block_actions requests.
func (b *Bot) confirmClick(ctx context.Context, msg *slack.WebhookMessage, click goClick) {
	if err := b.slack.Respond(ctx, click.responseURL, msg); err != nil {
		b.logger.Error("Failed to confirm go_button click",
			zap.Error(err),
			zap.String("clicker_id", click.clickerID))
	}
}

// transition notifies the poster. The state only advances when the DM went out.
func (b *Bot) transition(r *http.Request, state clickState, click goClick) clickState {
	if state != awaitingClick {
		return state
	}

	if err := b.slack.SendDirectMessage(r.Context(), click.posterID, goButtonDMText); err != nil {
		b.logger.Error("Failed to notify original poster",
			zap.Error(err),
			zap.String("user_id", click.posterID),
			zap.String("clicker_id", click.clickerID))
		b.metrics.Command("interactive", "error")
		return awaitingClick
	}

	b.metrics.Command("interactive", "notified")
	return notified
}

// clickResponse renders the confirmation for the configured ack policy.
func (b *Bot) clickResponse(state clickState, click goClick) *slack.WebhookMessage {
	if state != notified {
		return ephemeral(goButtonFailedText)
	}

	if b.cfg.ClickAck == AckEphemeral {
		return ephemeral(goButtonAckText)
	}

	msg := inChannel(click.text)
	msg.ReplaceOriginal = true
	msg.Blocks = &slack.Blocks{BlockSet: []slack.Block{
		slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, click.text, false, false), nil, nil),
	}}
	return msg
}
