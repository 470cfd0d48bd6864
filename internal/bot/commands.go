package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/slack-go/slack"
	"github.com/xaenox/anon-bot/internal/access"
	"github.com/xaenox/anon-bot/internal/classifier"
	"github.com/xaenox/anon-bot/internal/models"
	"go.uber.org/zap"
)

const goButtonActionID = "go_button"

// handleAnonymous relays the command text into the channel under the
// sender's alias.
func (b *Bot) handleAnonymous(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cmd, err := slack.SlashCommandParse(r)
	if err != nil {
		b.metrics.Command("anonymous", "malformed")
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	logger := b.logger.With(
		zap.String("user_id", cmd.UserID),
		zap.String("channel_id", cmd.ChannelID))

	mode, err := b.gate.Mode(ctx, cmd.ChannelID)
	if err != nil {
		logger.Error("Failed to get channel mode", zap.Error(err))
		b.metrics.Command("anonymous", "error")
		b.writeJSON(w, ephemeral(relayErrorText))
		return
	}

	if !mode.AllowsRelay() {
		b.metrics.Command("anonymous", "disabled")
		b.writeJSON(w, ephemeral(notEnabledText))
		return
	}

	text := strings.TrimSpace(cmd.Text)
	if text == "" {
		b.metrics.Command("anonymous", "empty")
		b.writeJSON(w, ephemeral(fmt.Sprintf(usageText, cmd.Command)))
		return
	}

	now := b.now()

	if mode == models.ModeRestricted {
		if reply, blocked := b.moderate(ctx, cmd, text, now, logger); blocked {
			b.writeJSON(w, reply)
			return
		}
	}

	alias, err := b.allocator.Resolve(ctx, cmd.UserID, cmd.ChannelID, now)
	if err != nil {
		logger.Error("Failed to resolve alias", zap.Error(err))
		b.metrics.Command("anonymous", "error")
		b.writeJSON(w, ephemeral(relayErrorText))
		return
	}

	msg := &models.Message{
		ID:          uuid.New().String(),
		Text:        text,
		UserID:      cmd.UserID,
		ChannelID:   cmd.ChannelID,
		ChannelName: cmd.ChannelName,
		ResponseURL: cmd.ResponseURL,
		CreatedAt:   now,
	}
	if err := b.storage.SaveMessage(ctx, msg); err != nil {
		logger.Error("Failed to save message", zap.Error(err), zap.String("message_id", msg.ID))
		b.metrics.Command("anonymous", "error")
		b.writeJSON(w, ephemeral(relayErrorText))
		return
	}

	if err := b.slack.Respond(ctx, cmd.ResponseURL, b.relayMessage(alias, text, cmd.UserID)); err != nil {
		logger.Error("Failed to relay message", zap.Error(err), zap.String("message_id", msg.ID))
		b.metrics.Command("anonymous", "error")
		b.writeJSON(w, ephemeral(relayErrorText))
		return
	}

	mentions := b.notifier.Notify(ctx, cmd.UserID, alias, cmd.ChannelID, text, now)
	b.metrics.Mentions(mentions.Sent, mentions.Failed)

	logger.Info("Relayed anonymous message",
		zap.String("message_id", msg.ID),
		zap.String("alias", alias),
		zap.String("mode", string(mode)))
	b.metrics.Command("anonymous", "relayed")
	b.writeJSON(w, ephemeral(fmt.Sprintf(postedText, alias)))
}

// moderate runs the filter on text. When the message must not be relayed it
// returns the reply to send and true.
func (b *Bot) moderate(ctx context.Context, cmd slack.SlashCommand, text string, now time.Time, logger *zap.Logger) (*slack.WebhookMessage, bool) {
	start := time.Now()
	decision, result := b.filter.Check(ctx, text)
	b.metrics.Moderation(result.Status.String(), decision.String(), time.Since(start))

	switch decision {
	case classifier.Block:
		audit := &models.InappropriateMessage{
			ID:          uuid.New().String(),
			Text:        text,
			UserID:      cmd.UserID,
			ChannelID:   cmd.ChannelID,
			ChannelName: cmd.ChannelName,
			ResponseURL: cmd.ResponseURL,
			CreatedAt:   now,
		}
		if err := b.storage.SaveInappropriateMessage(ctx, audit); err != nil {
			logger.Error("Failed to save inappropriate message", zap.Error(err))
		}
		logger.Info("Blocked inappropriate message")
		b.metrics.Command("anonymous", "rejected")
		return ephemeral(rejectedText), true
	case classifier.Unavailable:
		b.metrics.Command("anonymous", "unavailable")
		return ephemeral(unavailableText), true
	default:
		return nil, false
	}
}

// relayMessage builds the in-channel post. The go_button value carries the
// poster's user id so a click can reach them.
func (b *Bot) relayMessage(alias, text, userID string) *slack.WebhookMessage {
	body := fmt.Sprintf("*%s* : %s", alias, text)
	blocks := []slack.Block{
		slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, body, false, false), nil, nil),
	}
	if b.cfg.GoButton {
		button := slack.NewButtonBlockElement(goButtonActionID, userID,
			slack.NewTextBlockObject(slack.PlainTextType, "Go 🎮", true, false))
		blocks = append(blocks, slack.NewActionBlock("relay_actions", button))
	}

	msg := inChannel(body)
	msg.Blocks = &slack.Blocks{BlockSet: blocks}
	return msg
}

// handleConfigure sets the channel mode named in the command text.
func (b *Bot) handleConfigure(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cmd, err := slack.SlashCommandParse(r)
	if err != nil {
		b.metrics.Command("configure", "malformed")
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	mode, err := b.gate.SetMode(ctx, cmd.ChannelID, cmd.Text, cmd.UserID)
	var invalid *access.InvalidModeError
	switch {
	case err == nil:
		b.metrics.Command("configure", "updated")
		b.writeJSON(w, inChannel(fmt.Sprintf(modeUpdatedText, mode)))
	case errors.Is(err, access.ErrForbidden):
		b.metrics.Command("configure", "forbidden")
		b.writeJSON(w, ephemeral(forbiddenText))
	case errors.As(err, &invalid):
		b.metrics.Command("configure", "invalid")
		if strings.TrimSpace(cmd.Text) == "" {
			b.writeJSON(w, ephemeral(fmt.Sprintf(configUsageText, cmd.Command, invalid.ValidList())))
			return
		}
		b.writeJSON(w, ephemeral(fmt.Sprintf(invalidModeText, invalid.ValidList())))
	default:
		b.logger.Error("Failed to update channel mode",
			zap.Error(err),
			zap.String("channel_id", cmd.ChannelID),
			zap.String("user_id", cmd.UserID))
		b.metrics.Command("configure", "error")
		b.writeJSON(w, ephemeral(modeErrorText))
	}
}
