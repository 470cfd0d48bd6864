package bot

import (
	"encoding/json"
	"net/http"

	"github.com/slack-go/slack"
	"go.uber.org/zap"
)

const (
	notEnabledText  = "❌ Ce bot n'est pas activé dans ce canal. Veuillez contacter l'administrateur de votre espace de travail si vous pensez qu'il s'agit d'une erreur."
	rejectedText    = "Désolé, ce canal est en mode restreint et ton message a été identifié comme inapproprié, il ne sera pas posté."
	unavailableText = "Désolé, la modération de ce canal est momentanément indisponible, ton message n'a pas été posté. Réessaie dans quelques instants."
	relayErrorText  = "⚠️ Désolé, ton message n'a pas pu être posté. Réessaie plus tard."
	postedText      = "Ton message a été posté anonymement sous le nom *%s*."
	usageText       = "Utilisation : `%s ton message`"

	forbiddenText    = "Sorry, only administrators can configure channel modes."
	invalidModeText  = "Invalid mode. Please use one of: %s"
	modeErrorText    = "Error updating channel mode. Please try again later."
	modeUpdatedText  = "Channel mode has been set to: %s"
	configUsageText  = "Usage: `%s MODE` where MODE is one of: %s"

	goButtonDMText     = "Hé ! Quelqu'un veut que tu viennes jouer ! 🎮"
	goButtonAckText    = "✅ L'auteur du message a été prévenu !"
	goButtonFailedText = "⚠️ Impossible de prévenir l'auteur du message pour le moment."
)

func ephemeral(text string) *slack.WebhookMessage {
	return &slack.WebhookMessage{
		ResponseType: slack.ResponseTypeEphemeral,
		Text:         text,
	}
}

func inChannel(text string) *slack.WebhookMessage {
	return &slack.WebhookMessage{
		ResponseType: slack.ResponseTypeInChannel,
		Text:         text,
	}
}

func (b *Bot) writeJSON(w http.ResponseWriter, msg *slack.WebhookMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(msg); err != nil {
		b.logger.Error("Failed to write response", zap.Error(err))
	}
}
