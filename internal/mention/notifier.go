// Package mention notifies users whose alias is mentioned in a relayed message.
package mention

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/xaenox/anon-bot/internal/pseudonym"
	"go.uber.org/zap"
)

var mentionPattern = regexp.MustCompile(`@([\p{L}\p{N}_]+)`)

// Resolver finds the user currently holding an alias.
type Resolver interface {
	LookupUser(ctx context.Context, alias, channelID string, now time.Time) (string, error)
}

type DirectMessenger interface {
	SendDirectMessage(ctx context.Context, userID, text string) error
}

// Result counts the notifications of one message.
type Result struct {
	Sent   int
	Failed int
}

type Notifier struct {
	pool      pseudonym.Pool
	resolver  Resolver
	messenger DirectMessenger
	logger    *zap.Logger
}

func NewNotifier(pool pseudonym.Pool, resolver Resolver, messenger DirectMessenger, logger *zap.Logger) *Notifier {
	return &Notifier{
		pool:      pool,
		resolver:  resolver,
		messenger: messenger,
		logger:    logger,
	}
}

// Aliases returns the pool aliases mentioned in text, in order of first
// appearance and without duplicates.
func (n *Notifier) Aliases(text string) []string {
	var aliases []string
	seen := make(map[string]struct{})
	for _, m := range mentionPattern.FindAllStringSubmatch(text, -1) {
		alias, ok := n.pool.Match(m[1])
		if !ok {
			continue
		}
		if _, dup := seen[alias]; dup {
			continue
		}
		seen[alias] = struct{}{}
		aliases = append(aliases, alias)
	}
	return aliases
}

// Notify sends a DM to every live holder of an alias mentioned in text,
// except the sender. Each user is notified at most once. Errors are logged
// and never returned.
func (n *Notifier) Notify(ctx context.Context, senderID, senderAlias, channelID, text string, now time.Time) Result {
	var res Result
	notified := make(map[string]struct{})

	for _, alias := range n.Aliases(text) {
		userID, err := n.resolver.LookupUser(ctx, alias, channelID, now)
		if err != nil {
			n.logger.Error("Failed to resolve mentioned alias",
				zap.Error(err),
				zap.String("alias", alias),
				zap.String("channel_id", channelID))
			res.Failed++
			continue
		}
		if userID == "" || userID == senderID {
			continue
		}
		if _, done := notified[userID]; done {
			continue
		}
		notified[userID] = struct{}{}

		body := fmt.Sprintf("🔔 *%s* t'a mentionné dans <#%s> :\n>%s", senderAlias, channelID, text)
		if err := n.messenger.SendDirectMessage(ctx, userID, body); err != nil {
			n.logger.Error("Failed to send mention notification",
				zap.Error(err),
				zap.String("user_id", userID),
				zap.String("channel_id", channelID))
			res.Failed++
			continue
		}
		res.Sent++
	}

	return res
}
