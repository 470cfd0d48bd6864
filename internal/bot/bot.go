package bot

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/xaenox/anon-bot/internal/access"
	"github.com/xaenox/anon-bot/internal/classifier"
	"github.com/xaenox/anon-bot/internal/mention"
	"github.com/xaenox/anon-bot/internal/metrics"
	"github.com/xaenox/anon-bot/internal/models"
	"github.com/xaenox/anon-bot/internal/pseudonym"
	"github.com/xaenox/anon-bot/internal/slackapi"
	"github.com/xaenox/anon-bot/internal/storage"
	"go.uber.org/zap"
)

// ClickAck selects how a go_button click is confirmed.
type ClickAck string

const (
	// AckReplace rewrites the relayed message in place without the button.
	AckReplace ClickAck = "replace"
	// AckEphemeral leaves the message alone and answers the clicker only.
	AckEphemeral ClickAck = "ephemeral"
)

type Config struct {
	SigningSecret    string
	VerifySignatures bool
	GoButton         bool
	ClickAck         ClickAck
	DefaultMode      models.ChannelMode
}

type Bot struct {
	cfg       Config
	storage   storage.Storage
	gate      *access.Gate
	allocator *pseudonym.Allocator
	filter    *classifier.Filter
	notifier  *mention.Notifier
	slack     slackapi.API
	metrics   *metrics.Metrics
	now       func() time.Time
	logger    *zap.Logger
}

func New(cfg Config, store storage.Storage, allocator *pseudonym.Allocator, filter *classifier.Filter, api slackapi.API, m *metrics.Metrics, logger *zap.Logger) *Bot {
	if cfg.ClickAck == "" {
		cfg.ClickAck = AckReplace
	}
	if m == nil {
		m = metrics.New(nil)
	}

	return &Bot{
		cfg:       cfg,
		storage:   store,
		gate:      access.NewGate(store, cfg.DefaultMode, logger),
		allocator: allocator,
		filter:    filter,
		notifier:  mention.NewNotifier(allocator.Pool(), allocator, api, logger),
		slack:     api,
		metrics:   m,
		now:       time.Now,
		logger:    logger,
	}
}

// Router returns the HTTP handler serving every Slack endpoint.
func (b *Bot) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(b.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", b.handleHealth)
	r.Handle("/metrics", b.metrics.Handler())

	r.Route("/slack", func(r chi.Router) {
		r.Use(b.verifySlackSignature)
		r.Post("/commands/anonymous", b.handleAnonymous)
		r.Post("/commands/configure", b.handleConfigure)
		r.Post("/interactive", b.handleInteractive)
	})

	return r
}

func (b *Bot) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
