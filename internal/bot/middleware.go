package bot

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/slack-go/slack"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// verifySlackSignature rejects requests whose X-Slack-Signature does not
// match the body, or whose timestamp is more than five minutes off. The body
// is restored for the next handler.
func (b *Bot) verifySlackSignature(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !b.cfg.VerifySignatures {
			next.ServeHTTP(w, r)
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		r.Body.Close()

		sv, err := slack.NewSecretsVerifier(r.Header, b.cfg.SigningSecret)
		if err != nil {
			b.logger.Warn("Rejected Slack request", zap.Error(err), zap.String("path", r.URL.Path))
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if _, err := sv.Write(body); err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if err := sv.Ensure(); err != nil {
			b.logger.Warn("Invalid Slack signature", zap.Error(err), zap.String("path", r.URL.Path))
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		r.Body = io.NopCloser(bytes.NewReader(body))
		next.ServeHTTP(w, r)
	})
}

func (b *Bot) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		b.logger.Debug("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)))
	})
}
