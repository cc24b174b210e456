package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/juancollazo-ch/woo-fluxc-service/internal/dispatcher"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/logging"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/retry"
	"go.uber.org/zap"
)

type Sender struct {
	http       *http.Client
	webhookURL string
	attempts   int
	baseDelay  time.Duration
	logger     *zap.Logger
}

// Options configura el Sender; Attempts <= 0 usa 3.
type Options struct {
	URL       string
	Attempts  int
	BaseDelay time.Duration
	Timeout   time.Duration
	Client    *http.Client
	Logger    *zap.Logger
}

// WebhookPayload es lo que recibe el endpoint externo por cada evento
type WebhookPayload struct {
	Event       dispatcher.EventType `json:"event"`
	LocalSiteID int                  `json:"local_site_id"`
	TraceID     string               `json:"trace_id,omitempty"`
	SentAt      string               `json:"sent_at"`
	Data        any                  `json:"data,omitempty"`
}

func NewSender(opts Options) *Sender {
	if opts.Attempts <= 0 {
		opts.Attempts = 3
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: opts.Timeout}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return &Sender{
		http:       opts.Client,
		webhookURL: opts.URL,
		attempts:   opts.Attempts,
		baseDelay:  opts.BaseDelay,
		logger:     opts.Logger,
	}
}

func buildPayload(event dispatcher.Event) WebhookPayload {
	return WebhookPayload{
		Event:       event.Type,
		LocalSiteID: event.LocalSiteID,
		TraceID:     event.TraceID,
		SentAt:      time.Now().UTC().Format(time.RFC3339),
		Data:        event.Payload,
	}
}

// Send hace POST del evento con reintentos. Los 4xx no se reintentan.
func (s *Sender) Send(ctx context.Context, event dispatcher.Event) error {
	payload, err := json.Marshal(buildPayload(event))
	if err != nil {
		return fmt.Errorf("error marshaling event: %w", err)
	}

	attempt := 0
	return retry.WithRetry(ctx, s.attempts, s.baseDelay, func() error {
		attempt++
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(payload))
		if err != nil {
			return retry.Permanent(fmt.Errorf("error creating request: %w", err))
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Retry-Attempt", strconv.Itoa(attempt))
		if event.TraceID != "" {
			req.Header.Set("X-Trace-ID", event.TraceID)
		}

		resp, err := s.http.Do(req)
		if err != nil {
			return fmt.Errorf("error sending webhook (attempt %d/%d): %w", attempt, s.attempts, err)
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}

		statusErr := fmt.Errorf("webhook failed with status: %d (attempt %d/%d)", resp.StatusCode, attempt, s.attempts)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return retry.Permanent(statusErr)
		}
		return statusErr
	})
}

// Subscriber devuelve el callback para dispatcher.Subscribe: reenvía sólo los tipos dados
// y hace el envío fuera del goroutine que emite.
func (s *Sender) Subscriber(ctx context.Context, types ...dispatcher.EventType) func(dispatcher.Event) {
	wanted := make(map[dispatcher.EventType]bool, len(types))
	for _, t := range types {
		wanted[t] = true
	}

	return func(event dispatcher.Event) {
		if len(wanted) > 0 && !wanted[event.Type] {
			return
		}
		go func() {
			log := logging.FromContext(logging.WithLoggingFields(ctx, event.TraceID, event.LocalSiteID), s.logger)
			if err := s.Send(ctx, event); err != nil {
				log.Error("Webhook delivery failed", zap.String("event", string(event.Type)), zap.Error(err))
				return
			}
			log.Info("Webhook delivered", zap.String("event", string(event.Type)))
		}()
	}
}
