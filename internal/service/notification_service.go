package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/oirs-service/internal/config"
	"github.com/spec-kit/oirs-service/internal/events"
)

const (
	webhookTimeout     = 5 * time.Second
	maxPendingWebhooks = 8
)

// NotificationService forwards case events to the configured webhook. Posts
// run in the background so a slow receiver never delays the request that
// raised the event.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
	client     *http.Client
	slots      chan struct{}
	inflight   sync.WaitGroup
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
		client:     &http.Client{Timeout: webhookTimeout},
		slots:      make(chan struct{}, maxPendingWebhooks),
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventCaseCreated, n.handleCaseCreated)
	n.dispatcher.Subscribe(events.EventCaseStatusChanged, n.handleCaseStatusChanged)
	n.dispatcher.Subscribe(events.EventCaseFileChanged, n.handleCaseFileChanged)
	n.dispatcher.Subscribe(events.EventCaseNoteAdded, n.handleCaseNoteAdded)
}

func (n *NotificationService) handleCaseCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("CaseCreated", zap.String("case_id", event.CaseID), zap.String("folio", event.Folio), zap.Any("payload", event.Payload))
	n.deliver(ctx, event)
	return nil
}

func (n *NotificationService) handleCaseStatusChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("CaseStatusChanged", zap.String("case_id", event.CaseID), zap.String("folio", event.Folio), zap.Any("payload", event.Payload))
	n.deliver(ctx, event)
	return nil
}

func (n *NotificationService) handleCaseFileChanged(ctx context.Context, event events.Event) error {
	n.logger.Debug("CaseFileChanged", zap.String("case_id", event.CaseID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleCaseNoteAdded(ctx context.Context, event events.Event) error {
	n.logger.Debug("CaseNoteAdded", zap.String("case_id", event.CaseID), zap.String("actor", event.Actor))
	return nil
}

// deliver posts event on a background goroutine. The post outlives the
// publishing request but is bounded by webhookTimeout. When every slot is
// busy the event is dropped and logged.
func (n *NotificationService) deliver(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	select {
	case n.slots <- struct{}{}:
	default:
		n.logger.Warn("webhook backlog full, event dropped",
			zap.String("event_type", string(event.Type)),
			zap.String("case_id", event.CaseID))
		return
	}

	n.inflight.Add(1)
	go func() {
		defer n.inflight.Done()
		defer func() { <-n.slots }()

		postCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), webhookTimeout)
		defer cancel()
		if err := n.sendWebhook(postCtx, event); err != nil {
			n.logger.Warn("webhook delivery failed",
				zap.String("event_type", string(event.Type)),
				zap.String("case_id", event.CaseID),
				zap.Error(err))
		}
	}()
}

// Wait blocks until background posts finish or ctx is done.
func (n *NotificationService) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		n.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (n *NotificationService) sendWebhook(ctx context.Context, event events.Event) error {
	url := strings.TrimSpace(n.cfg.WebhookURL)
	if url == "" {
		return nil
	}
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("notify webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("notify webhook: status %d", resp.StatusCode)
	}
	return nil
}
