package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"strobe/internal/config"
	"strobe/internal/retention"
)

const userAgent = "Strobe-Go/0.1.0"

// Service defines the push notification surface exposed to booth components.
type Service interface {
	NotifyPairReady(ctx context.Context, timestamp, originalPath, themedPath string) error
	NotifyCleanupCompleted(ctx context.Context, report retention.Report) error
	NotifyCaptureError(ctx context.Context, category, detail string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:  topic,
		client:    &http.Client{Timeout: timeout},
		pairReady: cfg.Notifications.PairReady,
		cleanup:   cfg.Notifications.Cleanup,
		errors:    cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint  string
	client    *http.Client
	pairReady bool
	cleanup   bool
	errors    bool
}

func (n *ntfyService) NotifyPairReady(ctx context.Context, timestamp, originalPath, themedPath string) error {
	if !n.pairReady {
		return nil
	}
	data := payload{
		title: "Strobe - Pair Ready",
		message: fmt.Sprintf("New photo pair %s\nOriginal: %s\nThemed: %s",
			strings.TrimSpace(timestamp), originalPath, themedPath),
		tags: []string{"strobe", "pair", "ready"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyCleanupCompleted(ctx context.Context, report retention.Report) error {
	if !n.cleanup {
		return nil
	}
	title := "Strobe - Cleanup Complete"
	message := fmt.Sprintf("Removed %d pairs (%d files, %d bytes freed)",
		report.PairsRemoved, report.FilesRemoved, report.BytesFreed)
	if len(report.Failures) > 0 {
		title = "Strobe - Cleanup Complete (with errors)"
		message = fmt.Sprintf("%s\n%d files could not be removed", message, len(report.Failures))
	}
	data := payload{
		title:   title,
		message: message,
		tags:    []string{"strobe", "cleanup", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyCaptureError(ctx context.Context, category, detail string) error {
	if !n.errors {
		return nil
	}
	category = strings.TrimSpace(category)
	if category == "" {
		category = "generic"
	}
	message := fmt.Sprintf("Capture failed (%s)", category)
	if detail = strings.TrimSpace(detail); detail != "" {
		message = fmt.Sprintf("%s: %s", message, detail)
	}
	data := payload{
		title:    "Strobe - Capture Error",
		message:  message,
		tags:     []string{"strobe", "capture", "error"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Strobe - Test",
		message:  "Notification system test",
		tags:     []string{"strobe", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyPairReady(context.Context, string, string, string) error  { return nil }
func (noopService) NotifyCleanupCompleted(context.Context, retention.Report) error { return nil }
func (noopService) NotifyCaptureError(context.Context, string, string) error       { return nil }
func (noopService) TestNotification(context.Context) error                         { return nil }
