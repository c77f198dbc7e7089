package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"argus/internal/config"
)

const userAgent = "Argus-Go/0.1.0"

// Service defines the notification surface exposed to the workflow engine.
type Service interface {
	NotifyRunStarted(ctx context.Context, target, depth string) error
	NotifyRunCompleted(ctx context.Context, target, grade string, duration time.Duration) error
	NotifyRunDegraded(ctx context.Context, target, grade string, degradedStages int) error
	NotifyRunAborted(ctx context.Context, target, reason string) error
	NotifyError(ctx context.Context, err error, context string) error
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
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		prefs:    cfg.Notifications,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	prefs    config.Notifications
}

func (n *ntfyService) NotifyRunStarted(ctx context.Context, target, depth string) error {
	if !n.prefs.RunStarted {
		return nil
	}
	data := payload{
		title:   "Argus - Run Started",
		message: fmt.Sprintf("Started %s analysis of %s", depth, strings.TrimSpace(target)),
		tags:    []string{"argus", "run", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, target, grade string, duration time.Duration) error {
	if !n.prefs.RunCompleted {
		return nil
	}
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}
	data := payload{
		title:    "Argus - Run Complete",
		message:  fmt.Sprintf("Analysis of %s complete in %s (grade: %s)", strings.TrimSpace(target), duration, grade),
		tags:     []string{"argus", "run", "completed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRunDegraded(ctx context.Context, target, grade string, degradedStages int) error {
	if !n.prefs.RunDegraded {
		return nil
	}
	data := payload{
		title:   "Argus - Run Degraded",
		message: fmt.Sprintf("Analysis of %s finished with %d degraded stage(s) (grade: %s)\nManual review recommended", strings.TrimSpace(target), degradedStages, grade),
		tags:    []string{"argus", "run", "degraded"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRunAborted(ctx context.Context, target, reason string) error {
	if !n.prefs.Errors {
		return nil
	}
	message := fmt.Sprintf("Analysis of %s aborted", strings.TrimSpace(target))
	if reason = strings.TrimSpace(reason); reason != "" {
		message = fmt.Sprintf("%s: %s", message, reason)
	}
	data := payload{
		title:    "Argus - Run Aborted",
		message:  message,
		tags:     []string{"argus", "run", "aborted"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.prefs.Errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Argus - Error",
		message:  builder.String(),
		tags:     []string{"argus", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Argus - Test",
		message:  "Notification system test",
		tags:     []string{"argus", "test"},
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

func (noopService) NotifyRunStarted(context.Context, string, string) error                 { return nil }
func (noopService) NotifyRunCompleted(context.Context, string, string, time.Duration) error { return nil }
func (noopService) NotifyRunDegraded(context.Context, string, string, int) error            { return nil }
func (noopService) NotifyRunAborted(context.Context, string, string) error                  { return nil }
func (noopService) NotifyError(context.Context, error, string) error                        { return nil }
func (noopService) TestNotification(context.Context) error                                  { return nil }
