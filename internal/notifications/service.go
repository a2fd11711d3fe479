package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"releasewatch/internal/config"
	"releasewatch/internal/services"
)

const (
	userAgent      = "releasewatch/0.1"
	defaultTimeout = 10 * time.Second
	errorBodyLimit = 2048
)

// Service defines the operator alert surface.
type Service interface {
	NotifyPassFailed(ctx context.Context, passID string, err error) error
	TestNotification(ctx context.Context) error
}

// NewService returns an ntfy-backed Service, or a noop one when no topic is
// configured.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}
	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &ntfyService{
		topicURL:     topic,
		client:       &http.Client{Timeout: timeout},
		passFailures: cfg.Notifications.PassFailures,
	}
}

// alert is one ntfy message. Everything but the body travels as headers.
type alert struct {
	Title    string
	Body     string
	Tags     []string
	Priority string
}

func (a alert) apply(h http.Header) {
	h.Set("User-Agent", userAgent)
	h.Set("Content-Type", "text/plain; charset=utf-8")
	if a.Title != "" {
		h.Set("Title", a.Title)
	}
	if len(a.Tags) > 0 {
		h.Set("Tags", strings.Join(a.Tags, ","))
	}
	if a.Priority != "" {
		h.Set("Priority", a.Priority)
	}
}

func passFailedAlert(passID string, err error) alert {
	reason := "unknown"
	if err != nil {
		reason = strings.TrimSpace(err.Error())
	}
	body := "❌ Release pass failed: " + reason
	if passID = strings.TrimSpace(passID); passID != "" {
		body = fmt.Sprintf("❌ Release pass failed (%s): %s", passID, reason)
	}
	return alert{
		Title:    "Release Watch - Pass Failed",
		Body:     body,
		Tags:     []string{"releasewatch", "pass", "failed"},
		Priority: "high",
	}
}

type ntfyService struct {
	topicURL     string
	client       *http.Client
	passFailures bool
}

func (n *ntfyService) NotifyPassFailed(ctx context.Context, passID string, err error) error {
	if !n.passFailures {
		return nil
	}
	return n.post(ctx, passFailedAlert(passID, err))
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.post(ctx, alert{
		Title:    "Release Watch - Test",
		Body:     "🧪 Notification system test",
		Tags:     []string{"releasewatch", "test"},
		Priority: "low",
	})
}

func (n *ntfyService) post(ctx context.Context, a alert) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.topicURL, strings.NewReader(a.Body))
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "notifications", "build request", "invalid ntfy topic url", err)
	}
	a.apply(req.Header)

	resp, err := n.client.Do(req)
	if err != nil {
		return services.Wrap(services.ErrDelivery, "notifications", "post", "ntfy unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return services.Wrap(services.ErrDelivery, "notifications", "post",
			fmt.Sprintf("ntfy returned %d", resp.StatusCode),
			fmt.Errorf("%s", strings.TrimSpace(string(detail))))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyPassFailed(context.Context, string, error) error { return nil }
func (noopService) TestNotification(context.Context) error                 { return nil }
