package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"releasewatch/internal/config"
	"releasewatch/internal/notifications"
	"releasewatch/internal/services"
)

type captured struct {
	title    string
	tags     string
	priority string
	body     string
}

func newNtfyServer(t *testing.T, status int) (*httptest.Server, *[]captured) {
	t.Helper()
	var requests []captured
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		requests = append(requests, captured{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		})
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, &requests
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyPassFailed(context.Background(), "p1", errors.New("boom")); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNotifyPassFailedFormatsPayload(t *testing.T) {
	srv, requests := newNtfyServer(t, http.StatusOK)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = srv.URL

	svc := notifications.NewService(&cfg)
	if err := svc.NotifyPassFailed(context.Background(), "pass-1", errors.New("listing unavailable")); err != nil {
		t.Fatalf("NotifyPassFailed returned error: %v", err)
	}
	if len(*requests) != 1 {
		t.Fatalf("expected one request, got %d", len(*requests))
	}
	got := (*requests)[0]
	if got.title != "Release Watch - Pass Failed" || got.priority != "high" {
		t.Fatalf("unexpected headers %+v", got)
	}
	if got.tags != "releasewatch,pass,failed" {
		t.Fatalf("unexpected tags %q", got.tags)
	}
	if !strings.Contains(got.body, "pass-1") || !strings.Contains(got.body, "listing unavailable") {
		t.Fatalf("unexpected body %q", got.body)
	}
}

func TestNotifyPassFailedRespectsToggle(t *testing.T) {
	srv, requests := newNtfyServer(t, http.StatusOK)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = srv.URL
	cfg.Notifications.PassFailures = false

	if err := notifications.NewService(&cfg).NotifyPassFailed(context.Background(), "p", nil); err != nil {
		t.Fatalf("NotifyPassFailed returned error: %v", err)
	}
	if len(*requests) != 0 {
		t.Fatalf("expected no requests when disabled, got %d", len(*requests))
	}
}

func TestTestNotificationReportsHTTPErrors(t *testing.T) {
	srv, _ := newNtfyServer(t, http.StatusForbidden)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = srv.URL

	err := notifications.NewService(&cfg).TestNotification(context.Background())
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("expected 403 error, got %v", err)
	}
}

func TestDeliveryFailuresClassifyAsSend(t *testing.T) {
	srv, _ := newNtfyServer(t, http.StatusBadGateway)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = srv.URL

	err := notifications.NewService(&cfg).NotifyPassFailed(context.Background(), "p", errors.New("boom"))
	if got := services.Classify(err); got != services.KindSend {
		t.Fatalf("expected send kind, got %q (%v)", got, err)
	}
}
