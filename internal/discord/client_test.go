package discord_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"releasewatch/internal/discord"
	"releasewatch/internal/services"
)

func TestSendJSONReturnsReceipt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("wait") != "true" {
			t.Errorf("expected wait=true, got %q", r.URL.RawQuery)
		}
		if r.URL.Query().Has("thread_id") {
			t.Errorf("unexpected thread_id")
		}
		if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
			t.Errorf("unexpected content type %q", r.Header.Get("Content-Type"))
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body["content"] != "hello" || body["thread_name"] != "Portal 2" || body["username"] != "Release Watch" {
			t.Errorf("unexpected body %v", body)
		}
		_, _ = io.WriteString(w, `{"id":"m1","channel_id":"t1"}`)
	}))
	defer srv.Close()

	client := discord.NewClient(5 * time.Second)
	receipt, err := client.Send(context.Background(), srv.URL+"/api/webhooks/1/token", discord.Message{
		Content:    "hello",
		Username:   "Release Watch",
		ThreadName: "Portal 2",
	})
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if receipt.MessageID != "m1" || receipt.ChannelID != "t1" {
		t.Fatalf("unexpected receipt %+v", receipt)
	}
}

func TestSendFollowUpTargetsThreadWithFiles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("thread_id"); got != "t1" {
			t.Errorf("expected thread_id t1, got %q", got)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			return
		}
		var body map[string]any
		if err := json.Unmarshal([]byte(r.FormValue("payload_json")), &body); err != nil {
			t.Errorf("decode payload_json: %v", err)
		}
		if _, ok := body["thread_name"]; ok {
			t.Errorf("thread_name must not accompany thread_id")
		}
		if refs, _ := body["attachments"].([]any); len(refs) != 2 {
			t.Errorf("expected 2 attachment refs, got %v", body["attachments"])
		}
		for _, key := range []string{"files[0]", "files[1]"} {
			files := r.MultipartForm.File[key]
			if len(files) != 1 {
				t.Errorf("expected file part %s", key)
				continue
			}
			if files[0].Header.Get("Content-Type") != "image/png" {
				t.Errorf("unexpected content type %q", files[0].Header.Get("Content-Type"))
			}
		}
		_, _ = io.WriteString(w, `{"id":"m2","channel_id":"t1"}`)
	}))
	defer srv.Close()

	client := discord.NewClient(5 * time.Second)
	_, err := client.Send(context.Background(), srv.URL, discord.Message{
		ThreadID:   "t1",
		ThreadName: "ignored",
		Attachments: []discord.Attachment{
			{Name: "1.png", ContentType: "image/png", Data: []byte("a")},
			{Name: "2.png", ContentType: "image/png", Data: []byte("b")},
		},
	})
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
}

func TestSendFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"rate limited", http.StatusTooManyRequests, `{"message":"slow down","retry_after":1.5}`, "retry after 1.5s"},
		{"not found", http.StatusNotFound, `{"message":"Unknown Webhook"}`, "Unknown Webhook"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			}))
			defer srv.Close()

			_, err := discord.NewClient(time.Second).Send(context.Background(), srv.URL, discord.Message{Content: "x"})
			if !errors.Is(err, services.ErrDelivery) {
				t.Fatalf("expected delivery marker, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in %q", tc.want, err.Error())
			}
		})
	}
}

func TestSendRejectsInvalidWebhook(t *testing.T) {
	_, err := discord.NewClient(time.Second).Send(context.Background(), "ftp://nope", discord.Message{Content: "x"})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration marker, got %v", err)
	}
}

func TestSendWithoutBodyReturnsEmptyReceipt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	receipt, err := discord.NewClient(time.Second).Send(context.Background(), srv.URL, discord.Message{Content: "x"})
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if !receipt.Empty() {
		t.Fatalf("expected empty receipt, got %+v", receipt)
	}
}

func TestReceiptThread(t *testing.T) {
	tests := []struct {
		name    string
		receipt discord.Receipt
		want    string
		ok      bool
	}{
		{"forum starter message", discord.Receipt{MessageID: "77", ChannelID: "77"}, "77", true},
		{"text channel message", discord.Receipt{MessageID: "78", ChannelID: "12"}, "", false},
		{"message id only", discord.Receipt{MessageID: "79"}, "", false},
		{"empty", discord.Receipt{}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.receipt.Thread()
			if got != tt.want || ok != tt.ok {
				t.Fatalf("Thread() = %q, %v; want %q, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}
