package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"releasewatch/internal/services"
)

const (
	userAgent = "releasewatch (https://github.com/releasewatch/releasewatch, 0.1)"
	// MaxContentLength is the message content limit Discord enforces.
	MaxContentLength = 2000
	// MaxThreadNameLength is the forum post title limit in runes.
	MaxThreadNameLength = 100
	// MaxAttachments is the number of files one message may carry.
	MaxAttachments = 10
)

// Attachment is a file uploaded with a message.
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// Message is one webhook execution.
type Message struct {
	Content     string
	Username    string
	ThreadName  string
	ThreadID    string
	Attachments []Attachment
}

// Receipt identifies a delivered message.
type Receipt struct {
	MessageID string
	ChannelID string
}

// Empty reports whether Discord returned no identity.
func (r Receipt) Empty() bool {
	return r.MessageID == "" && r.ChannelID == ""
}

// Thread returns the forum thread the message started. Discord gives a forum
// post's starter message the same id as its thread, so a receipt whose ids
// differ came from a plain channel and has no thread to follow up in.
func (r Receipt) Thread() (string, bool) {
	if r.ChannelID == "" || r.ChannelID != r.MessageID {
		return "", false
	}
	return r.ChannelID, true
}

// Transport sends messages to a webhook.
type Transport interface {
	Send(ctx context.Context, webhookURL string, msg Message) (Receipt, error)
}

// Client is the HTTP webhook transport.
type Client struct {
	http *http.Client
}

// NewClient builds a webhook client with a per-request timeout.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{http: &http.Client{Timeout: timeout}}
}

type attachmentRef struct {
	ID       int    `json:"id"`
	Filename string `json:"filename"`
}

type allowedMentions struct {
	Parse []string `json:"parse"`
}

type payload struct {
	Content         string          `json:"content,omitempty"`
	Username        string          `json:"username,omitempty"`
	ThreadName      string          `json:"thread_name,omitempty"`
	AllowedMentions allowedMentions `json:"allowed_mentions"`
	Attachments     []attachmentRef `json:"attachments,omitempty"`
}

type response struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id"`
}

type rateLimited struct {
	Message    string  `json:"message"`
	RetryAfter float64 `json:"retry_after"`
}

// Send executes the webhook and returns the created message identity.
func (c *Client) Send(ctx context.Context, webhookURL string, msg Message) (Receipt, error) {
	endpoint, err := executeURL(webhookURL, msg.ThreadID)
	if err != nil {
		return Receipt{}, services.Wrap(services.ErrConfiguration, "discord", "send", "invalid webhook url", err)
	}

	body, contentType, err := encode(msg)
	if err != nil {
		return Receipt{}, services.Wrap(services.ErrValidation, "discord", "send", "encode message", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return Receipt{}, services.Wrap(services.ErrValidation, "discord", "send", "build request", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return Receipt{}, services.Wrap(services.ErrDelivery, "discord", "send", "request failed", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		var limited rateLimited
		_ = json.Unmarshal(raw, &limited)
		return Receipt{}, services.Wrap(services.ErrDelivery, "discord", "send",
			fmt.Sprintf("rate limited, retry after %.1fs", limited.RetryAfter), nil)
	case resp.StatusCode >= 300:
		return Receipt{}, services.Wrap(services.ErrDelivery, "discord", "send",
			fmt.Sprintf("webhook returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))), nil)
	case resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(raw)) == 0:
		return Receipt{}, nil
	}

	var decoded response
	if err := json.Unmarshal(raw, &decoded); err != nil {
		// The message was delivered; only its identity is unknown.
		return Receipt{}, nil
	}
	return Receipt{MessageID: decoded.ID, ChannelID: decoded.ChannelID}, nil
}

func executeURL(webhookURL, threadID string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(webhookURL))
	if err != nil {
		return "", err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("missing host")
	}
	query := parsed.Query()
	query.Set("wait", "true")
	if threadID != "" {
		query.Set("thread_id", threadID)
	}
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func encode(msg Message) (io.Reader, string, error) {
	p := payload{
		Content:         msg.Content,
		Username:        msg.Username,
		AllowedMentions: allowedMentions{Parse: []string{}},
	}
	if msg.ThreadID == "" {
		p.ThreadName = msg.ThreadName
	}
	if len(msg.Attachments) == 0 {
		data, err := json.Marshal(p)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(data), "application/json", nil
	}

	for i, att := range msg.Attachments {
		p.Attachments = append(p.Attachments, attachmentRef{ID: i, Filename: att.Name})
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if err := writer.WriteField("payload_json", string(data)); err != nil {
		return nil, "", err
	}
	for i, att := range msg.Attachments {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name="files[%d]"; filename=%s`, i, strconv.Quote(att.Name)))
		contentType := att.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header.Set("Content-Type", contentType)
		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(att.Data); err != nil {
			return nil, "", err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return &buf, writer.FormDataContentType(), nil
}
