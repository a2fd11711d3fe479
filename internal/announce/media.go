package announce

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"releasewatch/internal/discord"
	"releasewatch/internal/services"
)

// maxAttachmentBytes keeps each file under Discord's default upload limit.
const maxAttachmentBytes = 8 << 20

// MediaFetcher turns a media URL into an uploadable attachment.
type MediaFetcher interface {
	Fetch(ctx context.Context, rawURL string, index int) (discord.Attachment, error)
}

// Downloader fetches media over HTTP and detects its content type.
type Downloader struct {
	client *http.Client
}

// NewDownloader builds a downloader with a per-request timeout.
func NewDownloader(timeout time.Duration) *Downloader {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Downloader{client: &http.Client{Timeout: timeout}}
}

// Fetch downloads rawURL. Files larger than the upload limit are rejected.
func (d *Downloader) Fetch(ctx context.Context, rawURL string, index int) (discord.Attachment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return discord.Attachment{}, services.Wrap(services.ErrValidation, "announce", "download media", "build request", err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return discord.Attachment{}, services.Wrap(services.ErrTransient, "announce", "download media", "request failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return discord.Attachment{}, services.Wrap(services.ErrTransient, "announce", "download media",
			fmt.Sprintf("status %d", resp.StatusCode), nil)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAttachmentBytes+1))
	if err != nil {
		return discord.Attachment{}, services.Wrap(services.ErrTransient, "announce", "download media", "read body", err)
	}
	if len(data) > maxAttachmentBytes {
		return discord.Attachment{}, services.Wrap(services.ErrValidation, "announce", "download media", "file exceeds upload limit", nil)
	}
	if len(data) == 0 {
		return discord.Attachment{}, services.Wrap(services.ErrValidation, "announce", "download media", "empty body", nil)
	}

	detected := mimetype.Detect(data)
	return discord.Attachment{
		Name:        attachmentName(rawURL, index, detected.Extension()),
		ContentType: detected.String(),
		Data:        data,
	}, nil
}

// attachmentName derives a stable file name, preferring the detected
// extension over whatever the URL path claims.
func attachmentName(rawURL string, index int, ext string) string {
	base := fmt.Sprintf("screenshot_%02d", index+1)
	if parsed, err := url.Parse(rawURL); err == nil {
		if name := path.Base(parsed.Path); name != "" && name != "." && name != "/" {
			base = fmt.Sprintf("%02d_%s", index+1, strings.TrimSuffix(name, path.Ext(name)))
		}
	}
	if ext == "" {
		ext = ".bin"
	}
	return base + ext
}
