package announce

import (
	"context"
	"log/slog"

	"releasewatch/internal/catalog"
	"releasewatch/internal/classify"
	"releasewatch/internal/discord"
	"releasewatch/internal/logging"
	"releasewatch/internal/services"
)

// ChannelResolver looks up the webhook for a category at send time.
type ChannelResolver interface {
	Channel(category string) string
}

// Options controls dispatch behavior.
type Options struct {
	StoreURL       string
	Thread         bool
	MaxScreenshots int
	Username       string
}

// Dispatcher renders and sends announcements.
type Dispatcher struct {
	transport discord.Transport
	channels  ChannelResolver
	media     MediaFetcher
	opts      Options
	logger    *slog.Logger
}

// NewDispatcher wires a dispatcher. media may be nil when thread mode is off.
func NewDispatcher(transport discord.Transport, channels ChannelResolver, media MediaFetcher, opts Options, logger *slog.Logger) *Dispatcher {
	if opts.MaxScreenshots <= 0 || opts.MaxScreenshots > discord.MaxAttachments {
		opts.MaxScreenshots = discord.MaxAttachments
	}
	return &Dispatcher{
		transport: transport,
		channels:  channels,
		media:     media,
		opts:      opts,
		logger:    logging.NewComponentLogger(logger, "dispatch"),
	}
}

// Preview renders the main message without sending it.
func (d *Dispatcher) Preview(meta catalog.ItemMeta) Announcement {
	return Render(meta, RenderOptions{StoreURL: d.opts.StoreURL, Inline: !d.opts.Thread})
}

// PostItem announces one item on its category's webhook. It reports true
// only when the main message was delivered.
func (d *Dispatcher) PostItem(ctx context.Context, meta catalog.ItemMeta) bool {
	category := classify.Classify(meta)
	ctx = services.WithItemID(ctx, int64(meta.ID))
	logger := logging.WithContext(ctx, d.logger).With(
		logging.String(logging.FieldItemName, meta.Name),
		logging.String(logging.FieldCategory, category.String()),
	)

	webhook := d.channels.Channel(category.String())
	if webhook == "" {
		err := services.Wrap(services.ErrConfiguration, "dispatch", "resolve channel",
			"no webhook configured for "+category.String(), nil)
		logging.ErrorWithContext(logger, "announcement not sent", "channel_missing",
			logging.Error(err),
			logging.String(logging.FieldErrorKind, string(services.KindConfiguration)),
			logging.String(logging.FieldErrorHint, services.Hint(services.KindConfiguration)),
		)
		return false
	}

	ann := d.Preview(meta)
	msg := discord.Message{Content: ann.Content, Username: d.opts.Username}
	if d.opts.Thread {
		msg.ThreadName = ann.ThreadName
	}
	receipt, err := d.transport.Send(ctx, webhook, msg)
	if err != nil {
		kind := services.Classify(err)
		logging.ErrorWithContext(logger, "announcement send failed", "send_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorKind, string(kind)),
			logging.String(logging.FieldErrorHint, services.Hint(services.KindSend)),
		)
		return false
	}
	logger.Info("announcement sent",
		logging.String(logging.FieldMessageID, receipt.MessageID),
		logging.String(logging.FieldChannel, receipt.ChannelID),
	)

	if d.opts.Thread {
		d.sendFollowUps(ctx, logger, webhook, meta, receipt)
	}
	return true
}

func (d *Dispatcher) sendFollowUps(ctx context.Context, logger *slog.Logger, webhook string, meta catalog.ItemMeta, receipt discord.Receipt) {
	if len(meta.Screenshots) == 0 && len(meta.Trailers) == 0 {
		return
	}
	threadID, ok := receipt.Thread()
	if !ok {
		eventType, hint := "thread_identity_missing", "discord returned no message identity; check the webhook response"
		if !receipt.Empty() {
			eventType, hint = "webhook_not_forum", "thread media mode needs forum channel webhooks; use inline mode for text channels"
		}
		logging.WarnWithContext(logger, "media follow-ups skipped", eventType,
			logging.String(logging.FieldChannel, receipt.ChannelID),
			logging.String(logging.FieldMessageID, receipt.MessageID),
			logging.String(logging.FieldErrorHint, hint),
			logging.String(logging.FieldImpact, "announcement posted without screenshots or trailers"),
		)
		return
	}

	if attachments := d.collectScreenshots(ctx, logger, meta.Screenshots); len(attachments) > 0 {
		_, err := d.transport.Send(ctx, webhook, discord.Message{
			Username:    d.opts.Username,
			ThreadID:    threadID,
			Attachments: attachments,
		})
		if err != nil {
			d.warnFollowUp(logger, "screenshots", err)
		}
	}

	if trailers := RenderTrailers(meta); trailers != "" {
		_, err := d.transport.Send(ctx, webhook, discord.Message{
			Content:  trailers,
			Username: d.opts.Username,
			ThreadID: threadID,
		})
		if err != nil {
			d.warnFollowUp(logger, "trailers", err)
		}
	}
}

func (d *Dispatcher) collectScreenshots(ctx context.Context, logger *slog.Logger, urls []string) []discord.Attachment {
	if d.media == nil || len(urls) == 0 {
		return nil
	}
	if len(urls) > d.opts.MaxScreenshots {
		urls = urls[:d.opts.MaxScreenshots]
	}
	attachments := make([]discord.Attachment, 0, len(urls))
	for i, u := range urls {
		att, err := d.media.Fetch(ctx, u, i)
		if err != nil {
			logging.WarnWithContext(logger, "screenshot download failed", "screenshot_download_failed",
				logging.Error(err),
				logging.String("url", u),
				logging.String(logging.FieldImpact, "screenshot omitted from follow-up"),
			)
			continue
		}
		attachments = append(attachments, att)
	}
	return attachments
}

func (d *Dispatcher) warnFollowUp(logger *slog.Logger, what string, err error) {
	logging.WarnWithContext(logger, "follow-up send failed", "followup_failed",
		logging.Error(err),
		logging.String("followup", what),
		logging.String(logging.FieldErrorKind, string(services.Classify(err))),
		logging.String(logging.FieldErrorHint, services.Hint(services.KindSend)),
		logging.String(logging.FieldImpact, "announcement kept; follow-up media missing"),
	)
}
