package announce

import (
	"strings"

	"releasewatch/internal/catalog"
	"releasewatch/internal/discord"
)

const maxDescriptionRunes = 600

// Announcement is a rendered main message.
type Announcement struct {
	Content    string
	ThreadName string
}

// RenderOptions controls rendering.
type RenderOptions struct {
	StoreURL string
	Inline   bool
}

// Render builds the main message for an item.
func Render(meta catalog.ItemMeta, opts RenderOptions) Announcement {
	name := meta.DisplayName()
	var b strings.Builder
	b.WriteString("## [")
	b.WriteString(escapeMarkdownLink(name))
	b.WriteString("](")
	b.WriteString(catalog.ItemURL(opts.StoreURL, meta.ID))
	b.WriteString(")\n")

	description := NotApplicable
	if d := strings.TrimSpace(meta.Description); d != "" {
		description = truncateRunes(d, maxDescriptionRunes)
	}
	b.WriteString(description)
	b.WriteString("\n\n")

	writeField(&b, "Release Date", FormatReleaseDate(meta.Release.Date))
	writeField(&b, "Price", FormatPrice(meta))
	writeField(&b, "Genres", joinOrNA(taxaLabels(meta.Genres)))
	writeField(&b, "Categories", joinOrNA(taxaLabels(meta.Categories)))
	writeField(&b, "Developers", joinOrNA(meta.Developers))
	writeField(&b, "Publishers", joinOrNA(meta.Publishers))

	if opts.Inline {
		writeField(&b, "Image", orNA(meta.HeaderImage))
		writeField(&b, "Screenshot", firstOrNA(meta.Screenshots))
		writeField(&b, "Trailer", firstOrNA(meta.Trailers))
	}

	return Announcement{
		Content:    truncateRunes(strings.TrimRight(b.String(), "\n"), discord.MaxContentLength),
		ThreadName: truncateRunes(name, discord.MaxThreadNameLength),
	}
}

// RenderTrailers builds the trailer follow-up, or "" when there are none.
func RenderTrailers(meta catalog.ItemMeta) string {
	if len(meta.Trailers) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("**Trailers**\n")
	for _, link := range meta.Trailers {
		b.WriteString(link)
		b.WriteString("\n")
	}
	return truncateRunes(strings.TrimRight(b.String(), "\n"), discord.MaxContentLength)
}

func writeField(b *strings.Builder, label, value string) {
	b.WriteString("**")
	b.WriteString(label)
	b.WriteString(":** ")
	b.WriteString(value)
	b.WriteString("\n")
}

func escapeMarkdownLink(s string) string {
	return strings.NewReplacer("[", "\\[", "]", "\\]").Replace(s)
}
