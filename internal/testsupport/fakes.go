package testsupport

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"releasewatch/internal/catalog"
	"releasewatch/internal/discord"
)

// Item describes a fake catalog entry.
type Item struct {
	ID          catalog.ItemID
	Name        string
	Type        string
	Date        string
	ComingSoon  bool
	Categories  []int
	Screenshots []string
	Trailers    []string
}

// FakeCatalog serves a listing and appdetails documents from memory.
type FakeCatalog struct {
	mu          sync.Mutex
	items       []Item
	DiscoverErr error
	MetaErr     map[catalog.ItemID]error
	calls       int
}

// NewFakeCatalog lists items in the given order.
func NewFakeCatalog(items ...Item) *FakeCatalog {
	return &FakeCatalog{items: items, MetaErr: map[catalog.ItemID]error{}}
}

// Discover renders the listing as search result rows.
func (f *FakeCatalog) Discover(context.Context, string, string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.DiscoverErr != nil {
		return nil, f.DiscoverErr
	}
	var b strings.Builder
	for _, item := range f.items {
		fmt.Fprintf(&b, "<a href=\"/app/%d/\" data-ds-appid=\"%d\"></a>\n", item.ID, item.ID)
	}
	return []byte(b.String()), nil
}

// FetchMeta returns an appdetails document for a listed item.
func (f *FakeCatalog) FetchMeta(_ context.Context, id catalog.ItemID) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.MetaErr[id]; err != nil {
		return nil, err
	}
	for _, item := range f.items {
		if item.ID == id {
			return appDetails(item)
		}
	}
	return []byte(fmt.Sprintf(`{"%d":{"success":false}}`, id)), nil
}

// DiscoverCalls reports how many listings were requested.
func (f *FakeCatalog) DiscoverCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func appDetails(item Item) ([]byte, error) {
	categories := make([]map[string]any, 0, len(item.Categories))
	for _, c := range item.Categories {
		categories = append(categories, map[string]any{"id": c, "description": fmt.Sprintf("Category %d", c)})
	}
	screenshots := make([]map[string]any, 0, len(item.Screenshots))
	for _, s := range item.Screenshots {
		screenshots = append(screenshots, map[string]any{"path_full": s})
	}
	movies := make([]map[string]any, 0, len(item.Trailers))
	for _, m := range item.Trailers {
		movies = append(movies, map[string]any{"mp4": map[string]string{"max": m}})
	}
	kind := item.Type
	if kind == "" {
		kind = "game"
	}
	doc := map[string]any{
		item.ID.String(): map[string]any{
			"success": true,
			"data": map[string]any{
				"type":         kind,
				"name":         item.Name,
				"is_free":      true,
				"categories":   categories,
				"screenshots":  screenshots,
				"movies":       movies,
				"release_date": map[string]any{"coming_soon": item.ComingSoon, "date": item.Date},
			},
		},
	}
	return json.Marshal(doc)
}

// Sent is one message captured by RecordingTransport.
type Sent struct {
	Webhook string
	Message discord.Message
}

// RecordingTransport captures webhook sends and fails on demand.
type RecordingTransport struct {
	mu      sync.Mutex
	sent    []Sent
	Receipt discord.Receipt
	// FailContent fails any main message whose content contains the key.
	FailContent []string
}

// Send records msg or returns an injected failure.
func (r *RecordingTransport) Send(_ context.Context, webhook string, msg discord.Message) (discord.Receipt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, key := range r.FailContent {
		if key != "" && strings.Contains(msg.Content, key) {
			return discord.Receipt{}, fmt.Errorf("send %q: %w", key, ErrInjected)
		}
	}
	r.sent = append(r.sent, Sent{Webhook: webhook, Message: msg})
	return r.Receipt, nil
}

// Sent returns a copy of captured messages.
func (r *RecordingTransport) Sent() []Sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Sent(nil), r.sent...)
}

var (
	_ catalog.Client    = (*FakeCatalog)(nil)
	_ discord.Transport = (*RecordingTransport)(nil)
)
