package metadata_test

import (
	"errors"
	"slices"
	"testing"

	"releasewatch/internal/metadata"
)

const fullDocument = `{
  "620": {
    "success": true,
    "data": {
      "type": "game",
      "name": " Portal 2 ",
      "is_free": false,
      "short_description": "Sequel &amp; more",
      "header_image": "https://cdn.example/620/header.jpg",
      "developers": ["Valve", " "],
      "publishers": ["Valve"],
      "price_overview": {"currency": "usd", "initial": 1999, "final": 999, "discount_percent": 50},
      "categories": [{"id": 2, "description": "Single-player"}, {"id": 9, "description": "Co-op"}],
      "genres": [{"id": "1", "description": "Action"}],
      "screenshots": [{"path_full": "https://cdn.example/1.jpg"}, {"path_thumbnail": "https://cdn.example/2t.jpg"}, {}],
      "movies": [
        {"name": "Trailer", "mp4": {"480": "https://cdn.example/t480.mp4", "max": "https://cdn.example/tmax.mp4"}},
        {"name": "Teaser", "hls_h264": "https://cdn.example/teaser.m3u8"},
        {"name": "Empty"}
      ],
      "release_date": {"coming_soon": false, "date": "18 Apr, 2011"}
    }
  }
}`

func TestDecodeNormalizesFields(t *testing.T) {
	meta, skipped, err := metadata.Decode(620, []byte(fullDocument))
	if err != nil || skipped != nil {
		t.Fatalf("Decode returned error: %v (skipped %v)", err, skipped)
	}
	if meta.ID != 620 || meta.Name != "Portal 2" || meta.Type != "game" {
		t.Fatalf("unexpected identity %+v", meta)
	}
	if meta.Description != "Sequel & more" {
		t.Fatalf("expected unescaped description, got %q", meta.Description)
	}
	if meta.Price == nil || meta.Price.Currency != "USD" || meta.Price.Final != 999 || meta.Price.DiscountPercent != 50 {
		t.Fatalf("unexpected price %+v", meta.Price)
	}
	if !slices.Equal(meta.Developers, []string{"Valve"}) {
		t.Fatalf("unexpected developers %v", meta.Developers)
	}
	if !slices.Equal(meta.CategoryCodes(), []int{2, 9}) {
		t.Fatalf("unexpected category codes %v", meta.CategoryCodes())
	}
	if len(meta.Genres) != 1 || meta.Genres[0].ID != 1 || meta.Genres[0].Description != "Action" {
		t.Fatalf("unexpected genres %+v", meta.Genres)
	}
	if !slices.Equal(meta.Screenshots, []string{"https://cdn.example/1.jpg", "https://cdn.example/2t.jpg"}) {
		t.Fatalf("unexpected screenshots %v", meta.Screenshots)
	}
	if !slices.Equal(meta.Trailers, []string{"https://cdn.example/tmax.mp4", "https://cdn.example/teaser.m3u8"}) {
		t.Fatalf("unexpected trailers %v", meta.Trailers)
	}
	if meta.Release.Date != "18 Apr, 2011" || meta.Release.ComingSoon {
		t.Fatalf("unexpected release %+v", meta.Release)
	}
}

func TestDecodeToleratesSparseDocument(t *testing.T) {
	meta, _, err := metadata.Decode(5, []byte(`{"5":{"success":true,"data":{"name":"Bare"}}}`))
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if meta.Price != nil || meta.Genres != nil || meta.Screenshots != nil || meta.Description != "" {
		t.Fatalf("expected empty optional fields, got %+v", meta)
	}
}

func TestDecodeAbsent(t *testing.T) {
	tests := map[string]string{
		"missing key":   `{"1":{"success":true,"data":{"name":"Other"}}}`,
		"unsuccessful":  `{"7":{"success":false}}`,
		"delisted data": `{"7":{"success":true,"data":[]}}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			if _, _, err := metadata.Decode(7, []byte(body)); !errors.Is(err, metadata.ErrAbsent) {
				t.Fatalf("expected ErrAbsent, got %v", err)
			}
		})
	}
}

func TestDecodeRejectsMalformedDocument(t *testing.T) {
	_, _, err := metadata.Decode(7, []byte(`<html>`))
	if err == nil || errors.Is(err, metadata.ErrAbsent) {
		t.Fatalf("expected decode error, got %v", err)
	}
}


func TestDecodeKeepsItemWithMistypedFields(t *testing.T) {
	body := `{"620":{"success":true,"data":{
		"type":"game",
		"name":"Portal 2",
		"developers":"Valve",
		"publishers":{"name":"Valve"},
		"price_overview":{"currency":"USD","final":"cheap"},
		"genres":[{"id":"x","description":"Action"}],
		"release_date":{"coming_soon":false,"date":"18 Apr, 2011"}}}}`

	meta, skipped, err := metadata.Decode(620, []byte(body))
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if meta.Name != "Portal 2" || meta.Release.Date != "18 Apr, 2011" {
		t.Fatalf("expected well-formed fields kept, got %+v", meta)
	}
	if !slices.Equal(meta.Developers, []string{"Valve"}) {
		t.Fatalf("expected single developer name accepted, got %v", meta.Developers)
	}
	if meta.Publishers != nil || meta.Price != nil || meta.Genres != nil {
		t.Fatalf("expected mistyped fields left empty, got %+v", meta)
	}
	if !slices.Equal(skipped, []string{"genres", "price_overview", "publishers"}) {
		t.Fatalf("unexpected skipped fields %v", skipped)
	}
}
