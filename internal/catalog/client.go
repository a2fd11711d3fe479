package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"releasewatch/internal/config"
	"releasewatch/internal/services"
)

const maxBodyBytes = 8 << 20

// Client is the capability boundary to the storefront feed. Both calls return
// raw bodies; parsing is the caller's concern.
type Client interface {
	Discover(ctx context.Context, sortOrder, filterTag string) ([]byte, error)
	FetchMeta(ctx context.Context, id ItemID) ([]byte, error)
}

// HTTPClient reaches the storefront over HTTP with a per-request timeout and
// a shared request pacer.
type HTTPClient struct {
	baseURL   string
	storeURL  string
	country   string
	language  string
	userAgent string
	client    *http.Client
	limiter   *rate.Limiter
}

// NewHTTPClient builds a storefront client from catalog configuration.
func NewHTTPClient(cfg config.Catalog) *HTTPClient {
	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	return &HTTPClient{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		storeURL:  strings.TrimRight(cfg.StoreURL, "/"),
		country:   cfg.Country,
		language:  cfg.Language,
		userAgent: cfg.UserAgent,
		client:    &http.Client{Timeout: timeout},
		limiter:   rate.NewLimiter(limit, 1),
	}
}

// Discover fetches the search listing page for the given sort order and tag.
func (c *HTTPClient) Discover(ctx context.Context, sortOrder, filterTag string) ([]byte, error) {
	query := url.Values{}
	if sortOrder != "" {
		query.Set("sort_by", sortOrder)
	}
	if filterTag != "" {
		query.Set("category1", filterTag)
	}
	endpoint := c.storeURL + "/search/"
	if encoded := query.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}
	return c.get(ctx, "discover", endpoint)
}

// FetchMeta fetches the appdetails document for one item.
func (c *HTTPClient) FetchMeta(ctx context.Context, id ItemID) ([]byte, error) {
	query := url.Values{}
	query.Set("appids", id.String())
	if c.country != "" {
		query.Set("cc", c.country)
	}
	if c.language != "" {
		query.Set("l", c.language)
	}
	return c.get(ctx, "fetch_meta", c.baseURL+"/api/appdetails?"+query.Encode())
}

// ItemURL returns the public store page for an item under storeURL.
func ItemURL(storeURL string, id ItemID) string {
	return fmt.Sprintf("%s/app/%d/", strings.TrimRight(storeURL, "/"), int64(id))
}

func (c *HTTPClient) get(ctx context.Context, operation, endpoint string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, services.Wrap(services.ErrTransient, "catalog", operation, "request pacing interrupted", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "catalog", operation, "build request", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	// Age-gated pages otherwise redirect to a confirmation form.
	req.AddCookie(&http.Cookie{Name: "birthtime", Value: "0"})
	req.AddCookie(&http.Cookie{Name: "mature_content", Value: "1"})

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, services.Wrap(requestMarker(err), "catalog", operation, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		marker := services.ErrTransient
		if resp.StatusCode == http.StatusNotFound {
			marker = services.ErrNotFound
		}
		return nil, services.Wrap(marker, "catalog", operation,
			fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))), nil)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, services.Wrap(requestMarker(err), "catalog", operation, "read body", err)
	}
	return body, nil
}

func requestMarker(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return services.ErrTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return services.ErrTimeout
	}
	return services.ErrTransient
}
