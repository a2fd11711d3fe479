package testsupport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"releasewatch/internal/catalog"
)

// WebhookPrefix is the path under which a StoreServer accepts webhook posts.
const WebhookPrefix = "/hooks"

// StoreServer serves a FakeCatalog over HTTP in the storefront layout and
// accepts webhook posts under WebhookPrefix.
type StoreServer struct {
	*httptest.Server

	mu    sync.Mutex
	posts []string
}

// NewStoreServer starts a server backed by fake. It is closed on test cleanup.
func NewStoreServer(t testing.TB, fake *FakeCatalog) *StoreServer {
	t.Helper()
	s := &StoreServer{}
	mux := http.NewServeMux()
	mux.HandleFunc("/search/", func(w http.ResponseWriter, r *http.Request) {
		body, err := fake.Discover(r.Context(), r.URL.Query().Get("sort_by"), r.URL.Query().Get("category1"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		w.Write(body)
	})
	mux.HandleFunc("/api/appdetails", func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.URL.Query().Get("appids"), 10, 64)
		if err != nil {
			http.Error(w, "bad appids", http.StatusBadRequest)
			return
		}
		body, err := fake.FetchMeta(r.Context(), catalog.ItemID(id))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		w.Write(body)
	})
	mux.HandleFunc(WebhookPrefix+"/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.WriteHeader(http.StatusOK)
			return
		}
		s.mu.Lock()
		s.posts = append(s.posts, r.URL.Path)
		n := len(s.posts)
		s.mu.Unlock()
		// Webhooks behave like a forum channel: a new post opens a thread
		// sharing the starter message id.
		id := strconv.Itoa(1000 + n)
		channel := r.URL.Query().Get("thread_id")
		if channel == "" {
			channel = id
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"id":         id,
			"channel_id": channel,
		})
	})
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// WebhookBase is the value for WithWebhookBase that routes to this server.
func (s *StoreServer) WebhookBase() string {
	return s.URL + WebhookPrefix
}

// Posts returns the webhook paths posted to, in order.
func (s *StoreServer) Posts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.posts...)
}
