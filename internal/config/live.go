package config

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// Live serves configuration values that may change while the daemon runs.
// The backing file is re-read whenever its modification time changes; a file
// that fails to parse or validate leaves the previous configuration in place
// and is passed to the reload error callback once per modification.
type Live struct {
	path     string
	onReject func(error)

	mu      sync.Mutex
	current *Config
	modTime time.Time
}

// NewLive wraps an already loaded configuration. When path is empty or does
// not exist, the configuration is served as-is. onReject may be nil.
func NewLive(cfg *Config, path string, onReject func(error)) *Live {
	live := &Live{path: path, current: cfg, onReject: onReject}
	if path != "" {
		if info, err := os.Stat(path); err == nil {
			live.modTime = info.ModTime()
		}
	}
	return live
}

// Current returns the most recent valid configuration.
func (l *Live) Current() *Config {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refreshLocked()
	return l.current
}

// Channel resolves the webhook for a category against the latest configuration.
func (l *Live) Channel(category string) string {
	return l.Current().Channel(category)
}

func (l *Live) refreshLocked() {
	if l.path == "" {
		return
	}
	info, err := os.Stat(l.path)
	if err != nil || info.IsDir() {
		return
	}
	if !info.ModTime().After(l.modTime) {
		return
	}
	l.modTime = info.ModTime()

	cfg, _, _, err := decode(l.path)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		if l.onReject != nil {
			l.onReject(fmt.Errorf("reload config %s: %w", l.path, err))
		}
		return
	}
	l.current = cfg
}
